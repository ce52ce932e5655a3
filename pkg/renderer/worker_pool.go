package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
)

// RowFunc renders a single row of the current frame
type RowFunc func(row int) error

// RowTask represents a row rendering task for the worker pool
type RowTask struct {
	TaskID int // Position in the dispatch order
	Row    int
	Render RowFunc
}

// RowResult contains the result from rendering a row
type RowResult struct {
	TaskID int
	Row    int
	Error  error
}

// WorkerPool manages parallel row rendering
type WorkerPool struct {
	taskQueue   chan RowTask
	resultQueue chan RowResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
	started     bool
}

// Worker handles individual row rendering tasks
type Worker struct {
	ID          int
	taskQueue   <-chan RowTask
	resultQueue chan<- RowResult
}

// DefaultWorkerCount returns the number of logical CPUs
func DefaultWorkerCount() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// A non-positive count uses DefaultWorkerCount.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkerCount()
	}

	// Tasks are submitted while results are drained, so the queues only need
	// to keep every worker busy
	queueSize := numWorkers * 4

	wp := &WorkerPool{
		taskQueue:   make(chan RowTask, queueSize),
		resultQueue: make(chan RowResult, queueSize),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	if wp.started {
		return
	}
	wp.started = true
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a row task to the worker pool
func (wp *WorkerPool) SubmitTask(task RowTask) {
	wp.taskQueue <- task
}

// SubmitTaskUntil submits a row task unless done is closed first.
// It reports whether the task was queued.
func (wp *WorkerPool) SubmitTaskUntil(task RowTask, done <-chan struct{}) bool {
	select {
	case wp.taskQueue <- task:
		return true
	case <-done:
		return false
	}
}

// GetResult retrieves a completed row result
func (wp *WorkerPool) GetResult() (RowResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- RowResult{
			TaskID: task.TaskID,
			Row:    task.Row,
			Error:  w.execute(task),
		}
	}
}

// execute runs one task, turning a panic into an error so the pool keeps running
func (w *Worker) execute(task RowTask) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("worker %d: row %d panicked: %v", w.ID, task.Row, p)
		}
	}()
	return task.Render(task.Row)
}
