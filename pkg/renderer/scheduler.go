package renderer

import (
	"fmt"

	"github.com/df07/go-accumulating-pathtracer/pkg/core"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// frame is the read-only input shared by every row of one render call
type frame struct {
	scene      *scene.Scene
	origin     mgl32.Vec3
	directions []mgl32.Vec3
	index      int
	seed       uint64
}

// renderRow shades and accumulates every pixel of one row.
// Rows never write outside their own slice of the buffers.
func (r *Renderer) renderRow(f *frame, y int) {
	sampler := core.NewRowSampler(f.seed, f.index, y)
	base := y * r.width
	for x := 0; x < r.width; x++ {
		r.accumulate(base+x, r.renderPixel(f, x, y, sampler))
	}
}

// renderSequential renders rows bottom to top on the calling goroutine
func (r *Renderer) renderSequential(f *frame) {
	for _, y := range r.rowOrder {
		r.renderRow(f, y)
	}
}

// renderParallel submits one task per row and waits for all of them.
// It returns the number of workers that took part.
func (r *Renderer) renderParallel(f *frame) (int, error) {
	pool := r.workerPool()

	render := func(row int) error {
		r.renderRow(f, row)
		return nil
	}

	// done releases the submitter if collection stops early
	done := make(chan struct{})
	defer close(done)

	rows := r.rowOrder
	go func() {
		for i, row := range rows {
			if !pool.SubmitTaskUntil(RowTask{TaskID: i, Row: row, Render: render}, done) {
				return
			}
		}
	}()

	// Every row must finish before the frame is complete, even after an error
	var firstErr error
	for i := 0; i < len(rows); i++ {
		result, ok := pool.GetResult()
		if !ok {
			return pool.NumWorkers(), fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
	}

	return pool.NumWorkers(), firstErr
}

// workerPool returns a started pool sized for the current settings,
// replacing the existing one when the worker count changed
func (r *Renderer) workerPool() *WorkerPool {
	want := r.settings.Workers
	if want <= 0 {
		if r.detectedWorkers == 0 {
			r.detectedWorkers = DefaultWorkerCount()
		}
		want = r.detectedWorkers
	}

	if r.pool != nil && r.pool.NumWorkers() == want {
		return r.pool
	}
	if r.pool != nil {
		r.pool.Stop()
	}

	r.pool = NewWorkerPool(want)
	r.pool.Start()
	r.logger.Info().Int("workers", want).Msg("Started worker pool")
	return r.pool
}
