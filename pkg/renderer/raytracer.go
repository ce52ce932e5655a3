package renderer

import (
	"errors"
	"fmt"
	"time"

	"github.com/df07/go-accumulating-pathtracer/pkg/core"
	"github.com/df07/go-accumulating-pathtracer/pkg/integrator"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

// ErrCameraMismatch is returned when the camera has fewer ray directions than the frame has pixels
var ErrCameraMismatch = errors.New("camera ray directions do not cover the frame")

// Settings are the user-facing render toggles
type Settings struct {
	Accumulate     bool   // Average successive frames while the view is static
	Multithreading bool   // Render rows on the worker pool
	Workers        int    // Worker pool size (0 = number of logical CPUs)
	Seed           uint64 // Base seed for roughness jitter
}

// DefaultSettings returns accumulation on and single-threaded rendering
func DefaultSettings() Settings {
	return Settings{
		Accumulate:     true,
		Multithreading: false,
		Seed:           1,
	}
}

// Renderer owns the frame buffers and turns a scene and camera into frames.
// Its methods are not safe for concurrent use; callers serialize settings
// changes, resizes and scene edits against Render.
type Renderer struct {
	integrator integrator.Integrator
	logger     zerolog.Logger
	settings   Settings

	width, height int
	accumulation  []mgl64.Vec4 // running sum per pixel
	front, back   []uint32     // packed output, front is presented
	rowOrder      []int        // dispatch order, rebuilt on resize
	frameIndex    int

	pool            *WorkerPool
	detectedWorkers int
	lastStats       FrameStats
}

// NewRenderer creates a renderer with no frame buffers; call Resize before Render
func NewRenderer(integ integrator.Integrator, logger zerolog.Logger) *Renderer {
	return &Renderer{
		integrator: integ,
		logger:     logger.With().Str("component", "renderer").Logger(),
		settings:   DefaultSettings(),
		frameIndex: 1,
	}
}

// Settings returns the mutable render settings
func (r *Renderer) Settings() *Settings {
	return &r.settings
}

// LastStats returns timing for the most recent frame
func (r *Renderer) LastStats() FrameStats {
	return r.lastStats
}

// Render draws one frame of sc as seen from cam and folds it into the
// accumulated image. With no frame buffers it does nothing.
func (r *Renderer) Render(sc *scene.Scene, cam core.Camera) error {
	if r.width == 0 || r.height == 0 {
		return nil
	}

	if err := sc.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	directions := cam.RayDirections()
	if len(directions) < r.width*r.height {
		return fmt.Errorf("%w: have %d, need %dx%d", ErrCameraMismatch, len(directions), r.width, r.height)
	}

	start := time.Now()
	r.beginFrame()

	f := &frame{
		scene:      sc,
		origin:     cam.Position(),
		directions: directions,
		index:      r.frameIndex,
		seed:       r.settings.Seed,
	}

	workers := 1
	if r.settings.Multithreading {
		var err error
		workers, err = r.renderParallel(f)
		if err != nil {
			// The running sum is only partly updated, start over next frame
			r.frameIndex = 1
			return fmt.Errorf("render frame %d: %w", f.index, err)
		}
	} else {
		r.renderSequential(f)
	}

	r.swapBuffers()

	r.lastStats = FrameStats{
		FrameIndex: f.index,
		Width:      r.width,
		Height:     r.height,
		Duration:   time.Since(start),
		Parallel:   r.settings.Multithreading,
		Workers:    workers,
	}
	r.logger.Debug().
		Int("frame", f.index).
		Dur("duration", r.lastStats.Duration).
		Int("workers", workers).
		Msg("Rendered frame")

	r.endFrame()
	return nil
}

// RenderPixel returns the shaded color of pixel (x, y) for the given camera,
// without touching the frame buffers. The camera must cover the current frame size.
func (r *Renderer) RenderPixel(sc *scene.Scene, cam core.Camera, x, y int, sampler core.Sampler) mgl32.Vec4 {
	f := frame{scene: sc, origin: cam.Position(), directions: cam.RayDirections()}
	return r.renderPixel(&f, x, y, sampler)
}

func (r *Renderer) renderPixel(f *frame, x, y int, sampler core.Sampler) mgl32.Vec4 {
	ray := core.NewRay(f.origin, f.directions[x+y*r.width])
	return r.integrator.RayColor(f.scene, ray, sampler)
}

// Close stops the worker pool, if one was started
func (r *Renderer) Close() {
	if r.pool != nil {
		r.pool.Stop()
		r.pool = nil
	}
}
