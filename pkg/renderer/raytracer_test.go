package renderer

import (
	"testing"

	"github.com/df07/go-accumulating-pathtracer/pkg/core"
	"github.com/df07/go-accumulating-pathtracer/pkg/integrator"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, width, height int) (*Renderer, *Camera) {
	t.Helper()
	r := NewRenderer(integrator.NewPathTracer(integrator.DefaultPathTracerConfig()), zerolog.Nop())
	t.Cleanup(r.Close)

	cam := NewCamera(DefaultCameraConfig())
	r.Resize(width, height)
	cam.Resize(width, height)
	return r, cam
}

// deterministicScene is the default scene with all roughness removed
func deterministicScene() *scene.Scene {
	sc := scene.NewDefaultScene()
	for i := range sc.Materials {
		sc.Materials[i].Roughness = 0
	}
	return sc
}

func renderFrames(t *testing.T, r *Renderer, sc *scene.Scene, cam core.Camera, n int) []uint32 {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, r.Render(sc, cam))
	}
	return snapshot(r)
}

func snapshot(r *Renderer) []uint32 {
	return append([]uint32(nil), r.FinalImage().Pix...)
}

func TestRenderBeforeResizeIsNoOp(t *testing.T) {
	r := NewRenderer(integrator.NewPathTracer(integrator.DefaultPathTracerConfig()), zerolog.Nop())
	cam := NewCamera(DefaultCameraConfig())

	require.NoError(t, r.Render(scene.NewDefaultScene(), cam))
	assert.Equal(t, 1, r.FrameIndex())
	assert.Empty(t, r.FinalImage().Pix)
	assert.Equal(t, FrameStats{}, r.LastStats())
}

func TestRenderZeroSizeIsNoOp(t *testing.T) {
	r, cam := newTestRenderer(t, 0, 0)
	require.NoError(t, r.Render(scene.NewDefaultScene(), cam))
	assert.Equal(t, 1, r.FrameIndex())
}

func TestRenderCameraMismatch(t *testing.T) {
	r, cam := newTestRenderer(t, 8, 8)
	cam.Resize(4, 4)

	err := r.Render(scene.NewDefaultScene(), cam)
	assert.ErrorIs(t, err, ErrCameraMismatch)
	assert.Equal(t, 1, r.FrameIndex())
}

func TestRenderRejectsInvalidScene(t *testing.T) {
	r, cam := newTestRenderer(t, 4, 4)
	sc := scene.NewDefaultScene()
	sc.Spheres[0].MaterialIndex = 5

	err := r.Render(sc, cam)
	assert.ErrorIs(t, err, scene.ErrInvalidMaterialIndex)
}

func TestRenderMissReturnsSky(t *testing.T) {
	r, _ := newTestRenderer(t, 6, 4)
	config := DefaultCameraConfig()
	config.Forward = mgl32.Vec3{0, 0, 1} // away from the sphere
	cam := NewCamera(config)
	cam.Resize(6, 4)

	sc := scene.New("single")
	m := sc.AddMaterial(scene.Material{Albedo: mgl32.Vec3{1, 0, 1}})
	_, err := sc.AddSphere(scene.Sphere{Radius: 1, MaterialIndex: m})
	require.NoError(t, err)

	sky := mgl32.Vec4{0.6, 0.7, 0.9, 1}
	assert.Equal(t, sky, r.RenderPixel(sc, cam, 3, 2, core.ZeroSampler{}))

	require.NoError(t, r.Render(sc, cam))
	expected := ConvertToRGBA(sky)
	for i, p := range r.FinalImage().Pix {
		assert.Equal(t, expected, p, "pixel %d", i)
	}
}

func TestRenderPixelCenterHitsSphere(t *testing.T) {
	r, cam := newTestRenderer(t, 4, 4)
	sc := deterministicScene()

	// The center pixel looks straight down -z at the pink sphere, the
	// reflection goes back toward the camera and sees the sky
	lambert := float32(0.57735026)
	expected := mgl32.Vec4{lambert + 0.3, 0.35, lambert + 0.45, 1}

	got := r.RenderPixel(sc, cam, 2, 2, core.ZeroSampler{})
	assert.True(t, got.ApproxEqualThreshold(expected, 1e-3), "expected %v, got %v", expected, got)
}

func TestAccumulationConvergence(t *testing.T) {
	sc := deterministicScene()

	single, cam := newTestRenderer(t, 16, 12)
	single.Settings().Accumulate = false
	want := renderFrames(t, single, sc, cam, 1)

	accumulating, cam2 := newTestRenderer(t, 16, 12)
	const frames = 6
	for i := 1; i <= frames; i++ {
		require.NoError(t, accumulating.Render(sc, cam2))
		require.Equal(t, want, snapshot(accumulating), "frame %d", i)
	}
	assert.Equal(t, frames+1, accumulating.FrameIndex())
}

func TestAccumulateOffKeepsFrameIndex(t *testing.T) {
	r, cam := newTestRenderer(t, 4, 4)
	r.Settings().Accumulate = false

	renderFrames(t, r, scene.NewDefaultScene(), cam, 3)
	assert.Equal(t, 1, r.FrameIndex())
	assert.Equal(t, 1, r.LastStats().FrameIndex)
}

func TestResetDiscardsAccumulation(t *testing.T) {
	sc := deterministicScene()
	r, cam := newTestRenderer(t, 8, 8)
	renderFrames(t, r, sc, cam, 3)
	require.Equal(t, 4, r.FrameIndex())

	// Change the scene, then restart accumulation
	require.NoError(t, sc.SetMaterial(0, scene.Material{Albedo: mgl32.Vec3{0, 1, 0}}))
	r.ResetFrameIndex()
	got := renderFrames(t, r, sc, cam, 1)

	fresh, freshCam := newTestRenderer(t, 8, 8)
	want := renderFrames(t, fresh, sc, freshCam, 1)

	assert.Equal(t, want, got)
	assert.Equal(t, 2, r.FrameIndex())
}

func TestParallelMatchesSequential(t *testing.T) {
	tests := []struct {
		name  string
		scene *scene.Scene
	}{
		{"no roughness", deterministicScene()},
		{"default", scene.NewDefaultScene()},
		{"rough spheres", scene.NewRoughnessScene()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sequential, seqCam := newTestRenderer(t, 24, 16)

			parallel, parCam := newTestRenderer(t, 24, 16)
			parallel.Settings().Multithreading = true
			parallel.Settings().Workers = 3

			for frame := 1; frame <= 3; frame++ {
				require.NoError(t, sequential.Render(tt.scene, seqCam))
				require.NoError(t, parallel.Render(tt.scene, parCam))
				require.Equal(t, snapshot(sequential), snapshot(parallel), "frame %d", frame)
			}
			assert.True(t, parallel.LastStats().Parallel)
			assert.Equal(t, 3, parallel.LastStats().Workers)
		})
	}
}

func TestWorkerCountChangeReplacesPool(t *testing.T) {
	r, cam := newTestRenderer(t, 8, 8)
	r.Settings().Multithreading = true
	sc := scene.NewDefaultScene()

	r.Settings().Workers = 2
	require.NoError(t, r.Render(sc, cam))
	assert.Equal(t, 2, r.pool.NumWorkers())

	r.Settings().Workers = 5
	require.NoError(t, r.Render(sc, cam))
	assert.Equal(t, 5, r.pool.NumWorkers())
	assert.Equal(t, 5, r.LastStats().Workers)
}

func TestLastStats(t *testing.T) {
	r, cam := newTestRenderer(t, 10, 5)
	renderFrames(t, r, scene.NewDefaultScene(), cam, 2)

	stats := r.LastStats()
	assert.Equal(t, 2, stats.FrameIndex)
	assert.Equal(t, 10, stats.Width)
	assert.Equal(t, 5, stats.Height)
	assert.False(t, stats.Parallel)
	assert.Equal(t, 1, stats.Workers)
	assert.Positive(t, int64(stats.Duration))
}

func TestFinalImageIsDoubleBuffered(t *testing.T) {
	r, cam := newTestRenderer(t, 4, 4)
	sc := scene.NewDefaultScene()

	require.NoError(t, r.Render(sc, cam))
	first := r.FinalImage()
	require.NoError(t, r.Render(sc, cam))
	second := r.FinalImage()

	assert.NotSame(t, &first.Pix[0], &second.Pix[0])
}
