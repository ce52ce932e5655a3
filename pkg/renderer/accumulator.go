package renderer

import (
	"github.com/df07/go-accumulating-pathtracer/pkg/core"
	"github.com/go-gl/mathgl/mgl32"
)

// ResetFrameIndex restarts accumulation; the next frame overwrites the running sum
func (r *Renderer) ResetFrameIndex() {
	r.frameIndex = 1
}

// FrameIndex returns the number of frames the next render will average over
func (r *Renderer) FrameIndex() int {
	return r.frameIndex
}

// beginFrame zeroes the running sum on the first frame of a sequence
func (r *Renderer) beginFrame() {
	if r.frameIndex == 1 {
		clear(r.accumulation)
	}
}

// accumulate folds one pixel color into the running sum and writes the
// averaged, clamped, packed result to the back buffer.
// Each pixel index is written by exactly one row task per frame.
func (r *Renderer) accumulate(i int, color mgl32.Vec4) {
	r.accumulation[i] = r.accumulation[i].Add(core.Widen(color))

	averaged := core.Average(r.accumulation[i], r.frameIndex)
	r.back[i] = ConvertToRGBA(core.Clamp01(averaged))
}

// endFrame advances the frame index, or restarts it when accumulation is off
func (r *Renderer) endFrame() {
	if r.settings.Accumulate {
		r.frameIndex++
	} else {
		r.frameIndex = 1
	}
}
