package core

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Float32() float32
	Vec3(minVal, maxVal float32) mgl32.Vec3
}

// RandomSampler wraps a PCG random generator. It is not safe for concurrent use;
// every row of a frame gets its own instance.
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewRowSampler creates a sampler whose stream depends only on the render seed,
// the frame index and the row, so the scheduling mode cannot change the output.
func NewRowSampler(seed uint64, frameIndex, row int) *RandomSampler {
	stream := uint64(frameIndex)<<32 | uint64(uint32(row))
	return &RandomSampler{random: rand.New(rand.NewPCG(seed, stream))}
}

// Float32 returns a random float32 in [0, 1)
func (r *RandomSampler) Float32() float32 {
	return r.random.Float32()
}

// Vec3 returns a vector with each component uniform in [minVal, maxVal)
func (r *RandomSampler) Vec3(minVal, maxVal float32) mgl32.Vec3 {
	span := maxVal - minVal
	return mgl32.Vec3{
		minVal + r.random.Float32()*span,
		minVal + r.random.Float32()*span,
		minVal + r.random.Float32()*span,
	}
}

// ZeroSampler always returns zero. Useful where randomness must be disabled.
type ZeroSampler struct{}

// Float32 always returns 0
func (ZeroSampler) Float32() float32 { return 0 }

// Vec3 always returns the zero vector
func (ZeroSampler) Vec3(minVal, maxVal float32) mgl32.Vec3 { return mgl32.Vec3{} }
