package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Ray represents a ray with an origin and direction.
// The direction is not required to be normalized.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// NewRay creates a new ray
func NewRay(origin, direction mgl32.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Reflect reflects v about n: v - 2*dot(n, v)*n.
// n is used as given; it is not normalized first.
func Reflect(v, n mgl32.Vec3) mgl32.Vec3 {
	return v.Sub(n.Mul(2 * n.Dot(v)))
}

// Clamp01 returns a color with every component clamped to [0, 1]
func Clamp01(c mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{
		mgl32.Clamp(c[0], 0, 1),
		mgl32.Clamp(c[1], 0, 1),
		mgl32.Clamp(c[2], 0, 1),
		mgl32.Clamp(c[3], 0, 1),
	}
}

// Widen converts a float32 color to float64 for accumulation
func Widen(c mgl32.Vec4) mgl64.Vec4 {
	return mgl64.Vec4{float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])}
}

// Average divides an accumulated color by the number of frames folded into it.
// Each component is divided (not multiplied by a reciprocal) so that the average of
// n identical samples is exactly that sample.
func Average(sum mgl64.Vec4, n int) mgl32.Vec4 {
	d := float64(n)
	return mgl32.Vec4{
		float32(sum[0] / d),
		float32(sum[1] / d),
		float32(sum[2] / d),
		float32(sum[3] / d),
	}
}

// Luminance returns the perceptual luminance of an RGB color
func Luminance(c mgl32.Vec3) float32 {
	return 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
}
