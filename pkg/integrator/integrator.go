package integrator

import (
	"github.com/df07/go-accumulating-pathtracer/pkg/core"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor returns the linear color seen along ray, with alpha 1.
	// The scene must have been validated; it is only read.
	RayColor(sc *scene.Scene, ray core.Ray, sampler core.Sampler) mgl32.Vec4
}
