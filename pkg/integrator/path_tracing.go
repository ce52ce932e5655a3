package integrator

import (
	"github.com/chewxy/math32"
	"github.com/df07/go-accumulating-pathtracer/pkg/core"
	"github.com/df07/go-accumulating-pathtracer/pkg/geometry"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// PathTracerConfig holds the shading constants of the path tracer
type PathTracerConfig struct {
	Bounces         int        `yaml:"bounces"`
	SkyColor        mgl32.Vec3 `yaml:"sky_color"`
	LightDirection  mgl32.Vec3 `yaml:"light_direction"`  // direction the light travels in
	Epsilon         float32    `yaml:"epsilon"`          // offset along the normal for bounce origins
	MultiplierDecay float32    `yaml:"multiplier_decay"` // applied to the reflectance multiplier per hit
}

// DefaultPathTracerConfig returns the standard shading constants
func DefaultPathTracerConfig() PathTracerConfig {
	return PathTracerConfig{
		Bounces:         5,
		SkyColor:        mgl32.Vec3{0.6, 0.7, 0.9},
		LightDirection:  mgl32.Vec3{-1, -1, -1},
		Epsilon:         1e-5,
		MultiplierDecay: 0.5,
	}
}

// PathTracer shades rays with a fixed number of mirror-like bounces.
// Each hit adds a Lambert term from a single directional light and the
// reflected ray is jittered by the material roughness. Misses see a flat sky.
type PathTracer struct {
	config         PathTracerConfig
	lightDirection mgl32.Vec3 // normalized
}

// NewPathTracer creates a path tracer. A zero light direction falls back to the default.
func NewPathTracer(config PathTracerConfig) *PathTracer {
	light := config.LightDirection
	if light.Len() == 0 {
		light = DefaultPathTracerConfig().LightDirection
	}
	return &PathTracer{
		config:         config,
		lightDirection: light.Normalize(),
	}
}

// Config returns the configuration the tracer was built with
func (pt *PathTracer) Config() PathTracerConfig {
	return pt.config
}

// RayColor follows ray through up to Bounces intersections
func (pt *PathTracer) RayColor(sc *scene.Scene, ray core.Ray, sampler core.Sampler) mgl32.Vec4 {
	var color mgl32.Vec3
	multiplier := float32(1.0)

	for i := 0; i < pt.config.Bounces; i++ {
		payload := geometry.TraceRay(sc, ray)
		if !payload.IsHit() {
			color = color.Add(pt.config.SkyColor.Mul(multiplier))
			break
		}

		lightIntensity := math32.Max(payload.WorldNormal.Dot(pt.lightDirection.Mul(-1)), 0)

		material := sc.MaterialOf(payload.ObjectIndex)
		color = color.Add(material.Albedo.Mul(lightIntensity * multiplier))

		multiplier *= pt.config.MultiplierDecay

		ray.Origin = payload.WorldPosition.Add(payload.WorldNormal.Mul(pt.config.Epsilon))
		jitter := sampler.Vec3(-0.5, 0.5).Mul(material.Roughness)
		ray.Direction = core.Reflect(ray.Direction, payload.WorldNormal.Add(jitter))
	}

	return color.Vec4(1)
}
