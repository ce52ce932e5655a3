package geometry

import (
	"github.com/chewxy/math32"
	"github.com/df07/go-accumulating-pathtracer/pkg/core"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// MissIndex is the ObjectIndex of a payload that hit nothing
const MissIndex = -1

// minDirectionLengthSq is the smallest dot(direction, direction) that is traced.
// Shorter directions would divide by a near-zero quadratic coefficient.
const minDirectionLengthSq = 1e-12

// HitPayload describes the closest intersection of a ray with the scene
type HitPayload struct {
	HitDistance   float32
	WorldPosition mgl32.Vec3
	WorldNormal   mgl32.Vec3 // unit length, pointing away from the sphere center
	ObjectIndex   int
}

// IsHit reports whether the payload describes an intersection
func (h HitPayload) IsHit() bool {
	return h.ObjectIndex != MissIndex
}

// TraceRay returns the closest intersection in front of the ray origin over all
// spheres in the scene, or a miss payload.
func TraceRay(sc *scene.Scene, ray core.Ray) HitPayload {
	a := ray.Direction.Dot(ray.Direction)
	if a < minDirectionLengthSq {
		return Miss(ray)
	}

	closestSphere := MissIndex
	hitDistance := float32(math32.MaxFloat32)

	for i := range sc.Spheres {
		sphere := &sc.Spheres[i]
		if !(sphere.Radius > 0) {
			continue
		}

		origin := ray.Origin.Sub(sphere.Position)

		// Quadratic coefficients: a*t² + b*t + c = 0
		b := 2 * origin.Dot(ray.Direction)
		c := origin.Dot(origin) - sphere.Radius*sphere.Radius

		discriminant := b*b - 4*a*c
		if !(discriminant >= 0) {
			continue
		}

		// Only the near root; rays starting inside a sphere do not hit it
		closestT := (-b - math32.Sqrt(discriminant)) / (2 * a)
		if closestT > 0 && closestT < hitDistance {
			hitDistance = closestT
			closestSphere = i
		}
	}

	if closestSphere < 0 {
		return Miss(ray)
	}
	return ClosestHit(sc, ray, hitDistance, closestSphere)
}

// ClosestHit builds the payload for a hit on sphere objectIndex at distance hitDistance
func ClosestHit(sc *scene.Scene, ray core.Ray, hitDistance float32, objectIndex int) HitPayload {
	sphere := sc.Spheres[objectIndex]

	origin := ray.Origin.Sub(sphere.Position)
	localPosition := origin.Add(ray.Direction.Mul(hitDistance))

	return HitPayload{
		HitDistance:   hitDistance,
		WorldPosition: localPosition.Add(sphere.Position),
		WorldNormal:   localPosition.Normalize(),
		ObjectIndex:   objectIndex,
	}
}

// Miss returns the payload for a ray that hit nothing
func Miss(ray core.Ray) HitPayload {
	return HitPayload{HitDistance: -1, ObjectIndex: MissIndex}
}
