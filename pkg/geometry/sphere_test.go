package geometry

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/df07/go-accumulating-pathtracer/pkg/core"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const tolerance = 1e-5

func newTestScene(spheres ...scene.Sphere) *scene.Scene {
	sc := scene.New("test")
	sc.AddMaterial(scene.Material{Albedo: mgl32.Vec3{1, 1, 1}})
	for _, sp := range spheres {
		if _, err := sc.AddSphere(sp); err != nil {
			panic(err)
		}
	}
	return sc
}

func TestTraceRay_Miss(t *testing.T) {
	sc := newTestScene(scene.Sphere{Position: mgl32.Vec3{0, 0, 0}, Radius: 1})
	ray := core.NewRay(mgl32.Vec3{2, 0, 0}, mgl32.Vec3{0, 1, 0})

	hit := TraceRay(sc, ray)
	if hit.IsHit() {
		t.Errorf("Expected miss, got hit on object %d at t=%f", hit.ObjectIndex, hit.HitDistance)
	}
	if hit.ObjectIndex != MissIndex {
		t.Errorf("Expected object index %d, got %d", MissIndex, hit.ObjectIndex)
	}
}

func TestTraceRay_EmptyScene(t *testing.T) {
	hit := TraceRay(scene.New("empty"), core.NewRay(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}))
	if hit.IsHit() {
		t.Error("Expected miss in empty scene")
	}
}

func TestTraceRay_FrontHit(t *testing.T) {
	tests := []struct {
		name      string
		radius    float32
		direction mgl32.Vec3
	}{
		{"unit sphere", 1, mgl32.Vec3{0, 0, -1}},
		{"half radius", 0.5, mgl32.Vec3{0, 0, -1}},
		{"large sphere", 2.5, mgl32.Vec3{0, 0, -1}},
		{"non-unit direction", 1, mgl32.Vec3{0, 0, -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestScene(scene.Sphere{Radius: tt.radius})
			ray := core.NewRay(mgl32.Vec3{0, 0, 5}, tt.direction)

			hit := TraceRay(sc, ray)
			if !hit.IsHit() {
				t.Fatal("Expected hit, got miss")
			}

			// Distance is measured in units of the direction length
			expectedT := (5 - tt.radius) / tt.direction.Len()
			if math32.Abs(hit.HitDistance-expectedT) > tolerance {
				t.Errorf("Expected t=%f, got t=%f", expectedT, hit.HitDistance)
			}
			if !hit.WorldNormal.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, tolerance) {
				t.Errorf("Expected normal (0,0,1), got %v", hit.WorldNormal)
			}
			expectedPos := mgl32.Vec3{0, 0, tt.radius}
			if !hit.WorldPosition.ApproxEqualThreshold(expectedPos, tolerance) {
				t.Errorf("Expected position %v, got %v", expectedPos, hit.WorldPosition)
			}
		})
	}
}

func TestTraceRay_OffsetSphere(t *testing.T) {
	sc := newTestScene(scene.Sphere{Position: mgl32.Vec3{3, 1, -2}, Radius: 1})
	ray := core.NewRay(mgl32.Vec3{3, 5, -2}, mgl32.Vec3{0, -1, 0})

	hit := TraceRay(sc, ray)
	if !hit.IsHit() {
		t.Fatal("Expected hit, got miss")
	}
	if math32.Abs(hit.HitDistance-3) > tolerance {
		t.Errorf("Expected t=3, got t=%f", hit.HitDistance)
	}
	if !hit.WorldPosition.ApproxEqualThreshold(mgl32.Vec3{3, 2, -2}, tolerance) {
		t.Errorf("Expected position (3,2,-2), got %v", hit.WorldPosition)
	}
	if !hit.WorldNormal.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, tolerance) {
		t.Errorf("Expected normal (0,1,0), got %v", hit.WorldNormal)
	}
}

func TestTraceRay_ClosestHit(t *testing.T) {
	near := scene.Sphere{Position: mgl32.Vec3{0, 0, 1}, Radius: 1}
	far := scene.Sphere{Position: mgl32.Vec3{0, 0, 0}, Radius: 1.5}

	tests := []struct {
		name          string
		spheres       []scene.Sphere
		expectedIndex int
	}{
		{"near first", []scene.Sphere{near, far}, 0},
		{"near last", []scene.Sphere{far, near}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestScene(tt.spheres...)
			hit := TraceRay(sc, core.NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}))

			if hit.ObjectIndex != tt.expectedIndex {
				t.Errorf("Expected object %d, got %d", tt.expectedIndex, hit.ObjectIndex)
			}
			if math32.Abs(hit.HitDistance-3) > tolerance {
				t.Errorf("Expected t=3, got t=%f", hit.HitDistance)
			}
		})
	}
}

func TestTraceRay_BehindOrigin(t *testing.T) {
	sc := newTestScene(scene.Sphere{Position: mgl32.Vec3{0, 0, 10}, Radius: 1})
	hit := TraceRay(sc, core.NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}))
	if hit.IsHit() {
		t.Errorf("Expected miss for sphere behind the ray, got t=%f", hit.HitDistance)
	}
}

func TestTraceRay_InsideSphere(t *testing.T) {
	// The near root is negative from inside, so the sphere is not hit
	sc := newTestScene(scene.Sphere{Radius: 2})
	hit := TraceRay(sc, core.NewRay(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}))
	if hit.IsHit() {
		t.Errorf("Expected miss from inside sphere, got t=%f", hit.HitDistance)
	}
}

func TestTraceRay_Degenerate(t *testing.T) {
	tests := []struct {
		name      string
		sphere    scene.Sphere
		direction mgl32.Vec3
	}{
		{"zero radius", scene.Sphere{Radius: 0}, mgl32.Vec3{0, 0, -1}},
		{"zero direction", scene.Sphere{Radius: 1}, mgl32.Vec3{}},
		{"tiny direction", scene.Sphere{Radius: 1}, mgl32.Vec3{0, 0, -1e-7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestScene(tt.sphere)
			hit := TraceRay(sc, core.NewRay(mgl32.Vec3{0, 0, 5}, tt.direction))
			if hit.IsHit() {
				t.Errorf("Expected miss, got hit at t=%f", hit.HitDistance)
			}
			if math32.IsNaN(hit.HitDistance) {
				t.Error("Hit distance is NaN")
			}
		})
	}
}

func TestTraceRay_NegativeRadiusEditedDirectly(t *testing.T) {
	sc := newTestScene(scene.Sphere{Radius: 1})
	sc.Spheres[0].Radius = -1

	hit := TraceRay(sc, core.NewRay(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}))
	if hit.IsHit() {
		t.Error("Expected negative-radius sphere to be skipped")
	}
}
