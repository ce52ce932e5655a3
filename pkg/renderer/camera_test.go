package renderer

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraRayDirections(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	camera.Resize(8, 6)

	directions := camera.RayDirections()
	if len(directions) != 48 {
		t.Fatalf("Expected 48 directions, got %d", len(directions))
	}

	// Pixel (w/2, h/2) maps to the center of the view
	center := directions[4+3*8]
	if !center.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-4) {
		t.Errorf("Expected center direction (0,0,-1), got %v", center)
	}

	for i, d := range directions {
		if math32.Abs(d.Len()-1) > 1e-4 {
			t.Errorf("Direction %d is not unit length: %v", i, d)
		}
	}

	// Row 0 is the bottom of the view, column 0 the left
	if directions[0].Y() >= 0 || directions[0].X() >= 0 {
		t.Errorf("Expected bottom-left direction, got %v", directions[0])
	}
	top := directions[4+5*8]
	if top.Y() <= 0 {
		t.Errorf("Expected top row to point up, got %v", top)
	}
}

func TestCameraFieldOfView(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	camera.Resize(2, 2)

	// Pixel (1,0) sits on the bottom edge of the view in the middle column
	d := camera.RayDirections()[1]
	angle := math32.Atan2(-d.Y(), -d.Z())
	expected := mgl32.DegToRad(22.5)
	if math32.Abs(angle-expected) > 1e-4 {
		t.Errorf("Expected half FOV %f rad, got %f", expected, angle)
	}
}

func TestCameraResize(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	camera.Resize(4, 4)
	first := &camera.RayDirections()[0]

	camera.Resize(4, 4)
	if &camera.RayDirections()[0] != first {
		t.Error("Expected same-size resize to keep the direction table")
	}

	camera.Resize(5, 3)
	if len(camera.RayDirections()) != 15 {
		t.Errorf("Expected 15 directions, got %d", len(camera.RayDirections()))
	}

	camera.Resize(math.MaxInt, 1)
	if len(camera.RayDirections()) != MaxDimension {
		t.Errorf("Expected oversized width clamped to %d directions, got %d", MaxDimension, len(camera.RayDirections()))
	}

	camera.Resize(0, 0)
	if len(camera.RayDirections()) != 0 {
		t.Errorf("Expected no directions, got %d", len(camera.RayDirections()))
	}
}

func TestCameraUpdate(t *testing.T) {
	tests := []struct {
		name             string
		input            CameraInput
		expectMoved      bool
		expectedPosition mgl32.Vec3
	}{
		{
			name:             "not looking ignores input",
			input:            CameraInput{Forward: 1, MouseDelta: mgl32.Vec2{10, 0}},
			expectMoved:      false,
			expectedPosition: mgl32.Vec3{0, 0, 6},
		},
		{
			name:             "idle",
			input:            CameraInput{Look: true},
			expectMoved:      false,
			expectedPosition: mgl32.Vec3{0, 0, 6},
		},
		{
			name:             "forward",
			input:            CameraInput{Look: true, Forward: 1},
			expectMoved:      true,
			expectedPosition: mgl32.Vec3{0, 0, 5},
		},
		{
			name:             "right",
			input:            CameraInput{Look: true, Right: 1},
			expectMoved:      true,
			expectedPosition: mgl32.Vec3{1, 0, 6},
		},
		{
			name:             "down",
			input:            CameraInput{Look: true, Up: -1},
			expectMoved:      true,
			expectedPosition: mgl32.Vec3{0, -1, 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			camera := NewCamera(DefaultCameraConfig())
			camera.Resize(4, 4)

			// MoveSpeed 5 over 0.2s moves one unit
			moved := camera.Update(tt.input, 0.2)
			if moved != tt.expectMoved {
				t.Errorf("Expected moved=%t, got %t", tt.expectMoved, moved)
			}
			if !camera.Position().ApproxEqualThreshold(tt.expectedPosition, 1e-5) {
				t.Errorf("Expected position %v, got %v", tt.expectedPosition, camera.Position())
			}
		})
	}
}

func TestCameraUpdateRotates(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	camera.Resize(4, 4)
	before := camera.RayDirections()[0]

	// Moving the mouse right turns the view right
	if !camera.Update(CameraInput{Look: true, MouseDelta: mgl32.Vec2{100, 0}}, 0.016) {
		t.Fatal("Expected mouse movement to move the camera")
	}

	forward := camera.Forward()
	if math32.Abs(forward.Len()-1) > 1e-5 {
		t.Errorf("Expected unit forward, got %v", forward)
	}
	if forward.X() <= 0 {
		t.Errorf("Expected forward to turn toward +x, got %v", forward)
	}
	if camera.RayDirections()[0] == before {
		t.Error("Expected ray directions to be recomputed")
	}
}

func TestCameraSetView(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	camera.Resize(2, 2)

	camera.SetView(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, -4})
	if camera.Position() != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("Expected position (1,2,3), got %v", camera.Position())
	}
	if !camera.Forward().ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-6) {
		t.Errorf("Expected normalized forward, got %v", camera.Forward())
	}

	camera.SetView(mgl32.Vec3{}, mgl32.Vec3{})
	if !camera.Forward().ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-6) {
		t.Errorf("Expected zero forward to keep direction, got %v", camera.Forward())
	}
}
