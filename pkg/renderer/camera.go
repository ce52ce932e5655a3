package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
)

// mouseSensitivity scales raw mouse movement in pixels
const mouseSensitivity = 0.002

var worldUp = mgl32.Vec3{0, 1, 0}

// CameraConfig contains the lens and movement parameters of the interactive camera
type CameraConfig struct {
	VerticalFOV   float32    `yaml:"vertical_fov"` // degrees
	NearClip      float32    `yaml:"near_clip"`
	FarClip       float32    `yaml:"far_clip"`
	Position      mgl32.Vec3 `yaml:"position"`
	Forward       mgl32.Vec3 `yaml:"forward"`
	MoveSpeed     float32    `yaml:"move_speed"`     // units per second
	RotationSpeed float32    `yaml:"rotation_speed"` // radians per scaled mouse unit
}

// DefaultCameraConfig returns a 45 degree camera six units back from the origin
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		VerticalFOV:   45,
		NearClip:      0.1,
		FarClip:       100,
		Position:      mgl32.Vec3{0, 0, 6},
		Forward:       mgl32.Vec3{0, 0, -1},
		MoveSpeed:     5,
		RotationSpeed: 0.3,
	}
}

// CameraInput is one tick of user input
type CameraInput struct {
	Look       bool       // Movement and rotation only apply while looking
	Forward    float32    // +1 forward, -1 back
	Right      float32    // +1 right, -1 left
	Up         float32    // +1 up, -1 down
	MouseDelta mgl32.Vec2 // Cursor movement in pixels since the last tick
}

// Camera is a perspective camera that caches one ray direction per pixel.
// Pixel row 0 is the bottom of the view.
type Camera struct {
	config   CameraConfig
	position mgl32.Vec3
	forward  mgl32.Vec3

	projection        mgl32.Mat4
	inverseProjection mgl32.Mat4
	view              mgl32.Mat4
	inverseView       mgl32.Mat4

	width, height int
	rayDirections []mgl32.Vec3
}

// NewCamera creates a camera with no viewport; call Resize before use
func NewCamera(config CameraConfig) *Camera {
	c := &Camera{config: config}
	c.SetView(config.Position, config.Forward)
	return c
}

// Position returns the origin shared by all primary rays
func (c *Camera) Position() mgl32.Vec3 {
	return c.position
}

// Forward returns the unit view direction
func (c *Camera) Forward() mgl32.Vec3 {
	return c.forward
}

// RayDirections returns one direction per pixel, indexed x + y*width
func (c *Camera) RayDirections() []mgl32.Vec3 {
	return c.rayDirections
}

// SetView moves the camera and recomputes its rays.
// A zero forward vector keeps the current direction.
func (c *Camera) SetView(position, forward mgl32.Vec3) {
	c.position = position
	if forward.Len() > 0 {
		c.forward = forward.Normalize()
	} else if c.forward.Len() == 0 {
		c.forward = mgl32.Vec3{0, 0, -1}
	}
	c.recalculateView()
	c.recalculateRayDirections()
}

// Resize sets the viewport, clamped like Renderer.Resize. The same size again is a no-op.
func (c *Camera) Resize(width, height int) {
	width = clampDimension(width)
	height = clampDimension(height)
	if width == c.width && height == c.height && c.rayDirections != nil {
		return
	}

	c.width = width
	c.height = height
	c.recalculateProjection()
	c.recalculateRayDirections()
}

// Update applies one tick of input over ts seconds and reports whether the camera moved
func (c *Camera) Update(in CameraInput, ts float32) bool {
	if !in.Look {
		return false
	}

	moved := false
	right := c.forward.Cross(worldUp)
	speed := c.config.MoveSpeed * ts

	if in.Forward != 0 {
		c.position = c.position.Add(c.forward.Mul(in.Forward * speed))
		moved = true
	}
	if in.Right != 0 {
		c.position = c.position.Add(right.Mul(in.Right * speed))
		moved = true
	}
	if in.Up != 0 {
		c.position = c.position.Add(worldUp.Mul(in.Up * speed))
		moved = true
	}

	delta := in.MouseDelta.Mul(mouseSensitivity)
	if delta[0] != 0 || delta[1] != 0 {
		pitch := delta[1] * c.config.RotationSpeed
		yaw := delta[0] * c.config.RotationSpeed

		q := mgl32.QuatRotate(-pitch, right.Normalize()).Mul(mgl32.QuatRotate(-yaw, worldUp)).Normalize()
		c.forward = q.Rotate(c.forward).Normalize()
		moved = true
	}

	if moved {
		c.recalculateView()
		c.recalculateRayDirections()
	}
	return moved
}

func (c *Camera) recalculateProjection() {
	if c.width == 0 || c.height == 0 {
		return
	}
	aspect := float32(c.width) / float32(c.height)
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.config.VerticalFOV), aspect, c.config.NearClip, c.config.FarClip)
	c.inverseProjection = c.projection.Inv()
}

func (c *Camera) recalculateView() {
	c.view = mgl32.LookAtV(c.position, c.position.Add(c.forward), worldUp)
	c.inverseView = c.view.Inv()
}

func (c *Camera) recalculateRayDirections() {
	n := c.width * c.height
	if cap(c.rayDirections) >= n {
		c.rayDirections = c.rayDirections[:n]
	} else {
		c.rayDirections = make([]mgl32.Vec3, n)
	}
	if n == 0 {
		return
	}

	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			coord := mgl32.Vec2{
				float32(x)/float32(c.width)*2 - 1,
				float32(y)/float32(c.height)*2 - 1,
			}

			target := c.inverseProjection.Mul4x1(mgl32.Vec4{coord[0], coord[1], 1, 1})
			local := target.Vec3().Mul(1 / target[3]).Normalize()
			c.rayDirections[x+y*c.width] = c.inverseView.Mul4x1(local.Vec4(0)).Vec3()
		}
	}
}
