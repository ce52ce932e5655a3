package core

import "github.com/go-gl/mathgl/mgl32"

// Camera supplies the primary rays for a frame.
// RayDirections holds one direction per pixel, indexed x + y*width, for the
// dimensions the camera was last resized to.
type Camera interface {
	Position() mgl32.Vec3
	RayDirections() []mgl32.Vec3
}
