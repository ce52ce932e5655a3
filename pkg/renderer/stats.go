package renderer

import (
	"time"

	"github.com/df07/go-accumulating-pathtracer/pkg/core"
	"github.com/go-gl/mathgl/mgl32"
)

// FrameStats contains statistics about one rendered frame
type FrameStats struct {
	FrameIndex int           `json:"frameIndex"` // Frames averaged into this image
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Duration   time.Duration `json:"duration"`
	Parallel   bool          `json:"parallel"`
	Workers    int           `json:"workers"`
}

// Milliseconds returns the render time in fractional milliseconds
func (s FrameStats) Milliseconds() float64 {
	return float64(s.Duration) / float64(time.Millisecond)
}

// PixelsPerSecond returns the shading throughput of the frame
func (s FrameStats) PixelsPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Width*s.Height) / s.Duration.Seconds()
}

// AverageLuminance returns the mean luminance of a frame in [0,1]
func AverageLuminance(img *Image) float64 {
	if len(img.Pix) == 0 {
		return 0
	}

	var total float64
	for _, p := range img.Pix {
		c := mgl32.Vec3{
			float32(p&0xFF) / 255,
			float32(p>>8&0xFF) / 255,
			float32(p>>16&0xFF) / 255,
		}
		total += float64(core.Luminance(c))
	}
	return total / float64(len(img.Pix))
}
