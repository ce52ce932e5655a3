package renderer

import (
	"encoding/binary"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Image is a read-only view of a finished frame.
// Pix holds one packed pixel per entry (see ConvertToRGBA), row-major,
// with row 0 at the bottom of the view. It stays valid until the next
// Resize or until the frame after next has been rendered.
type Image struct {
	Width  int
	Height int
	Pix    []uint32
}

// At returns the packed pixel at (x, y)
func (img *Image) At(x, y int) uint32 {
	return img.Pix[x+y*img.Width]
}

// RGBA copies the frame into a standard library image.
// With flipY set the bottom row of the frame becomes the last row of the result.
func (img *Image) RGBA(flipY bool) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		dstY := y
		if flipY {
			dstY = img.Height - 1 - y
		}
		src := img.Pix[y*img.Width : (y+1)*img.Width]
		dst := out.Pix[dstY*out.Stride:]
		for x, p := range src {
			// The packed layout is R,G,B,A in little-endian byte order
			binary.LittleEndian.PutUint32(dst[x*4:], p)
		}
	}
	return out
}

// ConvertToRGBA packs a color with components in [0,1] as a<<24 | b<<16 | g<<8 | r.
// Components are truncated, not rounded. The caller clamps first.
func ConvertToRGBA(c mgl32.Vec4) uint32 {
	r := uint8(c[0] * 255.0)
	g := uint8(c[1] * 255.0)
	b := uint8(c[2] * 255.0)
	a := uint8(c[3] * 255.0)
	return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

// MaxDimension is the largest frame width or height; larger sizes are clamped
const MaxDimension = 8192

// clampDimension limits a requested frame side to [0, MaxDimension]
func clampDimension(n int) int {
	return min(max(n, 0), MaxDimension)
}

// Resize sets the frame size. Calling it with the current size is a no-op;
// any other size reallocates every buffer and restarts accumulation.
// Negative dimensions are treated as zero and each side is capped at MaxDimension.
func (r *Renderer) Resize(width, height int) {
	width = clampDimension(width)
	height = clampDimension(height)

	if r.accumulation != nil && width == r.width && height == r.height {
		return
	}

	n := width * height
	r.width = width
	r.height = height
	r.accumulation = make([]mgl64.Vec4, n)
	r.front = make([]uint32, n)
	r.back = make([]uint32, n)

	r.rowOrder = make([]int, height)
	for i := range r.rowOrder {
		r.rowOrder[i] = i
	}

	r.frameIndex = 1

	r.logger.Debug().Int("width", width).Int("height", height).Msg("Resized frame buffers")
}

// Size returns the current frame dimensions
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// FinalImage returns the most recently completed frame
func (r *Renderer) FinalImage() *Image {
	return &Image{Width: r.width, Height: r.height, Pix: r.front}
}

func (r *Renderer) swapBuffers() {
	r.front, r.back = r.back, r.front
}
