package scene

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

var builtins = map[string]func() *Scene{
	"default":     NewDefaultScene,
	"sphere-grid": NewSphereGridScene,
	"roughness":   NewRoughnessScene,
}

// BuiltinNames returns the names of all built-in scenes, sorted
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin creates the named built-in scene
func Builtin(name string) (*Scene, error) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown built-in scene %q", name)
	}
	return ctor(), nil
}

// NewDefaultScene creates a pink sphere resting on a large blue ground sphere
func NewDefaultScene() *Scene {
	s := New("default")

	pink := s.AddMaterial(Material{Albedo: mgl32.Vec3{1, 0, 1}, Roughness: 0})
	blue := s.AddMaterial(Material{Albedo: mgl32.Vec3{0.2, 0.3, 1}, Roughness: 0.1})

	s.mustAdd(Sphere{Position: mgl32.Vec3{0, 0, 0}, Radius: 1, MaterialIndex: pink})
	s.mustAdd(Sphere{Position: mgl32.Vec3{0, -101, 0}, Radius: 100, MaterialIndex: blue})

	s.View = View{Position: mgl32.Vec3{0, 0, 6}, Forward: mgl32.Vec3{0, 0, -1}}
	return s
}

// NewRoughnessScene creates a row of grey spheres whose roughness increases left to right
func NewRoughnessScene() *Scene {
	s := New("roughness")

	ground := s.AddMaterial(Material{Albedo: mgl32.Vec3{0.4, 0.4, 0.45}, Roughness: 0.05})
	s.mustAdd(Sphere{Position: mgl32.Vec3{0, -1001, 0}, Radius: 1000, MaterialIndex: ground})

	const count = 5
	for i := 0; i < count; i++ {
		roughness := float32(i) / float32(count-1)
		m := s.AddMaterial(Material{Albedo: mgl32.Vec3{0.8, 0.8, 0.8}, Roughness: roughness})
		x := (float32(i) - float32(count-1)/2) * 2.2
		s.mustAdd(Sphere{Position: mgl32.Vec3{x, 0, 0}, Radius: 1, MaterialIndex: m})
	}

	s.View = View{Position: mgl32.Vec3{0, 1, 10}, Forward: mgl32.Vec3{0, -0.1, -1}}
	return s
}

// NewSphereGridScene creates a grid of spheres colored by OKLCH hue and chroma
func NewSphereGridScene() *Scene {
	s := New("sphere-grid")

	ground := s.AddMaterial(Material{Albedo: mgl32.Vec3{0.5, 0.5, 0.5}, Roughness: 0.3})
	s.mustAdd(Sphere{Position: mgl32.Vec3{0, -1000, 0}, Radius: 1000, MaterialIndex: ground})

	const gridSize = 8
	const targetArea = 9.0
	spacing := float32(targetArea / (gridSize - 1))
	radius := spacing * 0.35

	// OKLCH parameters for color variation
	const lightness = 0.65
	const minChroma, maxChroma = 0.05, 0.25

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			hue := float64(i) / float64(gridSize-1) * 360.0
			chroma := minChroma + float64(j)/float64(gridSize-1)*(maxChroma-minChroma)

			m := s.AddMaterial(Material{
				Albedo:    oklchToRGB(lightness, chroma, hue),
				Roughness: float32(j) / float32(gridSize-1) * 0.5,
				Metallic:  1,
			})

			x := float32(i)*spacing - targetArea/2
			z := float32(j)*spacing - targetArea/2
			s.mustAdd(Sphere{Position: mgl32.Vec3{x, radius, z}, Radius: radius, MaterialIndex: m})
		}
	}

	s.View = View{Position: mgl32.Vec3{0, 6, 14}, Forward: mgl32.Vec3{0, -0.45, -1}}
	return s
}

func (s *Scene) mustAdd(sp Sphere) {
	if _, err := s.AddSphere(sp); err != nil {
		panic(err)
	}
}

// oklchToRGB converts OKLCH color values to linear RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) mgl32.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return mgl32.Vec3{
		float32(math.Max(0, math.Min(1, r))),
		float32(math.Max(0, math.Min(1, g))),
		float32(math.Max(0, math.Min(1, blue))),
	}
}
