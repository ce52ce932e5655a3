package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrInvalidMaterialIndex is returned when a sphere refers to a material that does not exist
	ErrInvalidMaterialIndex = errors.New("invalid material index")
	// ErrInvalidRadius is returned for negative or NaN sphere radii
	ErrInvalidRadius = errors.New("invalid sphere radius")
	// ErrInvalidSphereIndex is returned when editing a sphere that does not exist
	ErrInvalidSphereIndex = errors.New("invalid sphere index")
)

// MaterialIndex identifies a material within a Scene's material list
type MaterialIndex int

// Material describes surface properties
type Material struct {
	Albedo    mgl32.Vec3 `yaml:"albedo" json:"albedo"`       // Linear color, conventionally in [0,1]
	Roughness float32    `yaml:"roughness" json:"roughness"` // Perturbs the reflection direction, expected in [0,1]
	Metallic  float32    `yaml:"metallic" json:"metallic"`   // Reserved, not read by the shader
}

// Sphere is the only primitive the renderer understands
type Sphere struct {
	Position      mgl32.Vec3    `yaml:"position" json:"position"`
	Radius        float32       `yaml:"radius" json:"radius"`
	MaterialIndex MaterialIndex `yaml:"material" json:"material"`
}

// View is an optional starting camera pose stored with a scene
type View struct {
	Position mgl32.Vec3 `yaml:"position" json:"position"`
	Forward  mgl32.Vec3 `yaml:"forward" json:"forward"`
}

// IsZero reports whether no view was specified
func (v View) IsZero() bool {
	return v.Position == (mgl32.Vec3{}) && v.Forward == (mgl32.Vec3{})
}

// Scene contains all the elements needed for rendering.
// The renderer reads it and never mutates it; edits happen between frames.
type Scene struct {
	Name      string     `yaml:"name" json:"name"`
	Spheres   []Sphere   `yaml:"spheres" json:"spheres"`
	Materials []Material `yaml:"materials" json:"materials"`
	View      View       `yaml:"view,omitempty" json:"view"`
}

// New creates an empty scene
func New(name string) *Scene {
	return &Scene{Name: name}
}

// AddMaterial appends a material and returns its index
func (s *Scene) AddMaterial(m Material) MaterialIndex {
	s.Materials = append(s.Materials, m)
	return MaterialIndex(len(s.Materials) - 1)
}

// AddSphere appends a sphere after checking its radius and material index
func (s *Scene) AddSphere(sp Sphere) (int, error) {
	if err := s.checkSphere(sp); err != nil {
		return -1, err
	}
	s.Spheres = append(s.Spheres, sp)
	return len(s.Spheres) - 1, nil
}

// SetSphere replaces the sphere at index i
func (s *Scene) SetSphere(i int, sp Sphere) error {
	if i < 0 || i >= len(s.Spheres) {
		return fmt.Errorf("%w: %d (have %d spheres)", ErrInvalidSphereIndex, i, len(s.Spheres))
	}
	if err := s.checkSphere(sp); err != nil {
		return err
	}
	s.Spheres[i] = sp
	return nil
}

// SetMaterial replaces the material at index i
func (s *Scene) SetMaterial(i MaterialIndex, m Material) error {
	if !s.validMaterial(i) {
		return fmt.Errorf("%w: %d (have %d materials)", ErrInvalidMaterialIndex, i, len(s.Materials))
	}
	s.Materials[i] = m
	return nil
}

// MaterialOf returns the material of sphere i. The scene must have been validated.
func (s *Scene) MaterialOf(i int) *Material {
	return &s.Materials[s.Spheres[i].MaterialIndex]
}

// Validate checks every sphere against the scene invariants
func (s *Scene) Validate() error {
	for i, sp := range s.Spheres {
		if err := s.checkSphere(sp); err != nil {
			return fmt.Errorf("sphere %d: %w", i, err)
		}
	}
	return nil
}

func (s *Scene) checkSphere(sp Sphere) error {
	if math.IsNaN(float64(sp.Radius)) || sp.Radius < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRadius, sp.Radius)
	}
	if !s.validMaterial(sp.MaterialIndex) {
		return fmt.Errorf("%w: %d (have %d materials)", ErrInvalidMaterialIndex, sp.MaterialIndex, len(s.Materials))
	}
	return nil
}

func (s *Scene) validMaterial(i MaterialIndex) bool {
	return i >= 0 && int(i) < len(s.Materials)
}

// Clone returns a deep copy of the scene
func (s *Scene) Clone() *Scene {
	c := *s
	c.Spheres = append([]Sphere(nil), s.Spheres...)
	c.Materials = append([]Material(nil), s.Materials...)
	return &c
}
