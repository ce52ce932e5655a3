package server

import (
	"fmt"
	"net/http"

	"github.com/df07/go-accumulating-pathtracer/pkg/core"
	"github.com/df07/go-accumulating-pathtracer/pkg/geometry"
	"github.com/labstack/echo/v4"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit         bool       `json:"hit"`
	ObjectIndex int        `json:"objectIndex"`
	Point       [3]float32 `json:"point"`
	Normal      [3]float32 `json:"normal"`
	Distance    float32    `json:"distance"`
	Radius      float32    `json:"radius,omitempty"`
	Material    int        `json:"material"`
	Albedo      [3]float32 `json:"albedo"`
	Color       string     `json:"color,omitempty"`
	Roughness   float32    `json:"roughness"`
	Metallic    float32    `json:"metallic"`
	Pixel       [4]float32 `json:"pixel"` // Single unjittered sample of the shaded color
}

// handleInspect reports which sphere is under pixel (x, y), with y counted from the top of the image
func (s *Server) handleInspect(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	width, height := s.renderer.Size()
	if width == 0 || height == 0 {
		return errorJSON(c, http.StatusServiceUnavailable, fmt.Errorf("renderer has no frame buffers"))
	}

	query := c.QueryParams()
	x, err := parseIntParam(query, "x", 0, 0, width-1)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	y, err := parseIntParam(query, "y", 0, 0, height-1)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	// Buffer row 0 is the bottom of the view
	row := height - 1 - y
	ray := core.NewRay(s.camera.Position(), s.camera.RayDirections()[x+row*width])
	hit := geometry.TraceRay(s.scene, ray)

	color := s.renderer.RenderPixel(s.scene, s.camera, x, row, core.ZeroSampler{})
	response := InspectResponse{
		Hit:         hit.IsHit(),
		ObjectIndex: hit.ObjectIndex,
		Distance:    hit.HitDistance,
		Pixel:       color,
	}
	if !hit.IsHit() {
		return c.JSON(http.StatusOK, response)
	}

	sphere := s.scene.Spheres[hit.ObjectIndex]
	material := s.scene.MaterialOf(hit.ObjectIndex)
	response.Point = hit.WorldPosition
	response.Normal = hit.WorldNormal
	response.Radius = sphere.Radius
	response.Material = int(sphere.MaterialIndex)
	response.Albedo = material.Albedo
	albedo := core.Clamp01(material.Albedo.Vec4(1))
	response.Color = fmt.Sprintf("#%02x%02x%02x",
		int(albedo[0]*255), int(albedo[1]*255), int(albedo[2]*255))
	response.Roughness = material.Roughness
	response.Metallic = material.Metallic
	return c.JSON(http.StatusOK, response)
}
