package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/df07/go-accumulating-pathtracer/pkg/config"
	"github.com/df07/go-accumulating-pathtracer/pkg/integrator"
	"github.com/df07/go-accumulating-pathtracer/pkg/renderer"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Server renders continuously and serves the latest frame, render settings
// and scene edits over HTTP, SSE and websockets
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger
	echo   *echo.Echo

	// mu serializes settings, resizes and scene edits against rendering
	mu       sync.Mutex
	scene    *scene.Scene
	camera   *renderer.Camera
	renderer *renderer.Renderer
	frame    *renderer.Image // copy of the latest finished frame
	stats    renderer.FrameStats

	events  *broker
	hub     *hub
	console chan ConsoleMessage
}

// NewServer creates a server for cfg. Logs go to logOutput and to the web console.
func NewServer(cfg *config.Config, logOutput io.Writer) (*Server, error) {
	sc, err := scene.Resolve(cfg.Scene)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		events:  newBroker(),
		console: make(chan ConsoleMessage, 100),
	}

	s.logger = zerolog.New(zerolog.MultiLevelWriter(logOutput, NewConsoleWriter(s.console))).
		Level(cfg.Level()).
		With().Timestamp().Logger()
	s.hub = newHub(s.logger)

	s.camera = renderer.NewCamera(cfg.Camera)
	s.renderer = renderer.NewRenderer(integrator.NewPathTracer(cfg.Integrator), s.logger)
	*s.renderer.Settings() = cfg.RendererSettings()
	s.setScene(sc)
	s.resize(cfg.Width, cfg.Height)

	s.echo = s.routes()
	return s, nil
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Static("/", "web/static")

	e.GET("/api/health", s.handleHealth)
	e.GET("/api/scenes", s.handleScenes)
	e.GET("/api/frame.png", s.handleFrame)
	e.GET("/api/stats", s.handleStats)
	e.GET("/api/settings", s.handleGetSettings)
	e.POST("/api/settings", s.handleSettings)
	e.POST("/api/reset", s.handleReset)
	e.POST("/api/resize", s.handleResize)
	e.POST("/api/camera", s.handleCamera)
	e.POST("/api/scene", s.handleLoadScene)
	e.POST("/api/scene/sphere/:index", s.handleSphere)
	e.POST("/api/scene/material/:index", s.handleMaterial)
	e.GET("/api/inspect", s.handleInspect)
	e.GET("/api/render", s.handleRender)
	e.GET("/ws", s.handleWS)
	return e
}

// Handler returns the HTTP handler for all routes
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Logger returns the server logger
func (s *Server) Logger() zerolog.Logger {
	return s.logger
}

// Start renders and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	go s.RunRenderLoop(ctx)
	go s.pumpConsole(ctx)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Server.Addr).Msg("HTTP server starting")
		errChan <- s.echo.Start(s.cfg.Server.Addr)
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.echo.Shutdown(shutdownCtx)

	s.mu.Lock()
	s.renderer.Close()
	s.mu.Unlock()
	return err
}

// maxFrameSide is the largest width or height a client may request
const maxFrameSide = 4096

// SettingsRequest changes render settings; nil fields are left alone
type SettingsRequest struct {
	Accumulate     *bool `json:"accumulate,omitempty"`
	Multithreading *bool `json:"multithreading,omitempty"`
	Workers        *int  `json:"workers,omitempty"`
}

// ResizeRequest changes the frame size
type ResizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CameraRequest is one tick of camera input
type CameraRequest struct {
	Forward float32    `json:"forward"`
	Right   float32    `json:"right"`
	Up      float32    `json:"up"`
	Mouse   [2]float32 `json:"mouse"`
	DeltaS  float32    `json:"dt"`
}

// LoadSceneRequest selects a built-in scene or scene file
type LoadSceneRequest struct {
	Name string `json:"name"`
}

// StateResponse reports the renderer state after a change
type StateResponse struct {
	Accumulate     bool   `json:"accumulate"`
	Multithreading bool   `json:"multithreading"`
	Workers        int    `json:"workers"`
	FrameIndex     int    `json:"frameIndex"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Scene          string `json:"scene"`
}

func errorJSON(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScenes(c echo.Context) error {
	response, err := scene.ListAllScenes(s.cfg.Server.ScenesDir)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleStats(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"stats":      s.stats,
		"renderMs":   s.stats.Milliseconds(),
		"frameIndex": s.renderer.FrameIndex(),
	})
}

func (s *Server) handleGetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.state())
}

func (s *Server) handleSettings(c echo.Context) error {
	var req SettingsRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	if err := s.applySettings(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, s.state())
}

func (s *Server) handleReset(c echo.Context) error {
	s.resetFrameIndex()
	return c.JSON(http.StatusOK, s.state())
}

func (s *Server) handleResize(c echo.Context) error {
	var req ResizeRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	if err := s.applyResize(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, s.state())
}

func (s *Server) handleCamera(c echo.Context) error {
	var req CameraRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	moved := s.moveCamera(req)
	return c.JSON(http.StatusOK, map[string]bool{"moved": moved})
}

func (s *Server) handleLoadScene(c echo.Context) error {
	var req LoadSceneRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	sc, err := scene.Resolve(req.Name)
	if err != nil {
		return errorJSON(c, http.StatusNotFound, err)
	}

	s.mu.Lock()
	s.setScene(sc)
	s.mu.Unlock()

	s.logger.Info().Str("scene", sc.Name).Int("spheres", len(sc.Spheres)).Msg("Scene loaded")
	return c.JSON(http.StatusOK, s.state())
}

func (s *Server) handleSphere(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid sphere index %q", c.Param("index")))
	}
	var sphere scene.Sphere
	if err := c.Bind(&sphere); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scene.SetSphere(index, sphere); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	s.renderer.ResetFrameIndex()
	return c.JSON(http.StatusOK, s.scene.Spheres[index])
}

func (s *Server) handleMaterial(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid material index %q", c.Param("index")))
	}
	var material scene.Material
	if err := c.Bind(&material); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scene.SetMaterial(scene.MaterialIndex(index), material); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	s.renderer.ResetFrameIndex()
	return c.JSON(http.StatusOK, s.scene.Materials[index])
}

// applySettings changes render toggles. Toggling accumulation does not reset
// the running sum; the frame index restarts after the next frame.
func (s *Server) applySettings(req SettingsRequest) error {
	if req.Workers != nil && *req.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", *req.Workers)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.renderer.Settings()
	if req.Accumulate != nil {
		settings.Accumulate = *req.Accumulate
	}
	if req.Multithreading != nil {
		settings.Multithreading = *req.Multithreading
	}
	if req.Workers != nil {
		settings.Workers = *req.Workers
	}

	s.logger.Info().
		Bool("accumulate", settings.Accumulate).
		Bool("multithreading", settings.Multithreading).
		Int("workers", settings.Workers).
		Msg("Settings changed")
	return nil
}

// validateResize checks a requested frame size before any buffer is touched
func validateResize(req ResizeRequest) error {
	if req.Width < 0 || req.Height < 0 || req.Width > maxFrameSide || req.Height > maxFrameSide {
		return fmt.Errorf("size %dx%d out of range, each side must be in [0, %d]", req.Width, req.Height, maxFrameSide)
	}
	return nil
}

// applyResize validates and applies a frame size change
func (s *Server) applyResize(req ResizeRequest) error {
	if err := validateResize(req); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resize(req.Width, req.Height)
	return nil
}

// resetFrameIndex restarts accumulation
func (s *Server) resetFrameIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer.ResetFrameIndex()
}

// moveCamera applies one input tick and restarts accumulation when the view changed
func (s *Server) moveCamera(req CameraRequest) bool {
	input := renderer.CameraInput{
		Look:    true,
		Forward: req.Forward,
		Right:   req.Right,
		Up:      req.Up,
	}
	input.MouseDelta[0], input.MouseDelta[1] = req.Mouse[0], req.Mouse[1]

	dt := req.DeltaS
	if dt <= 0 {
		dt = float32(s.cfg.Server.FrameIntervalMS) / 1000
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	moved := s.camera.Update(input, dt)
	if moved {
		s.renderer.ResetFrameIndex()
	}
	return moved
}

// setScene swaps the scene and moves the camera to its stored view. Caller holds mu.
func (s *Server) setScene(sc *scene.Scene) {
	s.scene = sc
	if !sc.View.IsZero() {
		s.camera.SetView(sc.View.Position, sc.View.Forward)
	}
	s.renderer.ResetFrameIndex()
}

// resize changes the frame size of the renderer and camera. Caller holds mu.
func (s *Server) resize(width, height int) {
	s.renderer.Resize(width, height)
	s.camera.Resize(width, height)
}

func (s *Server) state() StateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.renderer.Settings()
	width, height := s.renderer.Size()
	return StateResponse{
		Accumulate:     settings.Accumulate,
		Multithreading: settings.Multithreading,
		Workers:        settings.Workers,
		FrameIndex:     s.renderer.FrameIndex(),
		Width:          width,
		Height:         height,
		Scene:          s.scene.Name,
	}
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
