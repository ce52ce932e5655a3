package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-accumulating-pathtracer/pkg/integrator"
	"github.com/df07/go-accumulating-pathtracer/pkg/renderer"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ServerCfg configures the web presenter
type ServerCfg struct {
	Addr            string `yaml:"addr"`              // e.g. :8080
	FrameIntervalMS int    `yaml:"frame_interval_ms"` // minimum time between streamed frames
	ScenesDir       string `yaml:"scenes_dir"`
}

// Config holds every setting of the CLI, web server and viewer
type Config struct {
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	Frames         int    `yaml:"frames"` // frames rendered by the CLI
	Accumulate     bool   `yaml:"accumulate"`
	Multithreading bool   `yaml:"multithreading"`
	Workers        int    `yaml:"workers"` // 0 = logical CPU count
	Seed           uint64 `yaml:"seed"`
	Scene          string `yaml:"scene"`  // built-in name or path to a .yaml scene
	Output         string `yaml:"output"` // .png, .bmp or .tiff; empty = output/<scene>/render_<timestamp>.png
	LogLevel       string `yaml:"log_level"`

	Server     ServerCfg                   `yaml:"server"`
	Camera     renderer.CameraConfig       `yaml:"camera"`
	Integrator integrator.PathTracerConfig `yaml:"integrator"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Width:          400,
		Height:         300,
		Frames:         16,
		Accumulate:     true,
		Multithreading: true,
		Seed:           1,
		Scene:          "default",
		Output:         "",
		LogLevel:       "info",
		Server: ServerCfg{
			Addr:            ":8080",
			FrameIntervalMS: 50,
			ScenesDir:       "scenes",
		},
		Camera:     renderer.DefaultCameraConfig(),
		Integrator: integrator.DefaultPathTracerConfig(),
	}
}

// Load reads a YAML config on top of the defaults, so missing keys keep their default value
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path as YAML
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, b, 0644)
}

// Validate reports every problem with the config at once
func (c *Config) Validate() error {
	var errs []error
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, fmt.Errorf("image size %dx%d must not be negative", c.Width, c.Height))
	}
	if c.Frames < 1 {
		errs = append(errs, fmt.Errorf("frames must be at least 1, got %d", c.Frames))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Server.FrameIntervalMS < 1 {
		errs = append(errs, fmt.Errorf("server frame_interval_ms must be at least 1, got %d", c.Server.FrameIntervalMS))
	}
	if c.Integrator.Bounces < 0 {
		errs = append(errs, fmt.Errorf("integrator bounces must not be negative, got %d", c.Integrator.Bounces))
	}
	if c.Camera.VerticalFOV <= 0 || c.Camera.VerticalFOV >= 180 {
		errs = append(errs, fmt.Errorf("camera vertical_fov must be in (0, 180), got %v", c.Camera.VerticalFOV))
	}
	if c.Camera.NearClip <= 0 || c.Camera.FarClip <= c.Camera.NearClip {
		errs = append(errs, fmt.Errorf("camera clip range %v..%v is invalid", c.Camera.NearClip, c.Camera.FarClip))
	}
	if c.Output != "" {
		switch strings.ToLower(filepath.Ext(c.Output)) {
		case ".png", ".bmp", ".tif", ".tiff":
		default:
			errs = append(errs, fmt.Errorf("unsupported output format %q", filepath.Ext(c.Output)))
		}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// RendererSettings returns the render toggles described by the config
func (c *Config) RendererSettings() renderer.Settings {
	return renderer.Settings{
		Accumulate:     c.Accumulate,
		Multithreading: c.Multithreading,
		Workers:        c.Workers,
		Seed:           c.Seed,
	}
}

// Level returns the configured log level, falling back to info
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
