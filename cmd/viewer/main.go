package main

import (
	"flag"
	"os"
	"time"

	"github.com/df07/go-accumulating-pathtracer/pkg/config"
	"github.com/df07/go-accumulating-pathtracer/pkg/integrator"
	"github.com/df07/go-accumulating-pathtracer/pkg/renderer"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	sceneName := flag.String("scene", "", "Built-in scene name or path to a .yaml scene")
	scale := flag.Int("scale", 1, "Window pixels per rendered pixel")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Fatal().Err(err).Msg("Failed to load config")
		}
	}
	if *sceneName != "" {
		cfg.Scene = *sceneName
	}
	if *scale < 1 {
		*scale = 1
	}
	logger = logger.Level(cfg.Level())

	sc, err := scene.Resolve(cfg.Scene)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load scene")
	}

	camera := renderer.NewCamera(cfg.Camera)
	if !sc.View.IsZero() {
		camera.SetView(sc.View.Position, sc.View.Forward)
	}

	r := renderer.NewRenderer(integrator.NewPathTracer(cfg.Integrator), logger)
	*r.Settings() = cfg.RendererSettings()
	defer r.Close()

	game := &Game{
		scene:    sc,
		camera:   camera,
		renderer: r,
		scale:    *scale,
		logger:   logger,
		last:     time.Now(),
	}

	ebiten.SetWindowSize(cfg.Width**scale, cfg.Height**scale)
	ebiten.SetWindowTitle("Accumulating Path Tracer - " + sc.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	logger.Info().Str("scene", sc.Name).Msg("Viewer starting")
	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal().Err(err).Msg("Viewer stopped")
	}
}
