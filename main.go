package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-accumulating-pathtracer/pkg/config"
	"github.com/df07/go-accumulating-pathtracer/pkg/integrator"
	"github.com/df07/go-accumulating-pathtracer/pkg/loaders"
	"github.com/df07/go-accumulating-pathtracer/pkg/renderer"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func main() {
	cfg, listScenes, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger = logger.Level(cfg.Level())

	if listScenes {
		printScenes(os.Stdout, cfg.Server.ScenesDir)
		return
	}

	logSystemInfo(logger)

	filename, err := run(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Render failed")
	}
	logger.Info().Str("file", filename).Msg("Render saved")
}

// parseFlags loads the config file, then applies any flags given explicitly on top of it
func parseFlags(args []string, output io.Writer) (*config.Config, bool, error) {
	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(output)

	configPath := fs.String("config", "", "Path to a YAML config file")
	sceneName := fs.String("scene", "", "Built-in scene name or path to a .yaml scene")
	width := fs.Int("width", 0, "Image width in pixels")
	height := fs.Int("height", 0, "Image height in pixels")
	frames := fs.Int("frames", 0, "Number of frames to accumulate")
	outputPath := fs.String("output", "", "Output file (.png, .bmp or .tiff)")
	accumulate := fs.Bool("accumulate", true, "Average successive frames")
	multithreading := fs.Bool("multithreading", true, "Render rows in parallel")
	workers := fs.Int("workers", 0, "Number of parallel workers (0 = logical CPU count)")
	seed := fs.Uint64("seed", 0, "Seed for roughness jitter")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	list := fs.Bool("list-scenes", false, "List available scenes and exit")

	fs.Usage = func() {
		fmt.Fprintln(output, "Accumulating Path Tracer")
		fmt.Fprintln(output, "Usage: pathtracer [options]")
		fmt.Fprintln(output)
		fmt.Fprintln(output, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(output)
		fmt.Fprintln(output, "Built-in scenes: "+strings.Join(scene.BuiltinNames(), ", "))
		fmt.Fprintln(output, "Without -output the image is saved to output/<scene>/render_<timestamp>.png")
	}

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, false, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Scene = *sceneName
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "frames":
			cfg.Frames = *frames
		case "output":
			cfg.Output = *outputPath
		case "accumulate":
			cfg.Accumulate = *accumulate
		case "multithreading":
			cfg.Multithreading = *multithreading
		case "workers":
			cfg.Workers = *workers
		case "seed":
			cfg.Seed = *seed
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return cfg, *list, nil
}

// run renders cfg.Frames frames of the configured scene and saves the result
func run(cfg *config.Config, logger zerolog.Logger) (string, error) {
	sc, err := scene.Resolve(cfg.Scene)
	if err != nil {
		return "", fmt.Errorf("failed to load scene: %w", err)
	}

	camera := renderer.NewCamera(cfg.Camera)
	if !sc.View.IsZero() {
		camera.SetView(sc.View.Position, sc.View.Forward)
	}
	camera.Resize(cfg.Width, cfg.Height)

	r := renderer.NewRenderer(integrator.NewPathTracer(cfg.Integrator), logger)
	defer r.Close()
	*r.Settings() = cfg.RendererSettings()
	r.Resize(cfg.Width, cfg.Height)

	logger.Info().
		Str("scene", sc.Name).
		Int("spheres", len(sc.Spheres)).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Int("frames", cfg.Frames).
		Bool("multithreading", cfg.Multithreading).
		Msg("Starting render")

	start := time.Now()
	for i := 0; i < cfg.Frames; i++ {
		if err := r.Render(sc, camera); err != nil {
			return "", err
		}
		stats := r.LastStats()
		logger.Debug().
			Int("frame", stats.FrameIndex).
			Float64("ms", stats.Milliseconds()).
			Msg("Frame complete")
	}

	img := r.FinalImage()
	logger.Info().
		Dur("elapsed", time.Since(start)).
		Float64("avg_luminance", renderer.AverageLuminance(img)).
		Msg("Render complete")

	filename := cfg.Output
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join("output", sc.Name, fmt.Sprintf("render_%s.png", timestamp))
	}

	if err := loaders.SaveImage(filename, img.RGBA(true)); err != nil {
		return "", err
	}
	return filename, nil
}

// printScenes writes the built-in and discovered scene files grouped by category
func printScenes(w io.Writer, dir string) {
	response, err := scene.ListAllScenes(dir)
	if err != nil {
		fmt.Fprintf(w, "Error listing scenes: %v\n", err)
		return
	}
	for _, group := range response.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			id := info.ID
			if info.Type == "file" {
				id = info.FilePath
			}
			fmt.Fprintf(w, "  %-28s %s\n", id, info.Description)
		}
	}
}

// logSystemInfo logs the CPU model and memory size of the host
func logSystemInfo(logger zerolog.Logger) {
	event := logger.Info()

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		event = event.Str("cpu", infos[0].ModelName).Float64("ghz", infos[0].Mhz/1000)
	}
	if cores, err := cpu.Counts(true); err == nil {
		event = event.Int("logical_cores", cores)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		event = event.Uint64("ram_gb", vm.Total/(1024*1024*1024))
	}

	event.Msg("System info")
}
