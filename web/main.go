package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/df07/go-accumulating-pathtracer/pkg/config"
	"github.com/df07/go-accumulating-pathtracer/web/server"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	sceneName := flag.String("scene", "", "Initial scene")
	flag.Parse()

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	bootLogger := zerolog.New(console).With().Timestamp().Logger()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			bootLogger.Fatal().Err(err).Msg("Failed to load config")
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *sceneName != "" {
		cfg.Scene = *sceneName
	}

	webServer, err := server.NewServer(cfg, console)
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("Failed to create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := webServer.Logger()
	logger.Info().Str("scene", cfg.Scene).Msgf("Visit http://localhost%s to watch the render", cfg.Server.Addr)

	if err := webServer.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("Server stopped")
		os.Exit(1)
	}
}
