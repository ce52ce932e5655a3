package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-accumulating-pathtracer/pkg/loaders"
	"github.com/rs/zerolog"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, width, height, frames int, sceneName string, multithreading bool)
	}{
		{
			name: "defaults",
			args: nil,
			check: func(t *testing.T, width, height, frames int, sceneName string, multithreading bool) {
				if width != 400 || height != 300 || frames != 16 || sceneName != "default" || !multithreading {
					t.Errorf("Unexpected defaults: %dx%d frames=%d scene=%s mt=%t", width, height, frames, sceneName, multithreading)
				}
			},
		},
		{
			name: "overrides",
			args: []string{"-width", "32", "-height", "16", "-frames", "3", "-scene", "roughness", "-multithreading=false"},
			check: func(t *testing.T, width, height, frames int, sceneName string, multithreading bool) {
				if width != 32 || height != 16 || frames != 3 || sceneName != "roughness" || multithreading {
					t.Errorf("Flags not applied: %dx%d frames=%d scene=%s mt=%t", width, height, frames, sceneName, multithreading)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, list, err := parseFlags(tt.args, io.Discard)
			if err != nil {
				t.Fatalf("parseFlags() error: %v", err)
			}
			if list {
				t.Error("Expected list-scenes to be off")
			}
			tt.check(t, cfg.Width, cfg.Height, cfg.Frames, cfg.Scene, cfg.Multithreading)
		})
	}
}

func TestParseFlagsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("width: 50\nheight: 40\nscene: sphere-grid\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// Flags win over the file, the file wins over defaults
	cfg, _, err := parseFlags([]string{"-config", path, "-height", "20"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 20 || cfg.Scene != "sphere-grid" {
		t.Errorf("Unexpected config: %dx%d scene=%s", cfg.Width, cfg.Height, cfg.Scene)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad output format", []string{"-output", "render.jpg"}},
		{"zero frames", []string{"-frames", "0"}},
		{"missing config", []string{"-config", "does-not-exist.yaml"}},
		{"unknown flag", []string{"-bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseFlags(tt.args, io.Discard); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	var buf bytes.Buffer
	_, _, err := parseFlags([]string{"-help"}, &buf)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("Expected flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(buf.String(), "Built-in scenes") {
		t.Errorf("Expected usage to list scenes, got %q", buf.String())
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		scene   string
		output  string
		workers int
	}{
		{"default png", "default", "render.png", 2},
		{"grid bmp", "sphere-grid", "render.bmp", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.output)
			cfg, _, err := parseFlags([]string{
				"-scene", tt.scene, "-width", "24", "-height", "16", "-frames", "2", "-output", path,
			}, io.Discard)
			if err != nil {
				t.Fatal(err)
			}
			cfg.Workers = tt.workers

			filename, err := run(cfg, zerolog.Nop())
			if err != nil {
				t.Fatalf("run() error: %v", err)
			}
			if filename != path {
				t.Errorf("Expected %s, got %s", path, filename)
			}

			img, _, err := loaders.LoadImage(path)
			if err != nil {
				t.Fatalf("LoadImage() error: %v", err)
			}
			if img.Bounds().Dx() != 24 || img.Bounds().Dy() != 16 {
				t.Errorf("Expected 24x16 image, got %v", img.Bounds())
			}
		})
	}
}

func TestRunUnknownScene(t *testing.T) {
	cfg, _, err := parseFlags([]string{"-scene", "nonexistent", "-output", filepath.Join(t.TempDir(), "x.png")}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := run(cfg, zerolog.Nop()); err == nil {
		t.Error("Expected error for unknown scene")
	}
}

func TestPrintScenes(t *testing.T) {
	var buf bytes.Buffer
	printScenes(&buf, t.TempDir())

	out := buf.String()
	for _, name := range []string{"Built-in Scenes:", "default", "roughness", "sphere-grid"} {
		if !strings.Contains(out, name) {
			t.Errorf("Expected %q in output:\n%s", name, out)
		}
	}
}
