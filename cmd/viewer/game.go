package main

import (
	"fmt"
	"time"

	"github.com/df07/go-accumulating-pathtracer/pkg/renderer"
	"github.com/df07/go-accumulating-pathtracer/pkg/scene"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"
)

// Game presents the renderer's front buffer and drives the camera from keyboard and mouse
type Game struct {
	scene    *scene.Scene
	camera   *renderer.Camera
	renderer *renderer.Renderer
	scale    int
	logger   zerolog.Logger

	width, height int // logical screen size from Layout
	screen        *ebiten.Image
	last          time.Time

	looking    bool
	lastMouseX int
	lastMouseY int
	renderErr  error
	renderTime time.Duration
}

func (g *Game) Update() error {
	now := time.Now()
	ts := float32(now.Sub(g.last).Seconds())
	g.last = now

	g.handleToggles()

	if g.camera.Update(g.cameraInput(), ts) {
		g.renderer.ResetFrameIndex()
	}

	g.renderer.Resize(g.width, g.height)
	g.camera.Resize(g.width, g.height)

	start := time.Now()
	g.renderErr = g.renderer.Render(g.scene, g.camera)
	g.renderTime = time.Since(start)
	if g.renderErr != nil {
		g.logger.Error().Err(g.renderErr).Msg("Frame failed")
	}
	return nil
}

func (g *Game) handleToggles() {
	settings := g.renderer.Settings()
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		settings.Accumulate = !settings.Accumulate
		g.logger.Info().Bool("accumulate", settings.Accumulate).Msg("Accumulation toggled")
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		settings.Multithreading = !settings.Multithreading
		g.logger.Info().Bool("multithreading", settings.Multithreading).Msg("Multithreading toggled")
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.renderer.ResetFrameIndex()
	}
}

// cameraInput reads WASD/QE movement and right-mouse look
func (g *Game) cameraInput() renderer.CameraInput {
	x, y := ebiten.CursorPosition()
	var in renderer.CameraInput

	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		if g.looking {
			ebiten.SetCursorMode(ebiten.CursorModeVisible)
			g.looking = false
		}
		g.lastMouseX, g.lastMouseY = x, y
		return in
	}

	if !g.looking {
		ebiten.SetCursorMode(ebiten.CursorModeCaptured)
		g.looking = true
		g.lastMouseX, g.lastMouseY = x, y
	}

	in.Look = true
	in.MouseDelta[0] = float32(x - g.lastMouseX)
	in.MouseDelta[1] = float32(y - g.lastMouseY)
	g.lastMouseX, g.lastMouseY = x, y

	in.Forward = axis(ebiten.KeyW, ebiten.KeyS)
	in.Right = axis(ebiten.KeyD, ebiten.KeyA)
	in.Up = axis(ebiten.KeyE, ebiten.KeyQ)
	return in
}

func axis(positive, negative ebiten.Key) float32 {
	var v float32
	if ebiten.IsKeyPressed(positive) {
		v++
	}
	if ebiten.IsKeyPressed(negative) {
		v--
	}
	return v
}

func (g *Game) Draw(screen *ebiten.Image) {
	img := g.renderer.FinalImage()
	if img.Width > 0 && img.Height > 0 && len(img.Pix) == img.Width*img.Height {
		if g.screen == nil || g.screen.Bounds().Dx() != img.Width || g.screen.Bounds().Dy() != img.Height {
			if g.screen != nil {
				g.screen.Dispose()
			}
			g.screen = ebiten.NewImage(img.Width, img.Height)
		}
		g.screen.WritePixels(img.RGBA(true).Pix)
		screen.DrawImage(g.screen, nil)
	}

	settings := g.renderer.Settings()
	msg := fmt.Sprintf("Render time: %.3fms\nFrame: %d\nAccumulate [Space]: %v\nMultithreading [M]: %v",
		float64(g.renderTime)/float64(time.Millisecond),
		g.renderer.FrameIndex(),
		settings.Accumulate,
		settings.Multithreading,
	)
	if g.renderErr != nil {
		msg += "\nError: " + g.renderErr.Error()
	}
	ebitenutil.DebugPrint(screen, msg)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width = max(1, outsideWidth/g.scale)
	g.height = max(1, outsideHeight/g.scale)
	return g.width, g.height
}
