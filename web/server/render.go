package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-accumulating-pathtracer/pkg/loaders"
	"github.com/df07/go-accumulating-pathtracer/pkg/renderer"
	"github.com/labstack/echo/v4"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string
	Data string
}

// FrameUpdate is sent to SSE clients after every rendered frame
type FrameUpdate struct {
	FrameIndex int                 `json:"frameIndex"`
	ImageData  string              `json:"imageData"` // base64 encoded PNG
	Stats      renderer.FrameStats `json:"stats"`
	RenderMs   float64             `json:"renderMs"`
	Luminance  float64             `json:"luminance"`
}

// broker fans events out to SSE subscribers
type broker struct {
	mu          sync.Mutex
	subscribers map[chan SSEEvent]struct{}
}

func newBroker() *broker {
	return &broker{subscribers: make(map[chan SSEEvent]struct{})}
}

func (b *broker) subscribe() chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *broker) unsubscribe(ch chan SSEEvent) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	b.mu.Unlock()
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// publish delivers event to every subscriber that has room; slow clients miss frames
func (b *broker) publish(event SSEEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// RunRenderLoop renders a frame every FrameIntervalMS until ctx is cancelled
func (s *Server) RunRenderLoop(ctx context.Context) {
	interval := time.Duration(s.cfg.Server.FrameIntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", interval).Msg("Render loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Render loop stopped")
			return
		case <-ticker.C:
			if err := s.renderFrame(); err != nil {
				s.logger.Error().Err(err).Msg("Frame failed")
				continue
			}
			s.broadcastFrame()
		}
	}
}

// renderFrame renders one frame and keeps a copy of the result
func (s *Server) renderFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.renderer.Render(s.scene, s.camera); err != nil {
		return err
	}

	img := s.renderer.FinalImage()
	if s.frame == nil || len(s.frame.Pix) != len(img.Pix) {
		s.frame = &renderer.Image{Pix: make([]uint32, len(img.Pix))}
	}
	s.frame.Width, s.frame.Height = img.Width, img.Height
	copy(s.frame.Pix, img.Pix)
	s.stats = s.renderer.LastStats()
	return nil
}

// latestFrame returns an upright copy of the most recent frame, or nil before the first one
func (s *Server) latestFrame() (*image.RGBA, renderer.FrameStats, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frame == nil || len(s.frame.Pix) == 0 {
		return nil, s.stats, 0
	}
	return s.frame.RGBA(true), s.stats, renderer.AverageLuminance(s.frame)
}

// broadcastFrame pushes the latest frame to SSE and websocket clients
func (s *Server) broadcastFrame() {
	hasSSE := s.events.count() > 0
	hasWS := s.hub.count() > 0
	if !hasSSE && !hasWS {
		return
	}

	img, stats, luminance := s.latestFrame()
	if img == nil {
		return
	}

	if hasWS {
		s.hub.broadcast(StatsMessage{Type: "stats", Stats: stats, RenderMs: stats.Milliseconds(), Luminance: luminance})
	}
	if !hasSSE {
		return
	}

	encoded, err := imageToBase64PNG(img)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode frame")
		return
	}
	data, err := json.Marshal(FrameUpdate{
		FrameIndex: stats.FrameIndex,
		ImageData:  encoded,
		Stats:      stats,
		RenderMs:   stats.Milliseconds(),
		Luminance:  luminance,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal frame update")
		return
	}
	s.events.publish(SSEEvent{Type: "frame", Data: string(data)})
}

// pumpConsole forwards log lines to SSE clients as console events
func (s *Server) pumpConsole(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.console:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			s.events.publish(SSEEvent{Type: "console", Data: string(data)})
		}
	}
}

// handleRender streams frame and console events via SSE until the client disconnects
func (s *Server) handleRender(c echo.Context) error {
	w := c.Response()
	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	events := s.events.subscribe()
	defer s.events.unsubscribe(events)

	s.writeSSEEvents(c.Request().Context(), w, events)
	return nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// writeSSEEvents writes events from a single goroutine until ctx is done
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, events <-chan SSEEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				s.logger.Debug().Err(err).Msg("SSE client gone")
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// handleFrame serves the latest frame as PNG, optionally scaled up by an integer factor
func (s *Server) handleFrame(c echo.Context) error {
	scale, err := parseIntParam(c.QueryParams(), "scale", 1, 1, 8)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	img, _, _ := s.latestFrame()
	if img == nil {
		return errorJSON(c, http.StatusServiceUnavailable, fmt.Errorf("no frame rendered yet"))
	}

	var buf bytes.Buffer
	if err := loaders.Encode(&buf, loaders.Scale(img, scale), loaders.FormatPNG); err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// imageToBase64PNG converts an image to a base64-encoded PNG string
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := loaders.Encode(&buf, img, loaders.FormatPNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
