package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/df07/go-accumulating-pathtracer/pkg/renderer"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// StatsMessage is broadcast to websocket clients after every frame
type StatsMessage struct {
	Type      string              `json:"type"`
	Stats     renderer.FrameStats `json:"stats"`
	RenderMs  float64             `json:"renderMs"`
	Luminance float64             `json:"luminance"`
}

// ControlMessage is an inbound websocket command
type ControlMessage struct {
	Type     string           `json:"type"` // "settings", "reset", "resize", "camera"
	Settings *SettingsRequest `json:"settings,omitempty"`
	Resize   *ResizeRequest   `json:"resize,omitempty"`
	Camera   *CameraRequest   `json:"camera,omitempty"`
}

// ControlReply acknowledges a ControlMessage
type ControlReply struct {
	Type  string         `json:"type"`
	OK    bool           `json:"ok"`
	Error string         `json:"error,omitempty"`
	State *StateResponse `json:"state,omitempty"`
}

type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	logger  zerolog.Logger
}

func newHub(logger zerolog.Logger) *hub {
	return &hub{
		clients: map[*websocket.Conn]bool{},
		logger:  logger.With().Str("component", "ws").Logger(),
	}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast sends v to every client; writes happen under the hub lock
func (h *hub) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *hub) send(conn *websocket.Conn, v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return conn.WriteJSON(v)
}

// handleWS upgrades the connection, then applies control messages until the client leaves
func (s *Server) handleWS(c echo.Context) error {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)

	for {
		var msg ControlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return nil
		}
		reply := s.applyControl(msg)
		if err := s.hub.send(conn, reply); err != nil {
			return nil
		}
	}
}

// applyControl runs one control message against the renderer
func (s *Server) applyControl(msg ControlMessage) ControlReply {
	reply := ControlReply{Type: msg.Type, OK: true}

	var err error
	switch msg.Type {
	case "settings":
		if msg.Settings == nil {
			err = fmt.Errorf("settings message without settings")
			break
		}
		err = s.applySettings(*msg.Settings)
	case "reset":
		s.resetFrameIndex()
	case "resize":
		if msg.Resize == nil {
			err = fmt.Errorf("resize message without size")
			break
		}
		err = s.applyResize(*msg.Resize)
	case "camera":
		if msg.Camera == nil {
			err = fmt.Errorf("camera message without input")
			break
		}
		s.moveCamera(*msg.Camera)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}

	if err != nil {
		reply.OK = false
		reply.Error = err.Error()
		return reply
	}
	state := s.state()
	reply.State = &state
	return reply
}
