package server

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warn", "error"
}

// ConsoleWriter is a zerolog output that forwards log lines to the web console.
// It never blocks; lines are dropped when the channel is full.
type ConsoleWriter struct {
	consoleChan chan<- ConsoleMessage
}

// NewConsoleWriter creates a writer that sends to consoleChan
func NewConsoleWriter(consoleChan chan<- ConsoleMessage) *ConsoleWriter {
	return &ConsoleWriter{consoleChan: consoleChan}
}

// Write implements io.Writer for one JSON-encoded zerolog event
func (cw *ConsoleWriter) Write(p []byte) (int, error) {
	if cw.consoleChan == nil {
		return len(p), nil
	}

	msg := ConsoleMessage{Timestamp: time.Now(), Level: "info"}

	var event map[string]any
	if err := json.Unmarshal(p, &event); err != nil {
		msg.Message = strings.TrimSpace(string(p))
	} else {
		msg.Message = formatEvent(event)
		if level, ok := event["level"].(string); ok {
			msg.Level = level
		}
	}

	select {
	case cw.consoleChan <- msg:
	default:
		// Channel full, skip (don't block)
	}
	return len(p), nil
}

// formatEvent renders the message followed by its fields as key=value pairs
func formatEvent(event map[string]any) string {
	var b strings.Builder
	if m, ok := event["message"].(string); ok {
		b.WriteString(m)
	}

	keys := make([]string, 0, len(event))
	for k := range event {
		switch k {
		case "message", "level", "time":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, _ := json.Marshal(event[k])
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(v)
	}
	return b.String()
}
