package events

import (
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
)

// wireEvent is the JSON frame shape sent to WebSocket viewers.
type wireEvent struct {
	Kind        string         `json:"kind"`
	Text        string         `json:"text,omitempty"`
	ToolName    string         `json:"tool_name,omitempty"`
	ToolID      string         `json:"tool_id,omitempty"`
	ToolArgs    map[string]any `json:"tool_args,omitempty"`
	ToolResult  string         `json:"tool_result,omitempty"`
	ToolIsError bool           `json:"tool_is_error,omitempty"`
	DurationMS  int64          `json:"duration_ms,omitempty"`
	Done        bool           `json:"done,omitempty"`
}

// WebSocketBridge forwards every bus event to a single connected viewer
// as a JSON frame. It is the minimal "WebSocket bridge" consumer named
// in spec.md §4.8 — no auth, no UI, just a pass-through of the event
// stream for an external front-end to render.
type WebSocketBridge struct {
	conn *websocket.Conn
}

// NewWebSocketBridge wraps an already-upgraded connection.
func NewWebSocketBridge(conn *websocket.Conn) *WebSocketBridge {
	return &WebSocketBridge{conn: conn}
}

// Run drains sub until its channel closes or the write fails, writing
// one JSON text frame per event.
func (b *WebSocketBridge) Run(sub *Subscription) {
	defer b.conn.Close()
	for ev := range sub.Events() {
		frame := wireEvent{
			Kind:        string(ev.Kind),
			Text:        ev.Text,
			ToolName:    ev.ToolName,
			ToolID:      ev.ToolID,
			ToolArgs:    ev.ToolArgs,
			ToolResult:  ev.ToolResult,
			ToolIsError: ev.ToolIsError,
			DurationMS:  ev.Duration.Milliseconds(),
			Done:        ev.ProgressDone,
		}
		payload, err := json.Marshal(frame)
		if err != nil {
			slog.Warn("websocket bridge: failed to marshal event", "error", err)
			continue
		}
		if err := b.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Debug("websocket bridge: write failed, closing", "error", err)
			return
		}
	}
}
