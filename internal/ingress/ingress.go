// Package ingress exposes the modulation stage over a WebSocket endpoint.
//
// The upstream pipeline (the bridge between the language model and the
// speech-synthesis engine) connects once per voice session and streams JSON
// events: turn boundaries and text fragments. Each event is run through a
// per-connection [stage.Stage] and the resulting frame is written back on the
// same connection, so the caller sees its own text echoed with emotion markup
// prefixed onto exactly one fragment per turn.
package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/mirelle-ai/cadence/internal/observe"
	"github.com/mirelle-ai/cadence/internal/stage"
)

// Compile-time assertion that the handler can be mounted on a mux.
var _ http.Handler = (*Handler)(nil)

// Event types exchanged with the upstream pipeline.
const (
	eventTurnStarted = "turn_started"
	eventTurnEnded   = "turn_ended"
	eventText        = "text"
)

// event is the wire form of a [stage.Frame].
type event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Processor handles one session's frames. [stage.Stage] is the production
// implementation.
type Processor interface {
	Process(ctx context.Context, f stage.Frame) stage.Frame
	Close() error
}

// SessionFunc builds the per-connection processor. It is called once per
// accepted WebSocket connection.
type SessionFunc func() (Processor, error)

// Option is a functional option for configuring a [Handler].
type Option func(*Handler)

// WithLogger overrides the logger. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		h.log = log
	}
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// Handler accepts upstream pipeline connections and runs their frames through
// a fresh processor per connection. Create instances with [NewHandler].
type Handler struct {
	newSession SessionFunc
	log        *slog.Logger
	metrics    *observe.Metrics
}

// NewHandler creates a WebSocket ingress handler.
func NewHandler(newSession SessionFunc, opts ...Option) *Handler {
	h := &Handler{
		newSession: newSession,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	if h.metrics == nil {
		h.metrics = observe.DefaultMetrics()
	}
	return h
}

// ServeHTTP upgrades the request to a WebSocket connection and serves it
// until the peer disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	proc, err := h.newSession()
	if err != nil {
		h.log.Error("session setup failed", "remote", r.RemoteAddr, "error", err)
		conn.Close(websocket.StatusInternalError, "session setup failed")
		return
	}

	ctx := r.Context()
	h.metrics.ActiveSessions.Add(ctx, 1)
	h.log.Info("session started", "remote", r.RemoteAddr)

	err = h.serve(ctx, conn, proc)

	if cerr := proc.Close(); cerr != nil {
		h.log.Warn("session close", "error", cerr)
	}
	h.metrics.ActiveSessions.Add(context.WithoutCancel(ctx), -1)
	h.log.Info("session ended", "remote", r.RemoteAddr, "reason", closeReason(err))
}

// serve runs the read-process-write loop until the connection errors or the
// peer closes it.
func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, proc Processor) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			h.log.Warn("dropping non-text message", "type", typ)
			continue
		}

		var ev event
		if err := json.Unmarshal(data, &ev); err != nil {
			conn.Close(websocket.StatusInvalidFramePayloadData, "malformed event")
			return fmt.Errorf("ingress: malformed event: %w", err)
		}

		f, ok := decodeFrame(ev)
		if !ok {
			h.log.Warn("dropping unknown event type", "type", ev.Type)
			continue
		}

		out, ok := encodeFrame(proc.Process(ctx, f))
		if !ok {
			continue
		}
		payload, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("ingress: encode event: %w", err)
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			return err
		}
	}
}

// decodeFrame maps a wire event onto a [stage.Frame].
func decodeFrame(ev event) (stage.Frame, bool) {
	switch ev.Type {
	case eventTurnStarted:
		return stage.TurnStarted{}, true
	case eventTurnEnded:
		return stage.TurnEnded{}, true
	case eventText:
		return stage.Text{Content: ev.Content}, true
	default:
		return nil, false
	}
}

// encodeFrame maps a [stage.Frame] back onto its wire event.
func encodeFrame(f stage.Frame) (event, bool) {
	switch fr := f.(type) {
	case stage.TurnStarted:
		return event{Type: eventTurnStarted}, true
	case stage.TurnEnded:
		return event{Type: eventTurnEnded}, true
	case stage.Text:
		return event{Type: eventText, Content: fr.Content}, true
	default:
		return event{}, false
	}
}

// closeReason renders a read-loop exit error for the session-ended log line.
func closeReason(err error) string {
	if err == nil {
		return "done"
	}
	if status := websocket.CloseStatus(err); status != -1 {
		return status.String()
	}
	return err.Error()
}
