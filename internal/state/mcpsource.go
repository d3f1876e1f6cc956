package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mirelle-ai/cadence/internal/emotion"
	"github.com/mirelle-ai/cadence/internal/mcp"
	"github.com/mirelle-ai/cadence/internal/resilience"
)

// DefaultTool is the MCP tool that returns the persona's emotional snapshot.
const DefaultTool = "get_emotional_state"

// ToolCaller is the slice of [mcp.Host] the source needs.
type ToolCaller interface {
	ExecuteTool(ctx context.Context, name string, args string) (*mcp.ToolResult, error)
}

// MCPOption is a functional option for configuring an [MCPSource].
type MCPOption func(*MCPSource)

// WithTool overrides the tool name called to fetch the snapshot.
func WithTool(name string) MCPOption {
	return func(s *MCPSource) {
		s.tool = name
	}
}

// WithLogger overrides the logger. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) MCPOption {
	return func(s *MCPSource) {
		s.log = log
	}
}

// WithBreaker overrides the circuit breaker guarding the tool call.
func WithBreaker(cb *resilience.CircuitBreaker) MCPOption {
	return func(s *MCPSource) {
		s.breaker = cb
	}
}

// MCPSource implements [EmotionSource] by calling an MCP tool on the state
// server. Calls are guarded by a circuit breaker so that a dead server costs
// one failed call per reset window instead of one per turn.
type MCPSource struct {
	host    ToolCaller
	tool    string
	breaker *resilience.CircuitBreaker
	log     *slog.Logger
}

// Compile-time check that *MCPSource satisfies [EmotionSource].
var _ EmotionSource = (*MCPSource)(nil)

// NewMCPSource creates an MCPSource reading from host.
func NewMCPSource(host ToolCaller, opts ...MCPOption) *MCPSource {
	s := &MCPSource{
		host: host,
		tool: DefaultTool,
		log:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.breaker == nil {
		s.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name: "emotion-state",
		})
	}
	return s
}

// Fetch implements [EmotionSource]. Transport failures, tool-level errors,
// and an open breaker all surface as errors; a payload that arrives but does
// not parse degrades to a neutral snapshot instead, since the server is alive
// and the turn should still speak.
func (s *MCPSource) Fetch(ctx context.Context) (emotion.Snapshot, error) {
	var result *mcp.ToolResult
	err := s.breaker.Execute(func() error {
		var execErr error
		result, execErr = s.host.ExecuteTool(ctx, s.tool, "{}")
		if execErr != nil {
			return execErr
		}
		if result.IsError {
			return fmt.Errorf("tool error: %s", result.Content)
		}
		return nil
	})
	if err != nil {
		return emotion.Snapshot{}, fmt.Errorf("state: fetch %s: %w", s.tool, err)
	}

	snap, err := parseSnapshot(result.Content)
	if err != nil {
		s.log.Warn("unparseable emotional state, degrading to neutral",
			"tool", s.tool,
			"error", err)
		return emotion.NeutralSnapshot(), nil
	}
	return snap, nil
}

// contentEnvelope matches an MCP-style result that wraps the payload in a
// content array of text blocks.
type contentEnvelope struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// parseSnapshot decodes payload as an emotional snapshot. It accepts either
// the snapshot JSON directly or an MCP content envelope whose text blocks
// hold the snapshot JSON.
func parseSnapshot(payload string) (emotion.Snapshot, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return emotion.Snapshot{}, fmt.Errorf("empty payload")
	}

	if snap, ok := decodeSnapshot(payload); ok {
		return snap, nil
	}

	var env contentEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err == nil && len(env.Content) > 0 {
		var sb strings.Builder
		for _, c := range env.Content {
			if c.Type == "" || c.Type == "text" {
				sb.WriteString(c.Text)
			}
		}
		if snap, ok := decodeSnapshot(sb.String()); ok {
			return snap, nil
		}
	}

	return emotion.Snapshot{}, fmt.Errorf("not an emotional snapshot: %q", payload)
}

// decodeSnapshot decodes payload as snapshot JSON. Snapshot-ness is judged
// by the keys present, not by the number of readings: an empty emotions
// list is a valid snapshot and its body_state must survive, so speed and
// volume can still be derived for an emotionally flat turn.
func decodeSnapshot(payload string) (emotion.Snapshot, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return emotion.Snapshot{}, false
	}
	_, hasEmotions := fields["emotions"]
	_, hasBody := fields["body_state"]
	if !hasEmotions && !hasBody {
		return emotion.Snapshot{}, false
	}

	var snap emotion.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return emotion.Snapshot{}, false
	}
	return snap, true
}
