// Package cartesia provides a Cartesia-backed synthesis configuration
// provider using the Cartesia streaming WebSocket API. It implements the
// synth.Provider interface.
//
// Only the generation-config side channel is driven from here; the text
// itself (with inline markup) reaches Cartesia through the pipeline's
// synthesis leg, which is outside this process.
package cartesia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/mirelle-ai/cadence/pkg/provider/synth"
)

const (
	wsEndpointFmt  = "wss://api.cartesia.ai/tts/websocket?api_key=%s&cartesia_version=%s"
	defaultVersion = "2025-04-16"
	defaultModel   = "sonic-3"
)

// Option is a functional option for configuring the Cartesia Provider.
type Option func(*Provider)

// WithModel sets the Cartesia model ID (e.g., "sonic-3").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithAPIVersion overrides the Cartesia API version header.
func WithAPIVersion(version string) Option {
	return func(p *Provider) {
		p.version = version
	}
}

// WithHTTPClient overrides the HTTP client used for the WebSocket dial.
// Useful in tests to point the provider at a local server.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithEndpoint overrides the WebSocket endpoint. Useful in tests.
func WithEndpoint(url string) Option {
	return func(p *Provider) {
		p.endpoint = url
	}
}

// Provider implements synth.Provider backed by the Cartesia streaming API.
type Provider struct {
	apiKey     string
	voiceID    string
	model      string
	version    string
	endpoint   string
	httpClient *http.Client

	mu   sync.Mutex
	conn *websocket.Conn
}

// Compile-time check that *Provider satisfies [synth.Provider].
var _ synth.Provider = (*Provider)(nil)

// New creates a Cartesia Provider. apiKey and voiceID must be non-empty.
// The WebSocket session is dialled lazily on the first update.
func New(apiKey, voiceID string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("cartesia: apiKey must not be empty")
	}
	if voiceID == "" {
		return nil, errors.New("cartesia: voiceID must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		voiceID:    voiceID,
		model:      defaultModel,
		version:    defaultVersion,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	if p.endpoint == "" {
		p.endpoint = fmt.Sprintf(wsEndpointFmt, p.apiKey, p.version)
	}
	return p, nil
}

// updateMessage is the JSON payload pushed to Cartesia to change the
// persistent generation config of the session.
type updateMessage struct {
	Type             string                 `json:"type"`
	ModelID          string                 `json:"model_id"`
	VoiceID          string                 `json:"voice_id"`
	GenerationConfig synth.GenerationConfig `json:"generation_config"`
}

// UpdateGenerationConfig pushes cfg over the WebSocket session, dialling it
// first when necessary. A write failure drops the cached connection so the
// next update re-dials.
func (p *Provider) UpdateGenerationConfig(ctx context.Context, cfg synth.GenerationConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := p.connLocked(ctx)
	if err != nil {
		return fmt.Errorf("cartesia: dial: %w", err)
	}

	payload, err := json.Marshal(updateMessage{
		Type:             "update_generation_config",
		ModelID:          p.model,
		VoiceID:          p.voiceID,
		GenerationConfig: cfg,
	})
	if err != nil {
		return fmt.Errorf("cartesia: encode config: %w", err)
	}

	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		conn.Close(websocket.StatusInternalError, "write failed")
		p.conn = nil
		return fmt.Errorf("cartesia: send config: %w", err)
	}
	return nil
}

// connLocked returns the live connection, dialling one when absent.
// Must be called with p.mu held.
func (p *Provider) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if p.conn != nil {
		return p.conn, nil
	}
	conn, _, err := websocket.Dial(ctx, p.endpoint, &websocket.DialOptions{
		HTTPClient: p.httpClient,
	})
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

// Close shuts down the WebSocket session if one is open.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close(websocket.StatusNormalClosure, "done")
	p.conn = nil
	return err
}
