// Package mock provides an in-memory synth.Provider test double.
package mock

import (
	"context"
	"sync"

	"github.com/mirelle-ai/cadence/pkg/provider/synth"
)

// Provider records every generation-config update it receives. The zero
// value is ready to use. Safe for concurrent use.
type Provider struct {
	mu      sync.Mutex
	updates []synth.GenerationConfig

	// Err, when non-nil, is returned by every UpdateGenerationConfig call.
	Err error
}

// Compile-time check that *Provider satisfies [synth.Provider].
var _ synth.Provider = (*Provider)(nil)

// UpdateGenerationConfig records cfg and returns Err.
func (p *Provider) UpdateGenerationConfig(_ context.Context, cfg synth.GenerationConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.updates = append(p.updates, cfg)
	return nil
}

// Updates returns a copy of all recorded configs in arrival order.
func (p *Provider) Updates() []synth.GenerationConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]synth.GenerationConfig, len(p.updates))
	copy(out, p.updates)
	return out
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }
