// Package synth defines the Provider interface for the speech-synthesis
// engine's out-of-band configuration channel.
//
// The modulation stage talks to the synthesis engine over two channels: the
// primary channel is inline markup embedded in the text itself, and the side
// channel is a persistent generation-config update pushed through a Provider.
// The side channel is strictly best-effort — a failed update is logged and
// ignored, because the markup already carries the directive.
//
// Implementations must be safe for concurrent use.
package synth

import "context"

// Provider is the abstraction over a synthesis engine's configuration
// side channel.
type Provider interface {
	// UpdateGenerationConfig pushes cfg to the engine so that subsequent
	// synthesis picks up the emotion settings even when the engine ignores
	// inline markup. Callers treat any error as non-fatal.
	UpdateGenerationConfig(ctx context.Context, cfg GenerationConfig) error

	// Close releases the provider's connection. After Close returns the
	// Provider must not be used again.
	Close() error
}
