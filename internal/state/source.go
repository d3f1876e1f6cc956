// Package state fetches the current emotional snapshot of the voice persona
// from its state server.
//
// The snapshot lives in an external MCP server that owns the persona's
// simulated internal state (emotions plus body metrics). The modulation stage
// fetches a fresh snapshot once per response turn through an [EmotionSource];
// a fetch failure never blocks speech, callers fall back to a neutral
// directive instead.
package state

import (
	"context"

	"github.com/mirelle-ai/cadence/internal/emotion"
)

// EmotionSource provides the persona's current emotional snapshot.
//
// Implementations must be safe for concurrent use.
type EmotionSource interface {
	// Fetch returns the current snapshot. An error means the snapshot could
	// not be obtained this turn; callers should degrade to neutral rather
	// than fail the turn.
	Fetch(ctx context.Context) (emotion.Snapshot, error)
}
