// Package mock provides an in-memory test double for [state.EmotionSource].
package mock

import (
	"context"
	"sync"

	"github.com/mirelle-ai/cadence/internal/emotion"
	"github.com/mirelle-ai/cadence/internal/state"
)

// Source is a configurable test double for [state.EmotionSource].
// The zero value returns a zero snapshot with no error.
type Source struct {
	mu    sync.Mutex
	calls int

	// FetchResult is returned by [Source.Fetch] when FetchErr is nil.
	FetchResult emotion.Snapshot

	// FetchErr is returned by [Source.Fetch] when non-nil.
	FetchErr error
}

// Compile-time check that *Source satisfies [state.EmotionSource].
var _ state.EmotionSource = (*Source)(nil)

// Fetch implements [state.EmotionSource].
func (s *Source) Fetch(_ context.Context) (emotion.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.FetchErr != nil {
		return emotion.Snapshot{}, s.FetchErr
	}
	return s.FetchResult, nil
}

// FetchCount returns how many times Fetch was invoked.
func (s *Source) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
