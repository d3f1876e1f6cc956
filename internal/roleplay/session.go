// Package roleplay tracks a scripted alternate-persona session for the voice
// modulation stage.
//
// During roleplay the voice speaks as a rehearsal character (a "Mom", a
// "Boss") through a fixed, externally advanced sequence of emotional
// postures. The sequence is author-controlled and driven by explicit control
// operations rather than natural-language parsing — determinism over
// flexibility, because every transition directly changes the synthesised
// voice.
//
// A [Session] belongs to exactly one voice session. The host integration
// serializes control operations with fragment processing, but tool callbacks
// may arrive on a different goroutine than the frame loop, so Session guards
// its record with a mutex.
package roleplay

import (
	"errors"
	"sync"
)

// ErrEmptyEmotionSequence is returned by [Session.Start] when no scenario
// emotions are supplied. An empty sequence is rejected, not defaulted: a
// roleplay session without a first posture has no voice to speak in.
var ErrEmptyEmotionSequence = errors.New("roleplay: emotion sequence must not be empty")

// characterSpeed is the default speaking-rate modifier applied while in
// character. Slightly faster than the base voice so the character reads as a
// different speaker.
const characterSpeed = 1.05

// VoiceModifiers are the synthesis modifiers applied to the character voice.
type VoiceModifiers struct {
	// Speed is the speaking-rate ratio (1.0 = base voice).
	Speed float64

	// Pitch is a named pitch register ("low", "medium", "high").
	Pitch string
}

// State is an immutable copy of the session record, safe to read after the
// session has moved on.
type State struct {
	// Active reports whether a roleplay session is in progress.
	Active bool

	// Character is the persona being voiced ("Mom", "Boss"). Empty when inactive.
	Character string

	// ScenarioIndex is the 1-based index of the current scenario, 0 when inactive.
	ScenarioIndex int

	// ScenarioEmotions is the ordered emotion sequence for this session.
	ScenarioEmotions []string

	// CurrentEmotion is the posture currently voiced. "neutral" while active
	// means debrief: the coach voice, not the character.
	CurrentEmotion string

	// Voice carries the character voice modifiers.
	Voice VoiceModifiers
}

// InDebrief reports whether the session is active but currently voicing the
// neutral coach posture rather than the character.
func (s State) InDebrief() bool {
	return s.Active && s.CurrentEmotion == "neutral"
}

// Session is the roleplay state machine. The zero value is a valid inactive
// session. All methods are safe for concurrent use.
type Session struct {
	mu    sync.Mutex
	state State

	// voice holds the configured defaults applied at Start. Zero fields fall
	// back to the built-ins.
	voice VoiceModifiers
}

// NewSession returns an inactive session.
func NewSession() *Session {
	return &Session{}
}

// SetVoiceDefaults overrides the character voice modifiers applied by
// subsequent [Session.Start] calls. An already running scenario keeps the
// modifiers it started with.
func (s *Session) SetVoiceDefaults(v VoiceModifiers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice = v
}

// Start activates a roleplay session voicing character through the given
// emotion sequence, beginning at the first entry. Returns
// [ErrEmptyEmotionSequence] when emotions is empty.
//
// Starting over an already active session replaces it.
func (s *Session) Start(character string, emotions []string) error {
	if len(emotions) == 0 {
		return ErrEmptyEmotionSequence
	}

	seq := make([]string, len(emotions))
	copy(seq, emotions)

	s.mu.Lock()
	defer s.mu.Unlock()

	voice := s.voice
	if voice.Speed == 0 {
		voice.Speed = characterSpeed
	}
	if voice.Pitch == "" {
		voice.Pitch = "medium"
	}

	s.state = State{
		Active:           true,
		Character:        character,
		ScenarioIndex:    1,
		ScenarioEmotions: seq,
		CurrentEmotion:   seq[0],
		Voice:            voice,
	}
	return nil
}

// Advance moves to the next scenario emotion. It reports false without
// changing state when the session is inactive or the sequence is exhausted —
// callers must not treat an exhausted sequence as an error.
func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Active {
		return false
	}
	if s.state.ScenarioIndex >= len(s.state.ScenarioEmotions) {
		return false
	}

	// ScenarioIndex is 1-based; the old index is the 0-based position of the
	// next emotion.
	s.state.CurrentEmotion = s.state.ScenarioEmotions[s.state.ScenarioIndex]
	s.state.ScenarioIndex++
	return true
}

// SetEmotion overwrites the current posture without touching the scenario
// index. Setting "neutral" enters debrief; any other name jumps the
// character directly to that posture, scripted sequence or not. No-op when
// the session is inactive.
func (s *Session) SetEmotion(emotion string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Active {
		return
	}
	s.state.CurrentEmotion = emotion
}

// End resets the session to the canonical inactive record. Idempotent.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
}

// Snapshot returns a copy of the current session record.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if st.ScenarioEmotions != nil {
		seq := make([]string, len(st.ScenarioEmotions))
		copy(seq, st.ScenarioEmotions)
		st.ScenarioEmotions = seq
	}
	return st
}
