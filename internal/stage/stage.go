// Package stage implements the emotional voice modulation stage: the
// frame-processing component that sits between the language model's text
// output and the speech-synthesis engine.
//
// The stage watches turn boundaries and tags exactly one text fragment per
// spoken turn with inline emotion markup, resolved either from the persona's
// live emotional state (normal mode) or from an active roleplay scenario
// (roleplay mode, no external round trip). The resolved directive is also
// pushed to the synthesis engine's configuration side channel, best-effort.
//
// One Stage instance serves one voice session. Frames must be processed in
// arrival order; roleplay control operations may arrive on a different
// goroutine (the MCP host's), so the turn window and session state are
// internally synchronised.
package stage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mirelle-ai/cadence/internal/emotion"
	"github.com/mirelle-ai/cadence/internal/markup"
	"github.com/mirelle-ai/cadence/internal/observe"
	"github.com/mirelle-ai/cadence/internal/roleplay"
	"github.com/mirelle-ai/cadence/internal/state"
	"github.com/mirelle-ai/cadence/pkg/provider/synth"
)

const (
	// defaultFetchTimeout bounds the single emotional-state fetch per turn.
	defaultFetchTimeout = 2 * time.Second

	// configUpdateTimeout bounds the async best-effort config push.
	configUpdateTimeout = 5 * time.Second

	// characterVolumeBump differentiates an in-character voice from the
	// normal persona.
	characterVolumeBump = 1.05
)

// Modulation modes reported in logs and metrics.
const (
	modeNormal   = "normal"
	modeRoleplay = "roleplay"
)

// Option is a functional option for configuring a [Stage].
type Option func(*Stage)

// WithProvider sets the synthesis configuration side channel. Without it the
// stage relies on inline markup alone.
func WithProvider(p synth.Provider) Option {
	return func(s *Stage) {
		s.provider = p
	}
}

// WithSession attaches a roleplay session. Without it the stage always runs
// in normal mode.
func WithSession(sess *roleplay.Session) Option {
	return func(s *Stage) {
		s.session = sess
	}
}

// WithLogger overrides the logger. Defaults to [slog.Default].
func WithLogger(log *slog.Logger) Option {
	return func(s *Stage) {
		s.log = log
	}
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Stage) {
		s.metrics = m
	}
}

// WithFetchTimeout overrides the per-turn emotional-state fetch timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Stage) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// Stage is the per-session modulation stage. Create instances with [New].
type Stage struct {
	source       state.EmotionSource
	provider     synth.Provider
	session      *roleplay.Session
	log          *slog.Logger
	metrics      *observe.Metrics
	fetchTimeout time.Duration

	mu        sync.Mutex
	turnOpen  bool
	tagged    bool
	lastLabel string

	// pushes tracks in-flight async config updates so Close can drain them.
	pushes sync.WaitGroup
}

// New creates a Stage reading snapshots from source.
func New(source state.EmotionSource, opts ...Option) *Stage {
	s := &Stage{
		source:       source,
		log:          slog.Default(),
		fetchTimeout: defaultFetchTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Process handles one inbound frame and returns the frame to emit
// downstream. Frames are never dropped; at most their text is prefixed with
// markup. Process must be called from a single goroutine per Stage.
func (s *Stage) Process(ctx context.Context, f Frame) Frame {
	switch fr := f.(type) {
	case TurnStarted:
		s.setWindow(true, false)
		return fr
	case TurnEnded:
		s.setWindow(false, false)
		return fr
	case Text:
		return s.processText(ctx, fr)
	default:
		return f
	}
}

// setWindow updates the turn window flags.
func (s *Stage) setWindow(open, tagged bool) {
	s.mu.Lock()
	s.turnOpen = open
	s.tagged = tagged
	s.mu.Unlock()
}

// processText applies the per-fragment steps: open the window if needed,
// tag once, pass everything else through untouched.
func (s *Stage) processText(ctx context.Context, fr Text) Frame {
	s.mu.Lock()
	if !s.turnOpen {
		s.turnOpen = true
		s.tagged = false
	}
	if s.tagged {
		s.mu.Unlock()
		return fr
	}
	// Claim the window before the fetch suspension point so a directive is
	// applied at most once even if a boundary race slips a fragment through.
	s.tagged = true
	s.mu.Unlock()

	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "stage.tag")
	defer span.End()

	directive, mode := s.resolveDirective(ctx)

	s.logEmotionChange(directive.Label, mode)
	s.pushConfig(ctx, directive)

	s.metrics.TagDuration.Record(ctx, time.Since(start).Seconds())
	s.metrics.RecordTaggedUtterance(ctx, mode)
	s.log.Debug("turn tagged",
		"mode", mode,
		"emotion", directive.Label,
		"speed", directive.SpeedRatio,
		"volume", directive.VolumeRatio)

	return Text{Content: markup.Tag(fr.Content, directive)}
}

// resolveDirective picks the modulation mode and builds the directive for
// the current turn.
//
// Roleplay mode applies only while a scenario is active AND the character is
// not at neutral: a debrief (active at neutral) deliberately falls through
// to normal mode so the coach voice returns.
func (s *Stage) resolveDirective(ctx context.Context) (emotion.Directive, string) {
	if s.session != nil {
		if st := s.session.Snapshot(); st.Active && !st.InDebrief() {
			d := emotion.Directive{
				Label:       roleplay.EngineEmotion(st.CurrentEmotion),
				SpeedRatio:  st.Voice.Speed,
				VolumeRatio: 1.0,
			}
			if st.Character != "" {
				d.VolumeRatio = characterVolumeBump
			}
			return d, modeRoleplay
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	fetchStart := time.Now()
	snap, err := s.source.Fetch(fetchCtx)
	s.metrics.FetchDuration.Record(ctx, time.Since(fetchStart).Seconds())
	if err != nil {
		s.metrics.RecordFetchFailure(ctx)
		s.log.Warn("emotional state unavailable, speaking neutral",
			"error", err)
		return emotion.NeutralDirective(), modeNormal
	}
	return emotion.Map(snap), modeNormal
}

// logEmotionChange logs at Info only when the resolved engine emotion
// differs from the previously applied one.
func (s *Stage) logEmotionChange(label, mode string) {
	s.mu.Lock()
	prev := s.lastLabel
	s.lastLabel = label
	s.mu.Unlock()

	if label != prev {
		s.log.Info("voice emotion changed",
			"from", prev,
			"to", label,
			"mode", mode)
	}
}

// pushConfig sends the directive's config form on the side channel without
// blocking the audio path. Failures are logged and counted, never surfaced.
func (s *Stage) pushConfig(ctx context.Context, d emotion.Directive) {
	if s.provider == nil {
		return
	}
	cfg := markup.Config(d)

	// Detach from the frame's context: the turn may finish before the push.
	pushCtx := context.WithoutCancel(ctx)
	s.pushes.Add(1)
	go func() {
		defer s.pushes.Done()
		pushCtx, cancel := context.WithTimeout(pushCtx, configUpdateTimeout)
		defer cancel()
		if err := s.provider.UpdateGenerationConfig(pushCtx, cfg); err != nil {
			s.metrics.RecordConfigUpdateFailure(pushCtx)
			s.log.Warn("generation config update failed",
				"emotion", cfg.Emotion,
				"error", err)
		}
	}()
}

// CurrentEmotion returns the engine emotion label most recently applied to
// a turn. Empty until the first turn is tagged.
func (s *Stage) CurrentEmotion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLabel
}

// Close drains in-flight config pushes. It does not close the provider,
// which the caller owns.
func (s *Stage) Close() error {
	s.pushes.Wait()
	return nil
}
