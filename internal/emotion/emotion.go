// Package emotion maps external emotional-state snapshots onto synthesis
// directives for the voice modulation stage.
//
// The package is pure: [Map] has no side effects and no failure mode. Any
// snapshot — including an empty one or one containing unrecognised emotion
// categories — resolves to a valid [Directive]; neutral is the universal
// fallback. This matters because the mapper sits on the hot audio path and
// must never be the reason an utterance is delayed or dropped.
package emotion

import "encoding/json"

// PrimaryEmotion is the closed set of primary emotion categories accepted
// from external snapshots (Ekman's universal emotions plus neutral).
type PrimaryEmotion string

const (
	Joy      PrimaryEmotion = "joy"
	Sadness  PrimaryEmotion = "sadness"
	Anger    PrimaryEmotion = "anger"
	Fear     PrimaryEmotion = "fear"
	Disgust  PrimaryEmotion = "disgust"
	Surprise PrimaryEmotion = "surprise"
	Neutral  PrimaryEmotion = "neutral"
)

// Parse resolves a raw category string to a [PrimaryEmotion]. Unrecognised
// categories resolve to [Neutral] — a defined fallback, not an error.
func Parse(category string) PrimaryEmotion {
	switch PrimaryEmotion(category) {
	case Joy, Sadness, Anger, Fear, Disgust, Surprise, Neutral:
		return PrimaryEmotion(category)
	}
	return Neutral
}

// Reading is a single (category, intensity) pair from an external snapshot.
type Reading struct {
	// Category is the raw emotion category string. Unknown values map to neutral.
	Category string `json:"type"`

	// Intensity is the emotion's strength in [0, 1].
	Intensity float64 `json:"intensity"`
}

// BodyState carries the optional physiological sub-record of a snapshot.
// Tension, Energy, and Breathing are normalised to [0, 1].
type BodyState struct {
	HeartRate   float64 `json:"heart_rate"`
	Temperature float64 `json:"temperature"`
	Tension     float64 `json:"tension"`
	Energy      float64 `json:"energy"`
	Breathing   float64 `json:"breathing"`
}

// DefaultBodyState returns the resting-baseline body state assumed when a
// snapshot omits physiological data entirely or per field.
func DefaultBodyState() BodyState {
	return BodyState{
		HeartRate: 72,
		Tension:   0.2,
		Energy:    0.5,
		Breathing: 0.3,
	}
}

// UnmarshalJSON decodes a body_state object on top of the resting baseline,
// so fields the payload omits keep their [DefaultBodyState] values instead
// of dropping to zero.
func (b *BodyState) UnmarshalJSON(data []byte) error {
	type plain BodyState
	p := plain(DefaultBodyState())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BodyState(p)
	return nil
}

// Snapshot is an externally supplied emotional-state snapshot. It is
// immutable once received and consumed synchronously per utterance.
type Snapshot struct {
	// Emotions is the ordered list of readings. May be empty, in which case
	// the snapshot resolves to neutral at zero intensity.
	Emotions []Reading `json:"emotions"`

	// Body is the optional physiological sub-record. Nil means no body data
	// was supplied; speed derivation then stays at the identity ratio.
	Body *BodyState `json:"body_state"`
}

// NeutralSnapshot returns the snapshot the stage substitutes when the
// external provider is unavailable: no readings, no body data.
func NeutralSnapshot() Snapshot {
	return Snapshot{}
}

// Directive is the resolved (emotion label, speed, volume) triple applied to
// an utterance. Label is a member of the synthesis engine's fixed emotion
// vocabulary; SpeedRatio and VolumeRatio default to 1.0 and are only encoded
// downstream when they deviate from 1.0 by more than the encoder tolerance.
type Directive struct {
	Label       string
	SpeedRatio  float64
	VolumeRatio float64
}

// NeutralDirective returns the identity directive: the low-intensity neutral
// band label at default speed and volume.
func NeutralDirective() Directive {
	return Directive{Label: coarseLabel(Neutral, 0), SpeedRatio: 1, VolumeRatio: 1}
}
