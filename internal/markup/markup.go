// Package markup encodes modulation directives into the two forms the
// synthesis engine understands: inline markup tags prepended to the
// utterance text, and a flat generation-config object for the engine's
// side channel.
package markup

import (
	"fmt"
	"math"
	"strings"

	"github.com/mirelle-ai/cadence/internal/emotion"
	"github.com/mirelle-ai/cadence/pkg/provider/synth"
)

// Tolerance is the band around the identity ratio (1.0) inside which a
// speed or volume ratio is treated as "no deviation" and emits no tag.
const Tolerance = 0.05

// neutralLabels are the labels considered at rest. A directive whose label
// is one of these and whose ratios are both within [Tolerance] of identity
// encodes to the empty string.
var neutralLabels = map[string]struct{}{
	"neutral": {},
	"calm":    {},
}

// Encode renders d as inline markup: an emotion tag, then a speed tag,
// then a volume tag, space-joined, each present only when it carries
// information. An at-rest directive encodes to the empty string so neutral
// turns reach the engine untouched.
func Encode(d emotion.Directive) string {
	tags := make([]string, 0, 3)
	if d.Label != "" && !atRest(d) {
		tags = append(tags, fmt.Sprintf(`<emotion value="%s" />`, d.Label))
	}
	if deviates(d.SpeedRatio) {
		tags = append(tags, fmt.Sprintf(`<speed ratio="%.2f" />`, d.SpeedRatio))
	}
	if deviates(d.VolumeRatio) {
		tags = append(tags, fmt.Sprintf(`<volume ratio="%.2f" />`, d.VolumeRatio))
	}
	return strings.Join(tags, " ")
}

// Tag prepends the encoded form of d to text. Text is returned unchanged
// when d is at rest.
func Tag(text string, d emotion.Directive) string {
	prefix := Encode(d)
	if prefix == "" {
		return text
	}
	return prefix + " " + text
}

// Config builds the side-channel generation config for d. Emotion is always
// populated, falling back to "neutral" for an empty label; ratio fields are
// set only when they deviate from identity, rounded to two decimals.
func Config(d emotion.Directive) synth.GenerationConfig {
	cfg := synth.GenerationConfig{Emotion: d.Label}
	if cfg.Emotion == "" {
		cfg.Emotion = "neutral"
	}
	if deviates(d.SpeedRatio) {
		cfg.Speed = ptr(round2(d.SpeedRatio))
	}
	if deviates(d.VolumeRatio) {
		cfg.Volume = ptr(round2(d.VolumeRatio))
	}
	return cfg
}

// atRest reports whether d carries no information worth tagging: a
// neutral-family label with both ratios inside the tolerance band.
func atRest(d emotion.Directive) bool {
	if _, ok := neutralLabels[d.Label]; !ok {
		return false
	}
	return !deviates(d.SpeedRatio) && !deviates(d.VolumeRatio)
}

func deviates(ratio float64) bool {
	return math.Abs(ratio-1.0) > Tolerance
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 { return &v }
