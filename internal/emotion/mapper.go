package emotion

// Map resolves a snapshot into a synthesis [Directive].
//
// Selection: the reading with maximum intensity wins; ties break to the
// earliest reading in input order. An empty snapshot resolves to neutral at
// zero intensity. The label goes through nuance refinement first
// ([refineLabel]) and falls back to the coarse three-band table when no
// refinement applies.
func Map(s Snapshot) Directive {
	primary, intensity := dominant(s)

	label := refineLabel(primary, intensity, s.Body)
	if label == "" {
		label = coarseLabel(primary, intensity)
	}

	return Directive{
		Label:       label,
		SpeedRatio:  speedRatio(s.Body),
		VolumeRatio: volumeRatio(s.Body, intensity),
	}
}

// dominant returns the highest-intensity reading's parsed category and
// intensity. Stable: the first of equally intense readings wins.
func dominant(s Snapshot) (PrimaryEmotion, float64) {
	if len(s.Emotions) == 0 {
		return Neutral, 0
	}
	best := s.Emotions[0]
	for _, r := range s.Emotions[1:] {
		if r.Intensity > best.Intensity {
			best = r
		}
	}
	return Parse(best.Category), best.Intensity
}

// speedRatio derives the speaking-rate ratio from body energy.
//
// Low energy compresses speech toward 0.8–0.95, high energy expands toward
// 1.05–1.3, and the mid band maps linearly onto 0.95–1.05. Without body
// data the ratio stays at the identity value.
func speedRatio(body *BodyState) float64 {
	if body == nil {
		return 1.0
	}
	e := body.Energy
	switch {
	case e < 0.3:
		return 0.8 + (e/0.3)*0.15
	case e > 0.7:
		return 1.05 + ((e-0.7)/0.3)*0.25
	default:
		return 0.95 + ((e-0.3)/0.4)*0.1
	}
}

// volumeRatio derives the loudness ratio from body tension and reading
// intensity. Tension past 0.6 raises volume linearly; intensity past 0.7
// scales it further. The result is clamped to the engine's [0.5, 2.0] range.
func volumeRatio(body *BodyState, intensity float64) float64 {
	volume := 1.0
	if body != nil && body.Tension > 0.6 {
		volume = 1.0 + (body.Tension-0.6)*0.5
	}
	if intensity > 0.7 {
		volume *= 1 + (intensity-0.7)*0.3
	}
	return min(2.0, max(0.5, volume))
}
