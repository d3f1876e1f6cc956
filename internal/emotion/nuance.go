package emotion

// band is an intensity band of the coarse label table.
type band int

const (
	bandLow    band = iota // intensity < 0.35
	bandMedium             // intensity < 0.7
	bandHigh               // intensity ≥ 0.7
)

// bandOf buckets an intensity into a [band].
func bandOf(intensity float64) band {
	switch {
	case intensity < 0.35:
		return bandLow
	case intensity < 0.7:
		return bandMedium
	default:
		return bandHigh
	}
}

// coarseTable maps each primary emotion and intensity band onto the
// synthesis engine's emotion vocabulary.
var coarseTable = map[PrimaryEmotion][3]string{
	Joy:      {"content", "happy", "excited"},
	Sadness:  {"disappointed", "sad", "melancholic"},
	Anger:    {"frustrated", "angry", "outraged"},
	Fear:     {"anxious", "anxious", "panicked"},
	Disgust:  {"skeptical", "contempt", "contempt"},
	Surprise: {"curious", "surprised", "amazed"},
	Neutral:  {"calm", "neutral", "calm"},
}

// coarseLabel resolves the engine label for a primary emotion at the given
// intensity using the three-band table. Unknown primaries use the neutral row.
func coarseLabel(primary PrimaryEmotion, intensity float64) string {
	row, ok := coarseTable[primary]
	if !ok {
		row = coarseTable[Neutral]
	}
	return row[bandOf(intensity)]
}

// refineLabel optionally overrides the coarse label with a finer engine
// label using emotion-specific thresholds on intensity and body energy.
// Returns "" when no refinement applies.
//
// The thresholds are a fixed lookup preserved from the tuning that shipped
// with the voice: deterministic per call, never drifting.
func refineLabel(primary PrimaryEmotion, intensity float64, body *BodyState) string {
	switch primary {
	case Joy:
		if intensity > 0.8 {
			return "enthusiastic"
		}
		if intensity > 0.6 {
			return "excited"
		}
		if body != nil && body.Energy < 0.4 {
			return "content"
		}
		if intensity > 0.4 {
			return "happy"
		}
		return "content"

	case Sadness:
		if intensity > 0.8 {
			return "dejected"
		}
		if body != nil && body.Energy < 0.3 {
			return "disappointed"
		}
		if intensity > 0.5 {
			return "melancholic"
		}
		return "nostalgic"

	case Anger:
		if intensity > 0.8 {
			return "outraged"
		}
		if intensity > 0.6 {
			return "mad"
		}
		return "frustrated"

	case Fear:
		if intensity > 0.8 {
			return "panicked"
		}
		if intensity > 0.6 {
			return "alarmed"
		}
		return "anxious"

	case Surprise:
		if intensity > 0.7 {
			return "amazed"
		}
		return "curious"
	}

	return ""
}
