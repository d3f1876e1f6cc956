package roleplay

import "strings"

// engineEmotions translates the roleplay posture vocabulary (what the
// coaching script asks for) into the synthesis engine's emotion vocabulary
// (what the voice accepts). "neutral" maps to the empty string: the coach
// voice carries no emotion tag at all.
//
// The table's entries are tuned, not derived; preserve observable behavior
// when editing.
var engineEmotions = map[string]string{
	// Angry / hostile postures.
	"angry":      "angry",
	"defensive":  "frustrated",
	"hostile":    "outraged",
	"frustrated": "frustrated",
	"annoyed":    "agitated",
	"mad":        "mad",
	"outraged":   "outraged",

	// Sad / hurt postures.
	"sad":          "sad",
	"hurt":         "hurt",
	"disappointed": "disappointed",
	"melancholic":  "melancholic",
	"worried":      "anxious",
	"concerned":    "anxious",

	// Positive / receptive postures.
	"receptive":     "content",
	"understanding": "sympathetic",
	"warm":          "affectionate",
	"happy":         "happy",
	"excited":       "excited",
	"content":       "content",
	"open":          "content",

	// Curious / questioning postures.
	"curious":     "curious",
	"skeptical":   "skeptical",
	"questioning": "curious",
	"confused":    "confused",

	// Surprised postures.
	"surprised": "surprised",
	"shocked":   "amazed",
	"amazed":    "amazed",

	// Dismissive / cold postures.
	"dismissive": "contempt",
	"cold":       "distant",
	"distant":    "distant",

	"neutral": "",
}

// EngineEmotion translates a roleplay posture name to the engine's emotion
// vocabulary. Returns "" (no emotion tag) for "neutral" and for names the
// table does not know. Matching is case- and surrounding-space-insensitive.
func EngineEmotion(posture string) string {
	return engineEmotions[strings.ToLower(strings.TrimSpace(posture))]
}
