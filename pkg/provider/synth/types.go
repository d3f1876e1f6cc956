package synth

// GenerationConfig is the flat configuration object pushed to the synthesis
// engine on the side channel. Emotion is always present; Speed and Volume
// are present only when they deviate from the identity ratio by more than
// the encoder tolerance, rounded to two decimal places.
type GenerationConfig struct {
	Emotion string   `json:"emotion"`
	Speed   *float64 `json:"speed,omitempty"`
	Volume  *float64 `json:"volume,omitempty"`
}
