package emotion

import (
	"math"
	"testing"
)

func body(energy, tension float64) *BodyState {
	b := DefaultBodyState()
	b.Energy = energy
	b.Tension = tension
	return &b
}

// ─────────────────────────────────────────────────────────────────────────────
// Dominant-reading selection
// ─────────────────────────────────────────────────────────────────────────────

func TestMap_EmptySnapshotIsNeutralAtRest(t *testing.T) {
	t.Parallel()
	d := Map(Snapshot{})
	if d.Label != "calm" {
		t.Errorf("Label = %q, want %q (low-intensity neutral band)", d.Label, "calm")
	}
	if d.SpeedRatio != 1.0 || d.VolumeRatio != 1.0 {
		t.Errorf("ratios = (%v, %v), want identity", d.SpeedRatio, d.VolumeRatio)
	}
}

func TestMap_SelectsMaxIntensity(t *testing.T) {
	t.Parallel()
	d := Map(Snapshot{Emotions: []Reading{
		{Category: "sadness", Intensity: 0.3},
		{Category: "anger", Intensity: 0.9},
		{Category: "joy", Intensity: 0.5},
	}})
	if d.Label != "outraged" {
		t.Errorf("Label = %q, want %q (high-intensity anger refinement)", d.Label, "outraged")
	}
}

func TestMap_TieBreaksToFirstReading(t *testing.T) {
	t.Parallel()
	d := Map(Snapshot{Emotions: []Reading{
		{Category: "fear", Intensity: 0.5},
		{Category: "joy", Intensity: 0.5},
	}})
	if d.Label != "anxious" {
		t.Errorf("Label = %q, want %q (first of tied readings wins)", d.Label, "anxious")
	}
}

func TestMap_UnknownCategoryFallsBackToNeutral(t *testing.T) {
	t.Parallel()
	d := Map(Snapshot{Emotions: []Reading{{Category: "ennui", Intensity: 0.9}}})
	if d.Label != "calm" {
		t.Errorf("Label = %q, want %q (neutral high band)", d.Label, "calm")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Speed derivation
// ─────────────────────────────────────────────────────────────────────────────

func TestSpeedRatio_Bands(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		body    *BodyState
		min     float64
		max     float64
	}{
		{"no body state", nil, 1.0, 1.0},
		{"zero energy", body(0, 0.2), 0.8, 0.8},
		{"low energy", body(0.15, 0.2), 0.8, 0.95},
		{"mid energy", body(0.5, 0.2), 0.95, 1.05},
		{"band floor", body(0.3, 0.2), 0.95, 0.95},
		{"high energy", body(0.8, 0.2), 1.05, 1.3},
		{"max energy", body(1.0, 0.2), 1.3, 1.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := speedRatio(tt.body)
			if got < tt.min-1e-9 || got > tt.max+1e-9 {
				t.Errorf("speedRatio = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Volume derivation
// ─────────────────────────────────────────────────────────────────────────────

func TestVolumeRatio(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		body      *BodyState
		intensity float64
		want      float64
	}{
		{"resting", body(0.5, 0.2), 0.3, 1.0},
		{"tension below threshold", body(0.5, 0.6), 0.3, 1.0},
		{"tension above threshold", body(0.5, 0.8), 0.3, 1.1},
		{"intensity scaling", body(0.5, 0.2), 0.9, 1.06},
		{"tension and intensity compound", body(0.5, 1.0), 1.0, 1.2 * 1.09},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := volumeRatio(tt.body, tt.intensity)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("volumeRatio = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolumeRatio_Clamped(t *testing.T) {
	t.Parallel()
	got := volumeRatio(&BodyState{Tension: 3.0}, 1.0)
	if got > 2.0 {
		t.Errorf("volumeRatio = %v, want clamped to 2.0", got)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Nuance refinement + range property
// ─────────────────────────────────────────────────────────────────────────────

func TestRefineLabel(t *testing.T) {
	t.Parallel()
	lowEnergy := body(0.2, 0.2)
	tests := []struct {
		name      string
		primary   PrimaryEmotion
		intensity float64
		body      *BodyState
		want      string
	}{
		{"euphoric joy", Joy, 0.9, nil, "enthusiastic"},
		{"excited joy", Joy, 0.65, nil, "excited"},
		{"tired joy", Joy, 0.5, lowEnergy, "content"},
		{"plain joy", Joy, 0.5, nil, "happy"},
		{"mild joy", Joy, 0.3, nil, "content"},
		{"crushing sadness", Sadness, 0.85, nil, "dejected"},
		{"weary sadness", Sadness, 0.4, lowEnergy, "disappointed"},
		{"heavy sadness", Sadness, 0.6, nil, "melancholic"},
		{"wistful sadness", Sadness, 0.3, nil, "nostalgic"},
		{"boiling anger", Anger, 0.9, nil, "outraged"},
		{"hot anger", Anger, 0.65, nil, "mad"},
		{"simmering anger", Anger, 0.4, nil, "frustrated"},
		{"panic", Fear, 0.85, nil, "panicked"},
		{"alarm", Fear, 0.65, nil, "alarmed"},
		{"unease", Fear, 0.3, nil, "anxious"},
		{"astonishment", Surprise, 0.8, nil, "amazed"},
		{"mild surprise", Surprise, 0.4, nil, "curious"},
		{"disgust never refines", Disgust, 0.9, nil, ""},
		{"neutral never refines", Neutral, 0.9, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := refineLabel(tt.primary, tt.intensity, tt.body); got != tt.want {
				t.Errorf("refineLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMap_HighIntensityJoyScenario(t *testing.T) {
	t.Parallel()
	d := Map(Snapshot{
		Emotions: []Reading{{Category: "joy", Intensity: 0.9}},
		Body:     body(0.8, 0.2),
	})
	if d.Label != "enthusiastic" {
		t.Errorf("Label = %q, want a high-intensity joy variant", d.Label)
	}
	if d.SpeedRatio < 1.05 || d.SpeedRatio > 1.3 {
		t.Errorf("SpeedRatio = %v, want in [1.05, 1.3]", d.SpeedRatio)
	}
}

// Ratios stay inside the engine's accepted range for every primary emotion
// across the whole intensity axis.
func TestMap_RatiosAlwaysInRange(t *testing.T) {
	t.Parallel()
	primaries := []PrimaryEmotion{Joy, Sadness, Anger, Fear, Disgust, Surprise, Neutral}
	for _, p := range primaries {
		for i := 0; i <= 10; i++ {
			intensity := float64(i) / 10
			for _, b := range []*BodyState{nil, body(0, 1), body(1, 1), body(0.5, 0)} {
				d := Map(Snapshot{
					Emotions: []Reading{{Category: string(p), Intensity: intensity}},
					Body:     b,
				})
				if d.Label == "" {
					t.Fatalf("Map(%s, %v) produced an empty label", p, intensity)
				}
				if d.SpeedRatio < 0.5 || d.SpeedRatio > 2.0 {
					t.Errorf("Map(%s, %v): SpeedRatio %v out of [0.5, 2.0]", p, intensity, d.SpeedRatio)
				}
				if d.VolumeRatio < 0.5 || d.VolumeRatio > 2.0 {
					t.Errorf("Map(%s, %v): VolumeRatio %v out of [0.5, 2.0]", p, intensity, d.VolumeRatio)
				}
			}
		}
	}
}
