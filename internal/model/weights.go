package model

import (
	"github.com/rotisserie/eris"
)

// ScoreWeights is the (building, ratio) weight pair applied to the scaled
// scores. Building + Ratio always sums to 1.0.
type ScoreWeights struct {
	Building float64
	Ratio    float64
}

// presetOrder lists the supported weight presets from building-heavy to
// ratio-heavy. "80/20" is the default.
var presetOrder = []string{"80/20", "70/30", "60/40", "50/50", "40/60", "30/70", "20/80"}

var presets = map[string]ScoreWeights{
	"80/20": {Building: 0.8, Ratio: 0.2},
	"70/30": {Building: 0.7, Ratio: 0.3},
	"60/40": {Building: 0.6, Ratio: 0.4},
	"50/50": {Building: 0.5, Ratio: 0.5},
	"40/60": {Building: 0.4, Ratio: 0.6},
	"30/70": {Building: 0.3, Ratio: 0.7},
	"20/80": {Building: 0.2, Ratio: 0.8},
}

// DefaultPreset is the weight preset used when none is configured.
const DefaultPreset = "80/20"

// WeightPreset resolves a preset name like "60/40" to its weight pair.
func WeightPreset(name string) (ScoreWeights, error) {
	if name == "" {
		name = DefaultPreset
	}
	w, ok := presets[name]
	if !ok {
		return ScoreWeights{}, eris.Errorf("model: unknown weight preset %q", name)
	}
	return w, nil
}

// WeightPresets returns the supported preset names in canonical order.
func WeightPresets() []string {
	out := make([]string, len(presetOrder))
	copy(out, presetOrder)
	return out
}
