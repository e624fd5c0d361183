package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightPreset(t *testing.T) {
	tests := []struct {
		name         string
		preset       string
		wantBuilding float64
		wantRatio    float64
		wantErr      bool
	}{
		{"default on empty", "", 0.8, 0.2, false},
		{"building heavy", "80/20", 0.8, 0.2, false},
		{"balanced", "50/50", 0.5, 0.5, false},
		{"ratio heavy", "20/80", 0.2, 0.8, false},
		{"unknown preset", "90/10", 0, 0, true},
		{"reversed separator", "80-20", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := WeightPreset(tt.preset)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantBuilding, w.Building, 0.001)
			assert.InDelta(t, tt.wantRatio, w.Ratio, 0.001)
		})
	}
}

func TestWeightPresetsSumToOne(t *testing.T) {
	names := WeightPresets()
	require.Len(t, names, 7)
	for _, name := range names {
		w, err := WeightPreset(name)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, w.Building+w.Ratio, 1e-9, "preset %s", name)
	}
}

func TestWeightPresetsCopy(t *testing.T) {
	a := WeightPresets()
	a[0] = "mutated"
	b := WeightPresets()
	assert.Equal(t, DefaultPreset, b[0])
}
