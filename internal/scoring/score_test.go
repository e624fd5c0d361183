package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basellab/superblock-cli/internal/engine/enginetest"
	"github.com/basellab/superblock-cli/internal/model"
)

func block(id int64, geomW, geomH float64, weights ...float64) model.CandidateBlock {
	buildings := make([]model.BuildingPoint, len(weights))
	for i, w := range weights {
		buildings[i] = model.BuildingPoint{ID: int64(i + 1), Weight: w}
	}
	return model.CandidateBlock{
		ID:        id,
		Geom:      enginetest.Rect(0, 0, geomW, geomH),
		ParcelIDs: []int64{id},
		Buildings: buildings,
	}
}

func TestScoreEmpty(t *testing.T) {
	got, err := Score(enginetest.Fake{}, nil, model.ScoreWeights{Building: 0.8, Ratio: 0.2}, Options{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScoreSingleBlockIsPerfect(t *testing.T) {
	blocks := []model.CandidateBlock{block(7, 30, 10, 2, -1)}

	got, err := Score(enginetest.Fake{}, blocks, model.ScoreWeights{Building: 0.6, Ratio: 0.4}, Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	// A lone block tops both distributions regardless of its raw values.
	assert.InDelta(t, 1.0, got[0].ScaledBuildingScore, 1e-9)
	assert.InDelta(t, 1.0, got[0].ScaledRatioScore, 1e-9)
	assert.InDelta(t, 1.0, got[0].FinalScore, 1e-9)
	assert.Equal(t, 1, got[0].Rank)
	assert.InDelta(t, 1.0, got[0].RawBuildingScore, 1e-9)
}

func TestScoreWeightedCombination(t *testing.T) {
	// Three blocks with distinct building sums (6, 0, -3) and distinct
	// aspect ratios (square 1.0, 2:1 = 0.5, 10:1 = 0.1).
	blocks := []model.CandidateBlock{
		block(1, 10, 10, 3, 3),
		block(2, 20, 10, 1, -1),
		block(3, 100, 10, -3),
	}

	for _, preset := range model.WeightPresets() {
		w, err := model.WeightPreset(preset)
		require.NoError(t, err)

		got, err := Score(enginetest.Fake{}, blocks, w, Options{})
		require.NoError(t, err)
		require.Len(t, got, 3)

		// Block 1 dominates both criteria under every preset.
		assert.Equal(t, int64(1), got[0].ID, "preset %s", preset)
		assert.InDelta(t, 1.0, got[0].FinalScore, 1e-9, "preset %s", preset)
		assert.Equal(t, int64(3), got[2].ID, "preset %s", preset)
		assert.InDelta(t, 0.0, got[2].FinalScore, 1e-9, "preset %s", preset)

		for i, b := range got {
			assert.Equal(t, i+1, b.Rank, "preset %s", preset)
			assert.InDelta(t, w.Building*b.ScaledBuildingScore+w.Ratio*b.ScaledRatioScore, b.FinalScore, 1e-9, "preset %s", preset)
		}
	}
}

func TestScoreRawSums(t *testing.T) {
	blocks := []model.CandidateBlock{
		block(1, 10, 10, 3, 2, -3),
		block(2, 10, 10),
	}

	got, err := Score(enginetest.Fake{}, blocks, model.ScoreWeights{Building: 0.5, Ratio: 0.5}, Options{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[int64]model.CandidateBlock{}
	for _, b := range got {
		byID[b.ID] = b
	}
	assert.InDelta(t, 2.0, byID[1].RawBuildingScore, 1e-9)
	assert.InDelta(t, 0.0, byID[2].RawBuildingScore, 1e-9)
	assert.InDelta(t, 1.0, byID[1].RawRatio, 1e-9)
}

func TestScoreDeterministicTieBreak(t *testing.T) {
	// Identical geometry and building sums: rank falls back to block id.
	blocks := []model.CandidateBlock{
		block(9, 10, 10, 1),
		block(4, 10, 10, 1),
		block(6, 10, 10, 1),
	}

	got, err := Score(enginetest.Fake{}, blocks, model.ScoreWeights{Building: 0.8, Ratio: 0.2}, Options{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(4), got[0].ID)
	assert.Equal(t, int64(6), got[1].ID)
	assert.Equal(t, int64(9), got[2].ID)
}

func TestScorePresetChangeKeepsComponentScores(t *testing.T) {
	blocks := []model.CandidateBlock{
		block(1, 10, 10, 3),  // compact, dense
		block(2, 80, 10, 2),  // elongated, dense
		block(3, 20, 10, -2), // compact, sparse
	}

	heavy, err := Score(enginetest.Fake{}, blocks, model.ScoreWeights{Building: 0.8, Ratio: 0.2}, Options{})
	require.NoError(t, err)
	light, err := Score(enginetest.Fake{}, blocks, model.ScoreWeights{Building: 0.2, Ratio: 0.8}, Options{})
	require.NoError(t, err)

	heavyByID := map[int64]model.CandidateBlock{}
	for _, b := range heavy {
		heavyByID[b.ID] = b
	}
	for _, b := range light {
		h := heavyByID[b.ID]
		assert.InDelta(t, h.RawBuildingScore, b.RawBuildingScore, 1e-9)
		assert.InDelta(t, h.ScaledBuildingScore, b.ScaledBuildingScore, 1e-9)
		assert.InDelta(t, h.RawRatio, b.RawRatio, 1e-9)
		assert.InDelta(t, h.ScaledRatioScore, b.ScaledRatioScore, 1e-9)
	}

	// Block 2 trades places with block 3 when the ratio weight dominates.
	assert.Equal(t, int64(2), heavy[1].ID)
	assert.Equal(t, int64(3), light[1].ID)
}

func TestScoreDoesNotMutateInput(t *testing.T) {
	blocks := []model.CandidateBlock{
		block(1, 10, 10, 3),
		block(2, 50, 10, -1),
	}

	_, err := Score(enginetest.Fake{}, blocks, model.ScoreWeights{Building: 0.8, Ratio: 0.2}, Options{})
	require.NoError(t, err)

	for _, b := range blocks {
		assert.Zero(t, b.FinalScore)
		assert.Zero(t, b.Rank)
	}
	assert.Equal(t, int64(1), blocks[0].ID)
	assert.Equal(t, int64(2), blocks[1].ID)
}
