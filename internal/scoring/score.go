// Package scoring annotates candidate blocks with building, compactness and
// final weighted scores. Score is pure: it returns a new ranked slice and
// mutates nothing it was given.
package scoring

import (
	"sort"

	"go.uber.org/zap"

	"github.com/basellab/superblock-cli/internal/engine"
	"github.com/basellab/superblock-cli/internal/model"
)

// Options tunes the scoring run.
type Options struct {
	// Compactness selects the ratio formula, CompactnessAspect by default.
	Compactness string
}

// Score computes raw, quantile-scaled and final weighted scores for every
// block and returns the set sorted by final score descending. Ties break on
// raw building score descending, then block id ascending, so output order is
// deterministic.
func Score(eng engine.Engine, blocks []model.CandidateBlock, w model.ScoreWeights, opts Options) ([]model.CandidateBlock, error) {
	if len(blocks) == 0 {
		return nil, nil
	}

	out := make([]model.CandidateBlock, len(blocks))
	copy(out, blocks)

	rawBuilding := make([]float64, len(out))
	rawRatios := make([]float64, len(out))
	for i := range out {
		var sum float64
		for _, b := range out[i].Buildings {
			sum += b.Weight
		}
		rawBuilding[i] = sum

		r, err := rawRatio(eng, out[i].Geom, opts.Compactness)
		if err != nil {
			return nil, err
		}
		rawRatios[i] = r
	}

	scaledBuilding := Ranks(rawBuilding)
	scaledRatio := Ranks(rawRatios)

	for i := range out {
		out[i].RawBuildingScore = rawBuilding[i]
		out[i].ScaledBuildingScore = scaledBuilding[i]
		out[i].RawRatio = rawRatios[i]
		out[i].ScaledRatioScore = scaledRatio[i]
		out[i].FinalScore = w.Building*scaledBuilding[i] + w.Ratio*scaledRatio[i]
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].FinalScore != out[b].FinalScore {
			return out[a].FinalScore > out[b].FinalScore
		}
		if out[a].RawBuildingScore != out[b].RawBuildingScore {
			return out[a].RawBuildingScore > out[b].RawBuildingScore
		}
		return out[a].ID < out[b].ID
	})
	for i := range out {
		out[i].Rank = i + 1
	}

	zap.L().Info("scoring complete",
		zap.String("phase", "score"),
		zap.Int("blocks", len(out)),
		zap.Float64("building_weight", w.Building),
		zap.Float64("ratio_weight", w.Ratio),
	)
	return out, nil
}
