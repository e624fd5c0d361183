package scoring

import "sort"

// Ranks rescales values to [0,1] by quantile rank: each value's scaled score
// is its percentile position within the sorted distribution, with tied
// values sharing their average rank. Rank scaling is deliberately used
// instead of min-max so outlier blocks cannot compress the scale.
//
// A single-value distribution yields 1.0: a lone block sits at the top of an
// otherwise empty distribution.
func Ranks(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []float64{1}
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && values[idx[j]] == values[idx[i]] {
			j++
		}
		rank := (float64(i) + float64(j-1)) / 2 / float64(n-1)
		for k := i; k < j; k++ {
			out[idx[k]] = rank
		}
		i = j
	}
	return out
}
