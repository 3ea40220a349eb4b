package engine

import (
	"math"
	"math/rand/v2"

	"github.com/Billy-Davies-2/fighter-matchup/internal/metrics"
)

// Sample draws up to n candidates by score-weighted choice without
// replacement, in draw order. When every remaining weight is zero the draw
// falls back to a uniform choice. The input slice is not modified.
func Sample(rng *rand.Rand, candidates []Candidate, n int) []Candidate {
	remaining := make([]Candidate, len(candidates))
	copy(remaining, candidates)

	drawn := make([]Candidate, 0, min(max(n, 0), len(remaining)))
	for len(drawn) < n && len(remaining) > 0 {
		idx := pick(rng, remaining, candidateScore)
		drawn = append(drawn, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return drawn
}

// Draw samples one main plus up to altCount alternatives. Under-supply is
// not an error; only an empty pool is.
func Draw(rng *rand.Rand, candidates []Candidate, altCount int) (Candidate, []Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, nil, ErrEmptyPool
	}
	drawn := Sample(rng, candidates, 1+altCount)
	return drawn[0], drawn[1:], nil
}

// pick returns the index of one weighted draw over items
func pick[T any](rng *rand.Rand, items []T, score func(T) float64) int {
	total := 0.0
	for _, it := range items {
		total += weight(score(it))
	}
	if total <= 0 {
		metrics.SamplerFallbacksTotal.Inc()
		return rng.IntN(len(items))
	}

	roll := rng.Float64() * total
	last := 0
	for i, it := range items {
		w := weight(score(it))
		if w == 0 {
			continue
		}
		last = i
		roll -= w
		if roll < 0 {
			return i
		}
	}
	// float rounding can leave roll at zero after the last positive weight
	return last
}

func weight(score float64) float64 {
	if math.IsNaN(score) || score <= 0 {
		return 0
	}
	return score
}

func candidateScore(c Candidate) float64 { return c.Score }
