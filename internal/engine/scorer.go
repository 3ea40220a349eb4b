package engine

import (
	"math"
	"strings"

	"github.com/Billy-Davies-2/fighter-matchup/internal/config"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
	"github.com/Billy-Davies-2/fighter-matchup/internal/winrate"
)

// Candidate is a pool fighter with its scores for one player
type Candidate struct {
	Fighter  models.Fighter
	Fit      float64
	Fairness float64
	Score    float64
}

// Scorer computes preference fit and fairness against an opponent
type Scorer struct {
	t      config.Tunables
	matrix models.WinMatrix
}

// NewScorer builds a scorer over a win matrix
func NewScorer(t config.Tunables, matrix models.WinMatrix) *Scorer {
	return &Scorer{t: t, matrix: matrix}
}

// Fit is the raw preference fit in [0,1]. It is zero when the fighter
// satisfies none of the stated preferences; Rank applies the pool floor.
func (s *Scorer) Fit(f models.Fighter, prefs models.PlayerPreferences) float64 {
	requested := uniqueTags(prefs.Playstyles)
	wantTags := len(requested) > 0
	wantRange := prefs.Range != ""

	if !wantTags && !wantRange {
		return s.t.NeutralFit
	}

	var tagScore float64
	if own := uniqueTags(f.Playstyles); wantTags && len(own) > 0 {
		overlap := 0
		for p := range own {
			if _, ok := requested[p]; ok {
				overlap++
			}
		}
		matchRatio := float64(overlap) / float64(len(own))
		coverage := float64(overlap) / float64(len(requested))
		tagScore = (s.t.MatchRatioWeight*matchRatio + s.t.CoverageWeight*coverage) /
			(s.t.MatchRatioWeight + s.t.CoverageWeight)
	}

	var rangeScore float64
	if wantRange && strings.EqualFold(string(f.Range), string(prefs.Range)) {
		rangeScore = 1
	}

	switch {
	case wantTags && wantRange:
		return (s.t.PlaystyleWeight*tagScore + s.t.RangeWeight*rangeScore) /
			(s.t.PlaystyleWeight + s.t.RangeWeight)
	case wantTags:
		return tagScore
	default:
		return rangeScore
	}
}

// Fairness scores a candidate against the opponent: 1 at a 50% win rate,
// decaying with distance from 50. A nil opponent or an unknown rate is neutral.
func (s *Scorer) Fairness(candidateID string, opponent *models.Fighter) float64 {
	if opponent == nil {
		return s.t.NeutralFairness
	}
	d, ok := winrate.Lookup(s.matrix, candidateID, opponent.ID).Distance()
	if !ok {
		return s.t.NeutralFairness
	}
	return s.curve(d / 50)
}

// FairnessOf scores a known win rate directly
func (s *Scorer) FairnessOf(r winrate.Rate) float64 {
	d, ok := r.Distance()
	if !ok {
		return s.t.NeutralFairness
	}
	return s.curve(d / 50)
}

func (s *Scorer) curve(x float64) float64 {
	x = math.Min(math.Max(x, 0), 1)
	if s.t.FairnessCurve == config.CurveQuadratic {
		return 1 - x*x
	}
	return 1 - x
}

// Score returns the raw fit and the fairness of one candidate
func (s *Scorer) Score(f models.Fighter, prefs models.PlayerPreferences, opponent *models.Fighter) (fit, fairness float64) {
	return s.Fit(f, prefs), s.Fairness(f.ID, opponent)
}

// Combined blends fairness and fit
func Combined(weight, fit, fairness float64) float64 {
	return weight*fairness + (1-weight)*fit
}

// FitFloor is the fit given to candidates matching no preference: a fixed
// share of the lowest nonzero fit in the pool, or the share itself when
// nothing matched.
func (s *Scorer) FitFloor(fits []float64) float64 {
	lowest := math.Inf(1)
	for _, f := range fits {
		if f > 0 && f < lowest {
			lowest = f
		}
	}
	if math.IsInf(lowest, 1) {
		return s.t.FitFloorRatio
	}
	return s.t.FitFloorRatio * lowest
}

// Fits returns the floored fit of every pool fighter, in pool order
func (s *Scorer) Fits(pool []models.Fighter, prefs models.PlayerPreferences) []float64 {
	fits := make([]float64, len(pool))
	for i, f := range pool {
		fits[i] = s.Fit(f, prefs)
	}
	floor := s.FitFloor(fits)
	for i := range fits {
		if fits[i] <= 0 {
			fits[i] = floor
		}
	}
	return fits
}

// Rank scores every pool fighter for a player against the opponent
func (s *Scorer) Rank(pool []models.Fighter, prefs models.PlayerPreferences, opponent *models.Fighter, weight float64) []Candidate {
	fits := s.Fits(pool, prefs)
	out := make([]Candidate, len(pool))
	for i, f := range pool {
		fair := s.Fairness(f.ID, opponent)
		out[i] = Candidate{
			Fighter:  f,
			Fit:      fits[i],
			Fairness: fair,
			Score:    Combined(weight, fits[i], fair),
		}
	}
	return out
}

func uniqueTags(tags []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out[t] = struct{}{}
		}
	}
	return out
}
