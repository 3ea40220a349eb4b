package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Fairness decay curves
const (
	CurveLinear    = "linear"
	CurveQuadratic = "quadratic"
)

// Tunables are the engine's scoring and sampling parameters
type Tunables struct {
	FairnessWeight   float64 `toml:"fairness_weight"`    // default weight of fairness vs fit
	AlternativeCount int     `toml:"alternative_count"`  // alternatives shown per player
	PlaystyleWeight  float64 `toml:"playstyle_weight"`   // share of fit from playstyles when range is also requested
	RangeWeight      float64 `toml:"range_weight"`       // share of fit from range when playstyles are also requested
	MatchRatioWeight float64 `toml:"match_ratio_weight"` // |overlap| / |fighter tags|
	CoverageWeight   float64 `toml:"coverage_weight"`    // |overlap| / |requested tags|
	NeutralFit       float64 `toml:"neutral_fit"`        // fit when no preference is stated
	FitFloorRatio    float64 `toml:"fit_floor_ratio"`    // zero-fit candidates get this share of the pool's lowest nonzero fit
	NeutralFairness  float64 `toml:"neutral_fairness"`   // fairness against an unknown or unresolved opponent
	FairnessCurve    string  `toml:"fairness_curve"`     // linear | quadratic

	Batch BatchTunables `toml:"batch"`
	Pools PoolTunables  `toml:"pools"`
}

// BatchTunables configure batch matchup generation
type BatchTunables struct {
	Size       int `toml:"size"`
	MaxRepeats int `toml:"max_repeats"`
	TopN       int `toml:"top_n"`
}

// PoolTunables configure fair pool generation
type PoolTunables struct {
	EliteK      int     `toml:"elite_k"`
	P1Size      int     `toml:"p1_size"`
	OppSize     int     `toml:"opp_size"`
	FairMin     float64 `toml:"fair_min"`
	FairMax     float64 `toml:"fair_max"`
	OpponentTop int     `toml:"opponent_top"` // default quantity for opponent recommendations
}

// DefaultTunables returns the built-in parameters
func DefaultTunables() Tunables {
	return Tunables{
		FairnessWeight:   0.4,
		AlternativeCount: 3,
		PlaystyleWeight:  0.7,
		RangeWeight:      0.3,
		MatchRatioWeight: 0.4,
		CoverageWeight:   0.6,
		NeutralFit:       0.5,
		FitFloorRatio:    0.25,
		NeutralFairness:  1.0,
		FairnessCurve:    CurveLinear,
		Batch: BatchTunables{
			Size:       10,
			MaxRepeats: 3,
			TopN:       10,
		},
		Pools: PoolTunables{
			EliteK:      12,
			P1Size:      5,
			OppSize:     3,
			FairMin:     1,
			FairMax:     99,
			OpponentTop: 5,
		},
	}
}

// LoadTunables reads a TOML file over the defaults. A missing file yields the defaults.
func LoadTunables(path string) (Tunables, error) {
	t := DefaultTunables()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("read engine config: %w", err)
	}

	if err := toml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse engine config: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("engine config %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects parameters the engine cannot work with
func (t Tunables) Validate() error {
	unit := func(name string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
		return nil
	}
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"fairness_weight", t.FairnessWeight},
		{"playstyle_weight", t.PlaystyleWeight},
		{"range_weight", t.RangeWeight},
		{"match_ratio_weight", t.MatchRatioWeight},
		{"coverage_weight", t.CoverageWeight},
		{"neutral_fit", t.NeutralFit},
		{"neutral_fairness", t.NeutralFairness},
	} {
		if err := unit(c.name, c.v); err != nil {
			return err
		}
	}

	if t.NeutralFit == 0 {
		return fmt.Errorf("neutral_fit must be positive")
	}
	if math.IsNaN(t.FitFloorRatio) || t.FitFloorRatio <= 0 || t.FitFloorRatio >= 1 {
		return fmt.Errorf("fit_floor_ratio must be within (0,1), got %v", t.FitFloorRatio)
	}
	if t.PlaystyleWeight+t.RangeWeight == 0 {
		return fmt.Errorf("playstyle_weight and range_weight cannot both be zero")
	}
	if t.MatchRatioWeight+t.CoverageWeight == 0 {
		return fmt.Errorf("match_ratio_weight and coverage_weight cannot both be zero")
	}
	if t.FairnessCurve != CurveLinear && t.FairnessCurve != CurveQuadratic {
		return fmt.Errorf("fairness_curve must be %q or %q, got %q", CurveLinear, CurveQuadratic, t.FairnessCurve)
	}
	if t.AlternativeCount < 0 {
		return fmt.Errorf("alternative_count cannot be negative: %d", t.AlternativeCount)
	}

	if t.Batch.Size < 1 || t.Batch.MaxRepeats < 1 || t.Batch.TopN < 1 {
		return fmt.Errorf("batch size, max_repeats and top_n must be positive")
	}
	p := t.Pools
	if p.P1Size < 1 || p.OppSize < 1 || p.OpponentTop < 1 {
		return fmt.Errorf("pool sizes must be positive")
	}
	if p.EliteK < max(p.P1Size, p.OppSize) {
		return fmt.Errorf("pools.elite_k (%d) must cover the larger pool size", p.EliteK)
	}
	if math.IsNaN(p.FairMin) || math.IsNaN(p.FairMax) || p.FairMin < 0 || p.FairMax > 100 || p.FairMin > p.FairMax {
		return fmt.Errorf("pools fair range [%v,%v] is invalid", p.FairMin, p.FairMax)
	}
	return nil
}
