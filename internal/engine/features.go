package engine

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
	"github.com/Billy-Davies-2/fighter-matchup/internal/winrate"
)

// Recommendation is one ranked opponent for a fixed fighter
type Recommendation struct {
	Fighter models.Fighter `json:"fighter"`
	Score   float64        `json:"score"`
	WinRate winrate.Rate   `json:"win_rate"`
}

// Pair is one scored pairing
type Pair struct {
	P1      models.Fighter `json:"p1"`
	Opp     models.Fighter `json:"opp"`
	Score   float64        `json:"score"`
	WinRate winrate.Rate   `json:"win_rate"`
}

// Pools is a pair of fighter pools where every cross pairing is fair
type Pools struct {
	P1    []models.Fighter `json:"p1_pool"`
	Opp   []models.Fighter `json:"opp_pool"`
	Score float64          `json:"total_score"`
}

// RecommendOpponents ranks every other pool fighter as an opponent for f,
// blending fairness against f with fit to the opponent's preferences.
// A quantity below one uses the configured default.
func (e *Engine) RecommendOpponents(f models.Fighter, pool []models.Fighter, prefs models.PlayerPreferences, quantity int, weight float64) []Recommendation {
	if quantity < 1 {
		quantity = e.tunables.Pools.OpponentTop
	}
	others := excluding(pool, false, f.ID)
	fits := e.scorer.Fits(others, prefs)

	recs := make([]Recommendation, len(others))
	for i, opp := range others {
		rate := winrate.Lookup(e.catalog.Matrix(), f.ID, opp.ID)
		recs[i] = Recommendation{
			Fighter: opp,
			Score:   Combined(weight, fits[i], e.scorer.FairnessOf(rate)),
			WinRate: rate,
		}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > quantity {
		recs = recs[:quantity]
	}
	return recs
}

// scorePairs scores every ordered pair of distinct pool fighters, best first
func (e *Engine) scorePairs(pool []models.Fighter, p1Prefs, oppPrefs models.PlayerPreferences, weight float64) []Pair {
	p1Fits := e.scorer.Fits(pool, p1Prefs)
	oppFits := e.scorer.Fits(pool, oppPrefs)

	pairs := make([]Pair, 0, len(pool)*(len(pool)-1))
	for i, a := range pool {
		for j, b := range pool {
			if a.ID == b.ID {
				continue
			}
			rate := winrate.Lookup(e.catalog.Matrix(), a.ID, b.ID)
			pairs = append(pairs, Pair{
				P1:      a,
				Opp:     b,
				Score:   Combined(weight, (p1Fits[i]+oppFits[j])/2, e.scorer.FairnessOf(rate)),
				WinRate: rate,
			})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	return pairs
}

// GenerateBatch draws up to quantity pairings. Each draw is a weighted choice
// among the best eligible pairs; a fighter stops being eligible on a side
// once it has appeared there the configured number of times.
func (e *Engine) GenerateBatch(rng *rand.Rand, pool []models.Fighter, p1Prefs, oppPrefs models.PlayerPreferences, quantity int, weight float64) ([]Pair, error) {
	if len(pool) < 2 {
		return nil, fmt.Errorf("batch needs two fighters, have %d: %w", len(pool), ErrEmptyPool)
	}
	if quantity < 1 {
		quantity = e.tunables.Batch.Size
	}
	bt := e.tunables.Batch

	all := e.scorePairs(pool, p1Prefs, oppPrefs, weight)
	p1Count := map[string]int{}
	oppCount := map[string]int{}

	out := make([]Pair, 0, quantity)
	for range quantity {
		eligible := make([]Pair, 0, bt.TopN)
		for _, p := range all {
			if p1Count[p.P1.ID] < bt.MaxRepeats && oppCount[p.Opp.ID] < bt.MaxRepeats {
				eligible = append(eligible, p)
				if len(eligible) == bt.TopN {
					break
				}
			}
		}
		if len(eligible) == 0 {
			break
		}
		chosen := eligible[pick(rng, eligible, func(p Pair) float64 { return p.Score })]
		p1Count[chosen.P1.ID]++
		oppCount[chosen.Opp.ID]++
		out = append(out, chosen)
	}
	return out, nil
}

// GenerateFairPools picks a player one pool and an opponent pool from the
// best-fitting candidates of each side so every cross pairing falls within
// the fair win-rate band, maximizing mean fit on both sides. Candidates are
// shuffled first so equal fits carry no positional bias. The best-scoring
// cross pair leads each returned pool.
func (e *Engine) GenerateFairPools(rng *rand.Rand, pool []models.Fighter, p1Prefs, oppPrefs models.PlayerPreferences, weight float64) (*Pools, error) {
	pt := e.tunables.Pools
	if len(pool) < max(pt.P1Size, pt.OppSize) {
		return nil, fmt.Errorf("pool of %d is smaller than the requested pool sizes: %w", len(pool), ErrNoFairPool)
	}

	shuffled := make([]models.Fighter, len(pool))
	copy(shuffled, pool)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	p1Fits := e.scorer.Fits(shuffled, p1Prefs)
	oppFits := e.scorer.Fits(shuffled, oppPrefs)
	p1Elite := elite(p1Fits, pt.EliteK)
	oppElite := elite(oppFits, pt.EliteK)

	fair := e.fairnessSets(shuffled)

	var best *Pools
	bestScore := -1.0
	oppCombos := combinations(oppElite, pt.OppSize)

	forEachCombination(p1Elite, pt.P1Size, func(p1Idx []int) {
		// opponents fair against every member of this player one pool
		universe := make(map[int]struct{}, len(fair[p1Idx[0]]))
		for idx := range fair[p1Idx[0]] {
			universe[idx] = struct{}{}
		}
		for _, i := range p1Idx[1:] {
			for idx := range universe {
				if _, ok := fair[i][idx]; !ok {
					delete(universe, idx)
				}
			}
		}
		if len(universe) < pt.OppSize {
			return
		}

		p1Mean := mean(p1Fits, p1Idx)
		for _, oppIdx := range oppCombos {
			if !subset(oppIdx, universe) {
				continue
			}
			total := p1Mean + mean(oppFits, oppIdx)
			if total > bestScore {
				bestScore = total
				best = &Pools{
					P1:    pickFighters(shuffled, p1Idx),
					Opp:   pickFighters(shuffled, oppIdx),
					Score: total,
				}
			}
		}
	})

	if best == nil {
		return nil, ErrNoFairPool
	}

	lead := e.scorePairs(append(append([]models.Fighter{}, best.P1...), best.Opp...), p1Prefs, oppPrefs, weight)
	for _, p := range lead {
		if containsID(best.P1, p.P1.ID) && containsID(best.Opp, p.Opp.ID) {
			moveToFront(best.P1, p.P1.ID)
			moveToFront(best.Opp, p.Opp.ID)
			break
		}
	}
	return best, nil
}

// fairnessSets maps each index to the indexes it is fair against. Unknown
// rates count as 50. A fighter is never fair against itself, which keeps
// the two pools disjoint.
func (e *Engine) fairnessSets(pool []models.Fighter) []map[int]struct{} {
	pt := e.tunables.Pools
	out := make([]map[int]struct{}, len(pool))
	for i, a := range pool {
		out[i] = make(map[int]struct{})
		for j, b := range pool {
			if i == j {
				continue
			}
			wr := winrate.Lookup(e.catalog.Matrix(), a.ID, b.ID).Or(50)
			if wr >= pt.FairMin && wr <= pt.FairMax {
				out[i][j] = struct{}{}
			}
		}
	}
	return out
}

func elite(fits []float64, k int) []int {
	idx := make([]int, len(fits))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return fits[idx[a]] > fits[idx[b]] })
	if len(idx) > k {
		idx = idx[:k]
	}
	return idx
}

func forEachCombination(items []int, k int, fn func([]int)) {
	if k > len(items) || k < 1 {
		return
	}
	buf := make([]int, k)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == k {
			fn(buf)
			return
		}
		for i := start; i <= len(items)-(k-depth); i++ {
			buf[depth] = items[i]
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
}

func combinations(items []int, k int) [][]int {
	var out [][]int
	forEachCombination(items, k, func(c []int) {
		out = append(out, append([]int(nil), c...))
	})
	return out
}

func subset(idx []int, set map[int]struct{}) bool {
	for _, i := range idx {
		if _, ok := set[i]; !ok {
			return false
		}
	}
	return true
}

func mean(values []float64, idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += values[i]
	}
	return sum / float64(len(idx))
}

func pickFighters(pool []models.Fighter, idx []int) []models.Fighter {
	out := make([]models.Fighter, len(idx))
	for n, i := range idx {
		out[n] = pool[i]
	}
	return out
}

func containsID(fs []models.Fighter, id string) bool {
	for _, f := range fs {
		if f.ID == id {
			return true
		}
	}
	return false
}

func moveToFront(fs []models.Fighter, id string) {
	for i, f := range fs {
		if f.ID == id {
			copy(fs[1:i+1], fs[:i])
			fs[0] = f
			return
		}
	}
}
