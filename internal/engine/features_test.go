package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/config"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
	"github.com/Billy-Davies-2/fighter-matchup/internal/winrate"
)

func TestRecommendOpponents(t *testing.T) {
	e := newTestEngine(t)
	pool := e.Catalog().Filter([]string{setLegends, setFog})
	arthur, _ := e.Catalog().Find("arthur")

	recs := e.RecommendOpponents(arthur, pool, suggest(nil, ""), 3, 1)
	require.Len(t, recs, 3)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score)
	}
	for _, r := range recs {
		assert.NotEqual(t, "arthur", r.Fighter.ID)
	}
	// pure fairness: 52% and unknown (neutral) outrank 60%
	assert.NotEqual(t, "alice", recs[0].Fighter.ID)

	all := e.RecommendOpponents(arthur, pool, suggest(nil, ""), 0, 0.4)
	assert.Len(t, all, e.Tunables().Pools.OpponentTop)
}

func TestRecommendOpponentsWinRates(t *testing.T) {
	e := newTestEngine(t)
	pool := e.Catalog().Filter([]string{setLegends})
	medusa, _ := e.Catalog().Find("medusa")

	recs := e.RecommendOpponents(medusa, pool, suggest([]string{"aggressive"}, ""), 10, 0.4)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Equal(t, winrate.Lookup(e.Catalog().Matrix(), "medusa", r.Fighter.ID), r.WinRate)
	}
}

func TestGenerateBatch(t *testing.T) {
	e := newTestEngine(t)
	pool := e.Catalog().Filter([]string{setLegends, setFog})

	pairs, err := e.GenerateBatch(seeded(3), pool, suggest([]string{"aggressive"}, ""), suggest([]string{"tricky"}, ""), 20, 0.4)
	require.NoError(t, err)
	assert.Len(t, pairs, 20)

	p1 := map[string]int{}
	opp := map[string]int{}
	for _, p := range pairs {
		assert.NotEqual(t, p.P1.ID, p.Opp.ID)
		p1[p.P1.ID]++
		opp[p.Opp.ID]++
	}
	for id, n := range p1 {
		assert.LessOrEqual(t, n, e.Tunables().Batch.MaxRepeats, "p1 %s", id)
	}
	for id, n := range opp {
		assert.LessOrEqual(t, n, e.Tunables().Batch.MaxRepeats, "opp %s", id)
	}
}

func TestGenerateBatchStopsWhenExhausted(t *testing.T) {
	e := newTestEngine(t)
	pool := e.Catalog().Filter([]string{setLegends})[:2]

	// two fighters give two ordered pairs; each side caps at three repeats
	pairs, err := e.GenerateBatch(seeded(1), pool, suggest(nil, ""), suggest(nil, ""), 50, 0.4)
	require.NoError(t, err)
	assert.Len(t, pairs, 6)

	_, err = e.GenerateBatch(seeded(1), pool[:1], suggest(nil, ""), suggest(nil, ""), 5, 0.4)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestGenerateFairPools(t *testing.T) {
	e := newTestEngine(t, func(tun *config.Tunables) {
		tun.Pools.P1Size = 3
		tun.Pools.OppSize = 2
		tun.Pools.FairMin = 45
		tun.Pools.FairMax = 55
	})
	pool := e.Catalog().Filter([]string{setLegends, setFog})

	res, err := e.GenerateFairPools(seeded(2), pool, suggest([]string{"aggressive"}, ""), suggest([]string{"tricky"}, ""), 0.4)
	require.NoError(t, err)
	require.Len(t, res.P1, 3)
	require.Len(t, res.Opp, 2)

	for _, a := range res.P1 {
		for _, b := range res.Opp {
			assert.NotEqual(t, a.ID, b.ID, "pools must be disjoint")
			wr := winrate.Lookup(e.Catalog().Matrix(), a.ID, b.ID).Or(50)
			assert.True(t, wr >= 45 && wr <= 55, "%s vs %s = %v", a.ID, b.ID, wr)
		}
	}
	assert.Greater(t, res.Score, 0.0)
}

func TestGenerateFairPoolsNoCombination(t *testing.T) {
	e := newTestEngine(t)
	pool := e.Catalog().Filter([]string{setLegends})

	_, err := e.GenerateFairPools(seeded(1), pool, suggest(nil, ""), suggest(nil, ""), 0.4)
	assert.ErrorIs(t, err, ErrNoFairPool, "four fighters cannot fill a pool of five")

	lopsided := models.WinMatrix{}
	fighters := make([]models.Fighter, 0, 10)
	for i := range 10 {
		id := fmt.Sprintf("f%d", i)
		fighters = append(fighters, models.Fighter{ID: id, Name: id, Set: "S", Playstyles: []string{"x"}, Range: models.RangeMelee})
		lopsided[id] = map[string]float64{}
	}
	for i := range 10 {
		for j := i + 1; j < 10; j++ {
			lopsided[fmt.Sprintf("f%d", i)][fmt.Sprintf("f%d", j)] = 100
		}
	}
	cat, err := catalog.New(catalog.Data{Fighters: fighters, Matrix: lopsided})
	require.NoError(t, err)
	e = New(cat, config.DefaultTunables())

	_, err = e.GenerateFairPools(seeded(1), cat.Fighters(), suggest(nil, ""), suggest(nil, ""), 0.4)
	assert.ErrorIs(t, err, ErrNoFairPool)
}

func TestGenerateFairPoolsNoPositionalBias(t *testing.T) {
	fighters := make([]models.Fighter, 0, 30)
	for i := range 30 {
		id := fmt.Sprintf("fighter_%02d", i)
		fighters = append(fighters, models.Fighter{
			ID: id, Name: id, Set: fmt.Sprintf("Set %d", i/5),
			Playstyles: []string{"aggressive", "defensive"}, Range: models.RangeMelee,
		})
	}
	cat, err := catalog.New(catalog.Data{Fighters: fighters})
	require.NoError(t, err)
	e := New(cat, config.DefaultTunables())

	early := 0
	runs := 50
	for seed := range runs {
		res, err := e.GenerateFairPools(seeded(uint64(seed)), cat.Fighters(),
			suggest([]string{"aggressive"}, models.RangeMelee), suggest([]string{"defensive"}, models.RangeMelee), 0.4)
		require.NoError(t, err)
		var pos int
		_, err = fmt.Sscanf(res.P1[0].ID, "fighter_%d", &pos)
		require.NoError(t, err)
		if pos < 10 {
			early++
		}
	}
	assert.Less(t, early, runs*7/10, "the first third of the input should not dominate")
}

func TestCombinations(t *testing.T) {
	got := combinations([]int{1, 2, 3, 4}, 2)
	assert.Equal(t, [][]int{{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}}, got)
	assert.Empty(t, combinations([]int{1}, 2))
}

func TestMoveToFront(t *testing.T) {
	fs := []models.Fighter{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	moveToFront(fs, "c")
	assert.Equal(t, []string{"c", "a", "b"}, []string{fs[0].ID, fs[1].ID, fs[2].ID})
}
