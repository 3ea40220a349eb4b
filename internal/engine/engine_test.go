package engine

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/config"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

const (
	setLegends = "Battle of Legends"
	setFog     = "Cobble & Fog"
)

func testFighters() []models.Fighter {
	return []models.Fighter{
		{ID: "arthur", Name: "King Arthur", Set: setLegends, Playstyles: []string{"aggressive", "defensive"}, Range: models.RangeMelee},
		{ID: "medusa", Name: "Medusa", Set: setLegends, Playstyles: []string{"control", "ranged"}, Range: models.RangeRanged},
		{ID: "sinbad", Name: "Sinbad", Set: setLegends, Playstyles: []string{"aggressive", "scaling"}, Range: models.RangeMelee},
		{ID: "alice", Name: "Alice", Set: setLegends, Playstyles: []string{"tricky"}, Range: models.RangeMelee},
		{ID: "holmes", Name: "Sherlock Holmes", Set: setFog, Playstyles: []string{"control", "tricky"}, Range: models.RangeMelee},
		{ID: "dracula", Name: "Dracula", Set: setFog, Playstyles: []string{"aggressive"}, Range: models.RangeMelee},
		{ID: "jekyll", Name: "Dr. Jekyll", Set: setFog, Playstyles: []string{"aggressive", "tricky"}, Range: models.RangeMelee},
		{ID: "invisible", Name: "Invisible Man", Set: setFog, Playstyles: []string{"tricky"}, Range: models.RangeReach},
	}
}

func testMatrix() models.WinMatrix {
	return models.WinMatrix{
		"arthur":  {"medusa": 45, "sinbad": 52, "alice": 60, "holmes": 48},
		"medusa":  {"sinbad": 58, "alice": 40, "dracula": -2},
		"dracula": {"holmes": 50, "jekyll": 55, "invisible": 47},
		"holmes":  {"jekyll": 50},
	}
}

func newTestEngine(t *testing.T, mutate ...func(*config.Tunables)) *Engine {
	t.Helper()
	cat, err := catalog.New(catalog.Data{Fighters: testFighters(), Matrix: testMatrix()})
	require.NoError(t, err)
	tun := config.DefaultTunables()
	for _, m := range mutate {
		m(&tun)
	}
	require.NoError(t, tun.Validate())
	return New(cat, tun, WithRand(func() *rand.Rand { return rand.New(rand.NewPCG(7, 11)) }))
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func suggest(styles []string, r models.Range) models.PlayerPreferences {
	return models.PlayerPreferences{SelectionMethod: models.SelectionSuggest, Playstyles: styles, Range: r}
}

func generateRequest() models.MatchupRequest {
	return models.MatchupRequest{
		OwnedSets: []string{setLegends, setFog},
		P1:        suggest([]string{"aggressive"}, models.RangeMelee),
		Opp:       suggest([]string{"tricky"}, ""),
		Action:    models.Action{Kind: models.ActionGenerate},
	}
}

func mainID(t *testing.T, res *Result, p models.Player) string {
	t.Helper()
	s := res.Board.Side(p)
	require.NotNil(t, s.Main, "expected a main for %s", p)
	return s.Main.Fighter.ID
}

func TestResolveEmptyPool(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name  string
		owned []string
		msg   string
	}{
		{"no sets selected", nil, MsgNoSetsSelected},
		{"sets without fighters", []string{"Jurassic Park"}, MsgNoFightersInSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := generateRequest()
			req.OwnedSets = tt.owned
			res := e.Resolve(req)

			assert.ErrorIs(t, res.Err, ErrEmptyPool)
			assert.Equal(t, tt.msg, res.Error)
			assert.True(t, res.Empty())
			assert.Empty(t, res.Board.P1.Alternatives)
			assert.Empty(t, res.Board.Opp.Alternatives)
		})
	}
}

func TestResolveDistinctSuggestions(t *testing.T) {
	e := newTestEngine(t)

	for seed := uint64(0); seed < 200; seed++ {
		w := float64(seed%11) / 10
		req := generateRequest()
		req.FairnessWeight = &w

		res := e.ResolveWith(req, seeded(seed))
		require.Empty(t, res.Error)

		for _, p := range []models.Player{models.PlayerOne, models.PlayerOpponent} {
			s := res.Board.Side(p)
			ids := s.IDs()
			assert.LessOrEqual(t, len(s.Alternatives), e.Tunables().AlternativeCount)
			seen := map[string]bool{}
			for _, id := range ids {
				assert.False(t, seen[id], "seed %d: duplicate id %s for %s: %v", seed, id, p, ids)
				seen[id] = true
			}
		}
		assert.NotEqual(t, mainID(t, res, models.PlayerOne), mainID(t, res, models.PlayerOpponent),
			"seed %d: players should not share a main", seed)
		assert.Equal(t, w, res.FairnessWeight)
	}
}

func TestResolveWinRatesAgainstOpposingMain(t *testing.T) {
	e := newTestEngine(t)
	req := generateRequest()
	req.Locks = models.LockState{P1: "arthur", Opp: "medusa"}

	res := e.ResolveWith(req, seeded(1))
	require.Empty(t, res.Error)

	assert.Equal(t, "45.0%", res.Board.P1.Main.WinRate.String())
	assert.Equal(t, "55.0%", res.Board.Opp.Main.WinRate.String())
	for _, alt := range res.Board.P1.Alternatives {
		want := e.Catalog().WinRate(alt.Fighter.ID, "medusa")
		assert.Equal(t, want, alt.WinRate, "alternative %s", alt.Fighter.ID)
	}
	for _, alt := range res.Board.Opp.Alternatives {
		want := e.Catalog().WinRate(alt.Fighter.ID, "arthur")
		assert.Equal(t, want, alt.WinRate, "alternative %s", alt.Fighter.ID)
	}
}

// newFairnessOnlyEngine scores on fairness alone over a matrix where "anchor"
// has exactly one even matchup ("even"); every other pairing is a blowout.
func newFairnessOnlyEngine(t *testing.T) *Engine {
	t.Helper()
	fighters := []models.Fighter{
		{ID: "anchor", Name: "Anchor", Set: setLegends, Playstyles: []string{"control"}, Range: models.RangeMelee},
		{ID: "even", Name: "Even", Set: setLegends, Playstyles: []string{"control"}, Range: models.RangeMelee},
		{ID: "crush", Name: "Crush", Set: setLegends, Playstyles: []string{"control"}, Range: models.RangeMelee},
		{ID: "crushed", Name: "Crushed", Set: setLegends, Playstyles: []string{"control"}, Range: models.RangeMelee},
		{ID: "pivot", Name: "Pivot", Set: setLegends, Playstyles: []string{"control"}, Range: models.RangeMelee},
	}
	matrix := models.WinMatrix{
		"anchor": {"even": 50, "crush": 0, "crushed": 100, "pivot": 100},
		"pivot":  {"even": 0, "crush": 100, "crushed": 0},
	}
	cat, err := catalog.New(catalog.Data{Fighters: fighters, Matrix: matrix})
	require.NoError(t, err)
	tun := config.DefaultTunables()
	tun.FairnessWeight = 1
	tun.AlternativeCount = 1
	require.NoError(t, tun.Validate())
	return New(cat, tun)
}

func fairnessOnlyRequest(locks models.LockState) models.MatchupRequest {
	return models.MatchupRequest{
		OwnedSets: []string{setLegends},
		P1:        suggest(nil, ""),
		Opp:       suggest(nil, ""),
		Locks:     locks,
	}
}

func TestOpponentIsScoredAgainstPlayerOneMain(t *testing.T) {
	e := newFairnessOnlyEngine(t)
	for seed := uint64(0); seed < 200; seed++ {
		res := e.ResolveWith(fairnessOnlyRequest(models.LockState{P1: "anchor"}), seeded(seed))
		require.Empty(t, res.Error)
		require.Equal(t, "even", mainID(t, res, models.PlayerOpponent), "seed %d", seed)
	}
}

func TestPlayerOneMainIsScoredAgainstPinnedOpponent(t *testing.T) {
	e := newFairnessOnlyEngine(t)
	for seed := uint64(0); seed < 200; seed++ {
		res := e.ResolveWith(fairnessOnlyRequest(models.LockState{Opp: "anchor"}), seeded(seed))
		require.Empty(t, res.Error)
		require.Equal(t, "even", mainID(t, res, models.PlayerOne), "seed %d", seed)
	}
}

func TestPlayerOneAlternativesAreScoredAgainstOpponentMain(t *testing.T) {
	e := newFairnessOnlyEngine(t)
	for seed := uint64(0); seed < 200; seed++ {
		// pivot has no even matchup, so scoring against player one's main
		// would leave every alternative at zero and fall back to uniform
		res := e.ResolveWith(fairnessOnlyRequest(models.LockState{P1: "pivot", Opp: "anchor"}), seeded(seed))
		require.Empty(t, res.Error)
		require.Len(t, res.Board.P1.Alternatives, 1)
		require.Equal(t, "even", res.Board.P1.Alternatives[0].Fighter.ID, "seed %d", seed)
	}
}

func TestLockKeepsMainAcrossGenerates(t *testing.T) {
	e := newTestEngine(t)

	req := generateRequest()
	req.Action = models.Action{Kind: models.ActionLock, Player: models.PlayerOne, FighterID: "alice"}
	res := e.ResolveWith(req, seeded(1))
	require.Empty(t, res.Notices)
	assert.Equal(t, "alice", res.Locks.P1)
	assert.Equal(t, "alice", mainID(t, res, models.PlayerOne))
	assert.True(t, res.Board.P1.Locked())

	styles := [][]string{{"control"}, {"aggressive"}, nil, {"scaling", "ranged"}}
	for i := 0; i < 40; i++ {
		next := generateRequest()
		next.Locks = res.Locks
		next.P1 = suggest(styles[i%len(styles)], models.Ranges[i%len(models.Ranges)])
		out := e.ResolveWith(next, seeded(uint64(i)))

		assert.Equal(t, "alice", mainID(t, out, models.PlayerOne))
		assert.NotContains(t, out.Board.P1.IDs()[1:], "alice")
		assert.NotEmpty(t, out.Board.P1.Alternatives, "locked players still get alternatives")
	}
}

func TestUnlockRestoresSampling(t *testing.T) {
	e := newTestEngine(t)

	req := generateRequest()
	req.Locks = models.LockState{P1: "medusa"}
	req.Action = models.Action{Kind: models.ActionUnlock, Player: models.PlayerOne}
	res := e.ResolveWith(req, seeded(3))
	assert.Empty(t, res.Locks.P1)
	assert.False(t, res.Board.P1.Locked())

	// medusa fits none of the stated preferences, so unlocked sampling rarely picks it
	others := 0
	for seed := uint64(0); seed < 50; seed++ {
		next := generateRequest()
		next.Locks = res.Locks
		if mainID(t, e.ResolveWith(next, seeded(seed)), models.PlayerOne) != "medusa" {
			others++
		}
	}
	assert.Greater(t, others, 35)
}

func TestLockOutsidePoolIsRejected(t *testing.T) {
	e := newTestEngine(t)

	req := generateRequest()
	req.OwnedSets = []string{setFog}
	req.Locks = models.LockState{Opp: "holmes"}
	req.Action = models.Action{Kind: models.ActionLock, Player: models.PlayerOne, FighterID: "arthur"}

	res := e.ResolveWith(req, seeded(5))
	require.Len(t, res.Notices, 1)
	assert.Contains(t, res.Notices[0], ErrInvalidLock.Error())
	assert.Empty(t, res.Locks.P1, "rejected lock must not be applied")
	assert.Equal(t, "holmes", res.Locks.Opp)
	assert.NotEqual(t, "arthur", mainID(t, res, models.PlayerOne))
	assert.Empty(t, res.Error, "an invalid lock is not fatal")
}

func TestStaleLockIsCleared(t *testing.T) {
	e := newTestEngine(t)

	req := generateRequest()
	req.OwnedSets = []string{setFog}
	req.Locks = models.LockState{P1: "arthur"}

	res := e.ResolveWith(req, seeded(9))
	assert.Empty(t, res.Locks.P1)
	require.Len(t, res.Notices, 1)
	assert.Contains(t, res.Notices[0], "arthur")

	f, ok := e.Catalog().Find(mainID(t, res, models.PlayerOne))
	require.True(t, ok)
	assert.Equal(t, setFog, f.Set)
}

func TestDirectChoice(t *testing.T) {
	e := newTestEngine(t)

	req := generateRequest()
	req.P1 = models.PlayerPreferences{SelectionMethod: models.SelectionDirectChoice, ChosenFighterID: "holmes"}

	res := e.ResolveWith(req, seeded(2))
	assert.Equal(t, "holmes", mainID(t, res, models.PlayerOne))
	assert.Empty(t, res.Board.P1.Alternatives, "direct choices are never replaced by alternatives")
	assert.Equal(t, "holmes", res.Locks.P1, "a direct choice acts as a lock")
	assert.NotEqual(t, "holmes", mainID(t, res, models.PlayerOpponent))
	assert.NotEmpty(t, res.Board.Opp.Alternatives)
}

func TestDirectChoiceUnknownFallsBackToSuggest(t *testing.T) {
	e := newTestEngine(t)

	req := generateRequest()
	req.P1 = models.PlayerPreferences{
		SelectionMethod: models.SelectionDirectChoice,
		ChosenFighterID: "bigfoot",
		Playstyles:      []string{"aggressive"},
	}

	res := e.ResolveWith(req, seeded(2))
	require.Len(t, res.Notices, 1)
	assert.Contains(t, res.Notices[0], ErrUnknownFighter.Error())
	assert.NotEmpty(t, res.Board.P1.Alternatives)
	assert.Empty(t, res.Locks.P1)
	assert.Empty(t, res.Error)
}

func TestSingleFighterPool(t *testing.T) {
	cat, err := catalog.New(catalog.Data{Fighters: testFighters()[:1]})
	require.NoError(t, err)
	e := New(cat, config.DefaultTunables())

	res := e.ResolveWith(models.MatchupRequest{OwnedSets: []string{setLegends}}, seeded(1))
	require.Empty(t, res.Error)
	assert.Equal(t, "arthur", mainID(t, res, models.PlayerOne))
	assert.Equal(t, "arthur", mainID(t, res, models.PlayerOpponent))
	assert.Empty(t, res.Board.P1.Alternatives)
	assert.Empty(t, res.Board.Opp.Alternatives)
}

func TestUnderSupplyReturnsWhatIsAvailable(t *testing.T) {
	e := newTestEngine(t, func(tun *config.Tunables) { tun.AlternativeCount = 10 })

	req := generateRequest()
	req.OwnedSets = []string{setLegends}
	res := e.ResolveWith(req, seeded(4))

	require.Empty(t, res.Error)
	assert.Len(t, res.Board.Opp.Alternatives, 2, "four fighters minus both mains")
	assert.Len(t, res.Board.P1.Alternatives, 2)
}

func TestEnginePromote(t *testing.T) {
	e := newTestEngine(t)
	req := generateRequest()
	req.Locks = models.LockState{Opp: "medusa"}
	res := e.ResolveWith(req, seeded(8))
	require.NotEmpty(t, res.Board.P1.Alternatives)

	previous := mainID(t, res, models.PlayerOne)
	target := res.Board.P1.Alternatives[0].Fighter.ID

	require.NoError(t, e.Promote(&res.Board, models.PlayerOne, target))
	assert.Equal(t, target, mainID(t, res, models.PlayerOne))
	assert.Contains(t, res.Board.P1.IDs()[1:], previous)
	assert.Equal(t, "medusa", res.Board.Opp.LockedID)
	assert.Equal(t, e.Catalog().WinRate("medusa", target), res.Board.Opp.Main.WinRate)

	err := e.Promote(&res.Board, models.PlayerOne, "bigfoot")
	assert.ErrorIs(t, err, ErrUnknownFighter)
	assert.Equal(t, target, mainID(t, res, models.PlayerOne))
}

func TestResolveIsDeterministicForSeed(t *testing.T) {
	e := newTestEngine(t)
	a := e.ResolveWith(generateRequest(), seeded(42))
	b := e.ResolveWith(generateRequest(), seeded(42))
	assert.Equal(t, a.Board.P1.IDs(), b.Board.P1.IDs())
	assert.Equal(t, a.Board.Opp.IDs(), b.Board.Opp.IDs())
	assert.NotEqual(t, a.ID, b.ID, "every result gets its own id")
}

func TestValidateRequest(t *testing.T) {
	bad := 1.5
	tests := []struct {
		name   string
		req    models.MatchupRequest
		fields []string
	}{
		{"valid", generateRequest(), nil},
		{"bad selection method", models.MatchupRequest{P1: models.PlayerPreferences{SelectionMethod: "random"}}, []string{"p1.selection_method"}},
		{"bad range", models.MatchupRequest{Opp: models.PlayerPreferences{Range: "Artillery"}}, []string{"opp.range"}},
		{"spaced range is valid", models.MatchupRequest{Opp: models.PlayerPreferences{Range: models.RangeRangedAssist}}, nil},
		{"fairness weight bounds", models.MatchupRequest{FairnessWeight: &bad}, []string{"fairness_weight"}},
		{"empty set name", models.MatchupRequest{OwnedSets: []string{""}}, []string{"owned_sets[0]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(&tt.req)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f, fmt.Sprintf("fields: %v", verr.Fields))
			}
		})
	}
}
