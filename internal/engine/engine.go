// Package engine turns a matchup request into a two-sided recommendation.
//
// Resolution order matters for the displayed fairness values and is fixed:
//
//  1. Player one's main is drawn first. It is scored against the opponent's
//     main when that is already pinned (locked or chosen directly), otherwise
//     against nobody, so fit alone drives the draw.
//  2. The opponent's main and alternatives are drawn against player one's main.
//  3. Player one's alternatives are drawn again against the opponent's final
//     main. Player one's main is not re-rolled.
//
// Pinned mains (locks and direct choices) skip scoring entirely.
package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/Billy-Davies-2/fighter-matchup/internal/board"
	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/config"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/metrics"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// Engine resolves matchups over an immutable catalog. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	catalog  *catalog.Catalog
	tunables config.Tunables
	scorer   *Scorer
	newRand  func() *rand.Rand
}

// Option configures an Engine
type Option func(*Engine)

// WithRand sets the per-request random source factory
func WithRand(fn func() *rand.Rand) Option {
	return func(e *Engine) { e.newRand = fn }
}

// New creates an engine
func New(cat *catalog.Catalog, t config.Tunables, opts ...Option) *Engine {
	e := &Engine{
		catalog:  cat,
		tunables: t,
		scorer:   NewScorer(t, cat.Matrix()),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the engine's catalog
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Tunables returns the engine's parameters
func (e *Engine) Tunables() config.Tunables { return e.tunables }

// Scorer returns the engine's scorer
func (e *Engine) Scorer() *Scorer { return e.scorer }

// Result is a resolved matchup. Engine conditions never surface as Go errors
// from Resolve; they are reported through Error and Notices.
type Result struct {
	ID             string           `json:"id"`
	Board          board.Board      `json:"board"`
	Locks          models.LockState `json:"locks"`
	FairnessWeight float64          `json:"fairness_weight"`
	Error          string           `json:"error,omitempty"`
	Notices        []string         `json:"notices,omitempty"`

	// Err is the sentinel behind Error, for callers using errors.Is
	Err error `json:"-"`
}

// Empty reports whether the result has no pairing
func (r *Result) Empty() bool {
	return r.Board.P1.Main == nil && r.Board.Opp.Main == nil
}

func (r *Result) notice(err error) {
	r.Notices = append(r.Notices, err.Error())
}

// Resolve runs one request with a fresh random source
func (e *Engine) Resolve(req models.MatchupRequest) *Result {
	return e.ResolveWith(req, e.newRand())
}

// ResolveWith runs one request with the given random source
func (e *Engine) ResolveWith(req models.MatchupRequest, rng *rand.Rand) *Result {
	start := time.Now()

	weight := e.tunables.FairnessWeight
	if req.FairnessWeight != nil {
		weight = *req.FairnessWeight
	}
	res := &Result{
		ID:             uuid.NewString(),
		Locks:          req.Locks,
		FairnessWeight: weight,
	}
	defer func() {
		metrics.RecordResolve(actionLabel(req.Action), errors.Is(res.Err, ErrEmptyPool), time.Since(start))
	}()

	pool := e.catalog.Filter(req.OwnedSets)
	switch {
	case len(req.OwnedSets) == 0:
		res.Err, res.Error = ErrEmptyPool, MsgNoSetsSelected
		return res
	case len(pool) == 0:
		res.Err, res.Error = ErrEmptyPool, MsgNoFightersInSet
		return res
	}
	inPool := make(map[string]models.Fighter, len(pool))
	for _, f := range pool {
		inPool[f.ID] = f
	}

	locks := e.applyAction(res, req.Locks, req.Action, inPool)

	pinned := map[models.Player]*models.Fighter{}
	direct := map[models.Player]bool{}
	for _, p := range []models.Player{models.PlayerOne, models.PlayerOpponent} {
		prefs := req.Prefs(p)
		if prefs.SelectionMethod == models.SelectionDirectChoice && prefs.ChosenFighterID != "" {
			if f, ok := inPool[prefs.ChosenFighterID]; ok {
				pinned[p] = &f
				direct[p] = true
				// a direct choice acts as a lock
				locks = locks.Set(p, f.ID)
				continue
			}
			metrics.UnknownFightersTotal.WithLabelValues(string(p)).Inc()
			res.notice(fmt.Errorf("%s choice %q: %w; suggesting instead", p, prefs.ChosenFighterID, ErrUnknownFighter))
		}
		if id := locks.Get(p); id != "" {
			f := inPool[id]
			pinned[p] = &f
		}
	}
	res.Locks = locks

	alts := e.tunables.AlternativeCount
	var p1Main, oppMain models.Fighter
	var p1Alts, oppAlts []Candidate

	if f := pinned[models.PlayerOne]; f != nil {
		p1Main = *f
	} else {
		cands := e.scorer.Rank(excluding(pool, true, idOf(pinned[models.PlayerOpponent])), req.P1, pinned[models.PlayerOpponent], weight)
		main, _, err := Draw(rng, cands, 0)
		if err != nil {
			res.Err, res.Error = err, MsgNoFightersInSet
			return res
		}
		p1Main = main.Fighter
	}

	if f := pinned[models.PlayerOpponent]; f != nil {
		oppMain = *f
		if !direct[models.PlayerOpponent] {
			oppAlts = Sample(rng, e.scorer.Rank(excluding(pool, false, oppMain.ID, p1Main.ID), req.Opp, &p1Main, weight), alts)
		}
	} else {
		cands := e.scorer.Rank(excluding(pool, true, p1Main.ID), req.Opp, &p1Main, weight)
		main, rest, err := Draw(rng, cands, alts)
		if err != nil {
			res.Err, res.Error = err, MsgNoFightersInSet
			return res
		}
		oppMain, oppAlts = main.Fighter, rest
	}

	if !direct[models.PlayerOne] {
		p1Alts = Sample(rng, e.scorer.Rank(excluding(pool, false, p1Main.ID, oppMain.ID), req.P1, &oppMain, weight), alts)
	}

	res.Board = board.Board{
		P1:  side(p1Main, p1Alts, locks.P1),
		Opp: side(oppMain, oppAlts, locks.Opp),
	}
	res.Board.Refresh(e.catalog.Matrix())

	logger.Debug("Matchup resolved",
		"id", res.ID,
		"action", req.Action.String(),
		"p1", p1Main.ID,
		"opp", oppMain.ID,
		"pool", len(pool),
		"fairness_weight", weight,
	)
	return res
}

// applyAction clears stale locks and then applies a lock or unlock action.
// A lock naming a fighter outside the pool is not applied.
func (e *Engine) applyAction(res *Result, locks models.LockState, action models.Action, inPool map[string]models.Fighter) models.LockState {
	for _, p := range []models.Player{models.PlayerOne, models.PlayerOpponent} {
		id := locks.Get(p)
		if id == "" {
			continue
		}
		if _, ok := inPool[id]; !ok {
			metrics.StaleLocksTotal.WithLabelValues(string(p)).Inc()
			res.notice(fmt.Errorf("%s lock %q cleared: %w", p, id, ErrInvalidLock))
			locks = locks.Set(p, "")
		}
	}

	switch action.Kind {
	case models.ActionLock:
		if _, ok := inPool[action.FighterID]; !ok {
			metrics.StaleLocksTotal.WithLabelValues(string(action.Player)).Inc()
			res.notice(fmt.Errorf("%s lock %q rejected: %w", action.Player, action.FighterID, ErrInvalidLock))
			break
		}
		locks = locks.Set(action.Player, action.FighterID)
	case models.ActionUnlock:
		locks = locks.Set(action.Player, "")
	}
	return locks
}

// Promote swaps an alternative into the main slot of a displayed board.
// An id that is not one of the player's alternatives leaves the board unchanged.
func (e *Engine) Promote(b *board.Board, p models.Player, fighterID string) error {
	if err := b.Promote(e.catalog.Matrix(), p, fighterID); err != nil {
		metrics.PromotionsTotal.WithLabelValues(string(p), "rejected").Inc()
		if errors.Is(err, board.ErrNotAlternative) {
			return fmt.Errorf("%w: %w", ErrUnknownFighter, err)
		}
		return err
	}
	metrics.PromotionsTotal.WithLabelValues(string(p), "ok").Inc()
	return nil
}

func side(main models.Fighter, alts []Candidate, lockedID string) board.Side {
	s := board.Side{
		Main:         &board.Entry{Fighter: main},
		Alternatives: make([]board.Entry, 0, len(alts)),
		LockedID:     lockedID,
	}
	for _, c := range alts {
		s.Alternatives = append(s.Alternatives, board.Entry{Fighter: c.Fighter})
	}
	return s
}

// excluding drops the given ids from the pool. With keepIfEmpty set, the
// full pool is returned when nothing would remain.
func excluding(pool []models.Fighter, keepIfEmpty bool, ids ...string) []models.Fighter {
	out := make([]models.Fighter, 0, len(pool))
	for _, f := range pool {
		skip := false
		for _, id := range ids {
			if id != "" && f.ID == id {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, f)
		}
	}
	if len(out) == 0 && keepIfEmpty {
		return pool
	}
	return out
}

func idOf(f *models.Fighter) string {
	if f == nil {
		return ""
	}
	return f.ID
}

func actionLabel(a models.Action) string {
	if a.Kind == "" {
		return string(models.ActionGenerate)
	}
	return string(a.Kind)
}
