package engine

import (
	"fmt"

	"github.com/Billy-Davies-2/fighter-matchup/internal/board"
	"github.com/Billy-Davies-2/fighter-matchup/internal/metrics"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// PromoteRequest asks the server to run a promote on a displayed board
type PromoteRequest struct {
	Board     board.Board   `json:"board"`
	Player    models.Player `json:"player" validate:"oneof=p1 opp"`
	FighterID string        `json:"fighter_id" validate:"required"`
}

// Weight returns the request override or the configured fairness weight
func (e *Engine) Weight(override *float64) float64 {
	if override != nil {
		return *override
	}
	return e.tunables.FairnessWeight
}

// pool filters the catalog, reporting an empty selection the way Resolve does
func (e *Engine) pool(ownedSets []string) ([]models.Fighter, error) {
	if len(ownedSets) == 0 {
		return nil, &emptyPoolError{MsgNoSetsSelected}
	}
	pool := e.catalog.Filter(ownedSets)
	if len(pool) == 0 {
		return nil, &emptyPoolError{MsgNoFightersInSet}
	}
	return pool, nil
}

// Opponents ranks opponents for the requested fighter within the owned sets
func (e *Engine) Opponents(req models.OpponentsRequest) (recs []Recommendation, err error) {
	defer func() { metrics.RecordFeature("opponents", err) }()

	pool, err := e.pool(req.OwnedSets)
	if err != nil {
		return nil, err
	}
	var fighter *models.Fighter
	for i := range pool {
		if pool[i].ID == req.FighterID {
			fighter = &pool[i]
			break
		}
	}
	if fighter == nil {
		return nil, fmt.Errorf("%q: %w", req.FighterID, ErrUnknownFighter)
	}
	return e.RecommendOpponents(*fighter, pool, req.Opp, req.Quantity, e.Weight(req.FairnessWeight)), nil
}

// Batch draws a batch of pairings within the owned sets
func (e *Engine) Batch(req models.PairingRequest) (pairs []Pair, err error) {
	defer func() { metrics.RecordFeature("batch", err) }()

	pool, err := e.pool(req.OwnedSets)
	if err != nil {
		return nil, err
	}
	return e.GenerateBatch(e.newRand(), pool, req.P1, req.Opp, req.Quantity, e.Weight(req.FairnessWeight))
}

// FairPools builds fair player pools within the owned sets
func (e *Engine) FairPools(req models.PairingRequest) (pools *Pools, err error) {
	defer func() { metrics.RecordFeature("pools", err) }()

	pool, err := e.pool(req.OwnedSets)
	if err != nil {
		return nil, err
	}
	return e.GenerateFairPools(e.newRand(), pool, req.P1, req.Opp, e.Weight(req.FairnessWeight))
}

// PromoteBoard validates and applies a promote request. A rejected promote
// returns the board unchanged along with the error.
func (e *Engine) PromoteBoard(req PromoteRequest) (board.Board, error) {
	if err := Validate(&req); err != nil {
		return req.Board, err
	}
	b := req.Board
	err := e.Promote(&b, req.Player, req.FighterID)
	return b, err
}
