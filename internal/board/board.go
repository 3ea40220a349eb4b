// Package board holds the displayed two-sided matchup and the actions that
// can change it without asking the resolver: promote, lock and unlock.
//
// The server builds a Board from every resolved matchup and the browser runs
// the same code compiled to WebAssembly (cmd/mirrorwasm), so both sides apply
// identical transitions and identical win-rate lookups.
package board

import (
	"errors"
	"fmt"

	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
	"github.com/Billy-Davies-2/fighter-matchup/internal/winrate"
)

// ErrNotAlternative is returned when promoting an id that is not listed as an alternative
var ErrNotAlternative = errors.New("fighter is not an alternative for this player")

// ErrNoMain is returned when acting on a side that has no main fighter
var ErrNoMain = errors.New("player has no main fighter")

// Entry is one displayed fighter and its win rate against the opposing main.
// Label is WinRate as displayed; browsers render it as is.
type Entry struct {
	Fighter models.Fighter `json:"fighter"`
	WinRate winrate.Rate   `json:"win_rate"`
	Label   string         `json:"label"`
}

// Side is one player's displayed suggestions
type Side struct {
	Main         *Entry  `json:"main"`
	Alternatives []Entry `json:"alternatives"`
	LockedID     string  `json:"locked_id,omitempty"`
}

// IDs returns the main id followed by alternative ids
func (s *Side) IDs() []string {
	ids := make([]string, 0, len(s.Alternatives)+1)
	if s.Main != nil {
		ids = append(ids, s.Main.Fighter.ID)
	}
	for _, alt := range s.Alternatives {
		ids = append(ids, alt.Fighter.ID)
	}
	return ids
}

// Locked reports whether the side's main is the locked fighter
func (s *Side) Locked() bool {
	return s.Main != nil && s.LockedID != "" && s.LockedID == s.Main.Fighter.ID
}

// Board is the full displayed matchup
type Board struct {
	P1  Side `json:"p1"`
	Opp Side `json:"opp"`
}

// Side returns a pointer to the requested side
func (b *Board) Side(p models.Player) *Side {
	if p == models.PlayerOne {
		return &b.P1
	}
	return &b.Opp
}

// Locks returns the board's lock state
func (b *Board) Locks() models.LockState {
	return models.LockState{P1: b.P1.LockedID, Opp: b.Opp.LockedID}
}

// Refresh recomputes every displayed win rate against the opposing main.
// A side whose opponent has no main shows Unknown everywhere.
func (b *Board) Refresh(m models.WinMatrix) {
	refreshSide(m, &b.P1, b.Opp.Main)
	refreshSide(m, &b.Opp, b.P1.Main)
}

func refreshSide(m models.WinMatrix, s *Side, opponent *Entry) {
	rate := func(id string) winrate.Rate {
		if opponent == nil {
			return winrate.Unknown
		}
		return winrate.Lookup(m, id, opponent.Fighter.ID)
	}
	if s.Main != nil {
		s.Main.setRate(rate(s.Main.Fighter.ID))
	}
	for i := range s.Alternatives {
		s.Alternatives[i].setRate(rate(s.Alternatives[i].Fighter.ID))
	}
}

func (e *Entry) setRate(r winrate.Rate) {
	e.WinRate = r
	e.Label = r.String()
}

// Promote swaps an alternative into the main slot. The previous main takes
// the alternative's position. Lock state is left untouched and both sides'
// win rates are recomputed against the new pairing.
func (b *Board) Promote(m models.WinMatrix, p models.Player, fighterID string) error {
	s := b.Side(p)
	if s.Main == nil {
		return ErrNoMain
	}
	idx := -1
	for i, alt := range s.Alternatives {
		if alt.Fighter.ID == fighterID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("promote %s for %s: %w", fighterID, p, ErrNotAlternative)
	}

	previous := *s.Main
	promoted := s.Alternatives[idx]
	s.Main = &promoted
	s.Alternatives[idx] = previous

	b.Refresh(m)
	return nil
}

// Lock pins the side's current main
func (b *Board) Lock(p models.Player) error {
	s := b.Side(p)
	if s.Main == nil {
		return ErrNoMain
	}
	s.LockedID = s.Main.Fighter.ID
	return nil
}

// Unlock clears the side's lock
func (b *Board) Unlock(p models.Player) {
	b.Side(p).LockedID = ""
}
