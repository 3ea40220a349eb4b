// Command mirrorwasm compiles the board transitions to WebAssembly so the
// browser can promote, lock and unlock without a server round trip.
//
//	GOOS=js GOARCH=wasm go build -o static/mirror.wasm ./cmd/mirrorwasm
package main

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/Billy-Davies-2/fighter-matchup/internal/board"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
	"github.com/Billy-Davies-2/fighter-matchup/internal/winrate"
)

var errNoMatrix = errors.New("win rates not loaded")

// mirror holds the win matrix pushed from /api/winrates
type mirror struct {
	mu     sync.RWMutex
	matrix models.WinMatrix
}

type result struct {
	Board *board.Board `json:"board,omitempty"`
	Rate  winrate.Rate `json:"win_rate"`
	Error string       `json:"error,omitempty"`
}

func (m *mirror) setWinRates(raw string) error {
	var matrix models.WinMatrix
	if err := json.Unmarshal([]byte(raw), &matrix); err != nil {
		return err
	}
	m.mu.Lock()
	m.matrix = matrix
	m.mu.Unlock()
	return nil
}

func (m *mirror) current() models.WinMatrix {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.matrix
}

// apply decodes a board, runs fn on it and encodes the result. Board
// transitions leave the board untouched when they fail.
func (m *mirror) apply(raw, player string, fn func(*board.Board, models.Player) error) string {
	var b board.Board
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return encode(result{Error: err.Error()})
	}
	p, err := models.ParsePlayer(player)
	if err != nil {
		return encode(result{Board: &b, Error: err.Error()})
	}
	if err := fn(&b, p); err != nil {
		return encode(result{Board: &b, Error: err.Error()})
	}
	return encode(result{Board: &b})
}

func (m *mirror) promote(raw, player, fighterID string) string {
	return m.apply(raw, player, func(b *board.Board, p models.Player) error {
		matrix := m.current()
		if matrix == nil {
			return errNoMatrix
		}
		return b.Promote(matrix, p, fighterID)
	})
}

func (m *mirror) lock(raw, player string) string {
	return m.apply(raw, player, func(b *board.Board, p models.Player) error {
		return b.Lock(p)
	})
}

func (m *mirror) unlock(raw, player string) string {
	return m.apply(raw, player, func(b *board.Board, p models.Player) error {
		b.Unlock(p)
		return nil
	})
}

func (m *mirror) winRate(a, b string) string {
	return encode(result{Rate: winrate.Lookup(m.current(), a, b)})
}

func encode(r result) string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"error":"encode failed"}`
	}
	return string(data)
}
