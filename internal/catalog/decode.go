package catalog

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// FightersFile is the on-disk layout of fighters.json
type FightersFile struct {
	Fighters    []models.Fighter  `json:"fighters"`
	Definitions map[string]string `json:"playstyle_definitions"`
}

// DecodeFighters reads a fighters.json document
func DecodeFighters(r io.Reader) (FightersFile, error) {
	var f FightersFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return FightersFile{}, fmt.Errorf("decode fighters: %w", err)
	}
	return f, nil
}

// DecodeMatrix reads a merged_win_pct.json document. Null cells are dropped;
// out-of-range sentinels are kept and resolve to unknown at lookup time.
func DecodeMatrix(r io.Reader) (models.WinMatrix, error) {
	var raw map[string]map[string]*float64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode win matrix: %w", err)
	}
	m := make(models.WinMatrix, len(raw))
	for a, row := range raw {
		cells := make(map[string]float64, len(row))
		for b, v := range row {
			if v != nil {
				cells[b] = *v
			}
		}
		m[a] = cells
	}
	return m, nil
}
