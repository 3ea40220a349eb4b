package catalog

import (
	"github.com/samber/lo"

	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
	"github.com/Billy-Davies-2/fighter-matchup/internal/winrate"
)

// FighterRef is the id/name pair the client uses for name lookups
type FighterRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Export is the catalog projection served to clients
type Export struct {
	Sets        []string          `json:"sets"`
	Playstyles  []string          `json:"playstyles"`
	Ranges      []models.Range    `json:"ranges"`
	Definitions map[string]string `json:"playstyle_definitions"`
	Fighters    []FighterRef      `json:"fighters"`
}

// Export builds the client-facing catalog projection
func (c *Catalog) Export() Export {
	return Export{
		Sets:        c.sets,
		Playstyles:  c.playstyles,
		Ranges:      c.ranges,
		Definitions: c.Definitions(),
		Fighters: lo.Map(c.fighters, func(f models.Fighter, _ int) FighterRef {
			return FighterRef{ID: f.ID, Name: f.Name}
		}),
	}
}

// Definitions returns a copy of the playstyle descriptions
func (c *Catalog) Definitions() map[string]string {
	out := make(map[string]string, len(c.definitions))
	for k, v := range c.definitions {
		out[k] = v
	}
	return out
}

// WinRates returns the matrix with unknown sentinels removed, the form the
// browser mirror consumes
func (c *Catalog) WinRates() models.WinMatrix {
	return winrate.Sanitize(c.matrix)
}
