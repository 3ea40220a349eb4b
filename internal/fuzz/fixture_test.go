package fuzz

import (
	"testing"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/config"
	"github.com/Billy-Davies-2/fighter-matchup/internal/engine"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

func newEngine(t testing.TB) *engine.Engine {
	t.Helper()
	cat, err := catalog.New(catalog.Data{
		Fighters: []models.Fighter{
			{ID: "king_arthur", Name: "King Arthur", Set: "Legends", Playstyles: []string{"aggressive"}, Range: models.RangeMelee},
			{ID: "medusa", Name: "Medusa", Set: "Legends", Playstyles: []string{"control"}, Range: models.RangeRanged},
			{ID: "sinbad", Name: "Sinbad", Set: "Legends", Playstyles: []string{"scaling"}, Range: models.RangeMelee},
			{ID: "bigfoot", Name: "Bigfoot", Set: "Wilds", Playstyles: []string{"aggressive"}, Range: models.RangeMelee},
		},
		Matrix: models.WinMatrix{"king_arthur": {"medusa": 45, "sinbad": 120}},
	})
	if err != nil {
		t.Fatalf("catalog.New() failed: %v", err)
	}
	return engine.New(cat, config.DefaultTunables())
}
