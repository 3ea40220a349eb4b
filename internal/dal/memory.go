package dal

import (
	"context"
	"sync"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// MemorySource serves catalog data held in memory. It backs tests and the
// development fallback when no data files are present.
type MemorySource struct {
	mu   sync.RWMutex
	data catalog.Data
}

// NewMemorySource creates a source over the given data
func NewMemorySource(data catalog.Data) *MemorySource {
	return &MemorySource{data: data}
}

// NewDemoSource creates a source seeded with the built-in demo catalog
func NewDemoSource() *MemorySource {
	return NewMemorySource(DemoData())
}

func (m *MemorySource) Name() string { return "memory" }

func (m *MemorySource) Close() error { return nil }

// Load returns a deep copy so callers cannot alias the stored data
func (m *MemorySource) Load(_ context.Context) (catalog.Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneData(m.data), nil
}

// LoadMatrix returns a copy of the stored matrix
func (m *MemorySource) LoadMatrix(_ context.Context) (models.WinMatrix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneMatrix(m.data.Matrix), nil
}

// Import replaces the stored data
func (m *MemorySource) Import(_ context.Context, data catalog.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = cloneData(data)
	return nil
}

func cloneData(d catalog.Data) catalog.Data {
	out := catalog.Data{
		Fighters:    make([]models.Fighter, len(d.Fighters)),
		Definitions: make(map[string]string, len(d.Definitions)),
		Matrix:      cloneMatrix(d.Matrix),
	}
	for i, f := range d.Fighters {
		f.Playstyles = append([]string(nil), f.Playstyles...)
		out.Fighters[i] = f
	}
	for k, v := range d.Definitions {
		out.Definitions[k] = v
	}
	return out
}

func cloneMatrix(m models.WinMatrix) models.WinMatrix {
	out := make(models.WinMatrix, len(m))
	for a, row := range m {
		r := make(map[string]float64, len(row))
		for b, v := range row {
			r[b] = v
		}
		out[a] = r
	}
	return out
}

// DemoData is a small built-in catalog used when no data files exist
func DemoData() catalog.Data {
	return catalog.Data{
		Fighters: []models.Fighter{
			{ID: "king_arthur", Name: "King Arthur", Set: "Battle of Legends, Vol. 1", Playstyles: []string{"aggressive", "resilient"}, Range: models.RangeMelee},
			{ID: "medusa", Name: "Medusa", Set: "Battle of Legends, Vol. 1", Playstyles: []string{"ranged", "control"}, Range: models.RangeRanged},
			{ID: "sinbad", Name: "Sinbad", Set: "Battle of Legends, Vol. 1", Playstyles: []string{"aggressive", "scaling"}, Range: models.RangeMelee},
			{ID: "alice", Name: "Alice", Set: "Battle of Legends, Vol. 1", Playstyles: []string{"tricky", "scaling"}, Range: models.RangeMelee},
			{ID: "robin_hood", Name: "Robin Hood", Set: "Robin Hood vs. Bigfoot", Playstyles: []string{"ranged", "evasive"}, Range: models.RangeRangedAssist},
			{ID: "bigfoot", Name: "Bigfoot", Set: "Robin Hood vs. Bigfoot", Playstyles: []string{"aggressive", "resilient"}, Range: models.RangeMelee},
			{ID: "sherlock_holmes", Name: "Sherlock Holmes", Set: "Cobble & Fog", Playstyles: []string{"control", "tricky"}, Range: models.RangeMelee},
			{ID: "dracula", Name: "Dracula", Set: "Cobble & Fog", Playstyles: []string{"aggressive", "resilient"}, Range: models.RangeMelee},
			{ID: "invisible_man", Name: "Invisible Man", Set: "Cobble & Fog", Playstyles: []string{"evasive", "tricky"}, Range: models.RangeReach},
			{ID: "dr_jekyll", Name: "Dr. Jekyll & Mr. Hyde", Set: "Cobble & Fog", Playstyles: []string{"aggressive", "tricky"}, Range: models.RangeHybrid},
		},
		Definitions: map[string]string{
			"aggressive": "Wants to close distance and trade hits early.",
			"control":    "Dictates where and when fights happen.",
			"evasive":    "Avoids damage through movement and positioning.",
			"ranged":     "Deals damage from a distance.",
			"resilient":  "Outlasts opponents with health or defense.",
			"scaling":    "Grows stronger as the game goes on.",
			"tricky":     "Wins through unusual card effects.",
		},
		Matrix: models.WinMatrix{
			"king_arthur":     {"medusa": 48, "sinbad": 52, "alice": 55, "bigfoot": 47, "dracula": 50},
			"medusa":          {"sinbad": 58, "alice": 53, "robin_hood": 51, "sherlock_holmes": 46},
			"sinbad":          {"alice": 49, "bigfoot": 44, "invisible_man": 54},
			"alice":           {"robin_hood": 50, "dr_jekyll": 57},
			"robin_hood":      {"bigfoot": 55, "dracula": 45, "invisible_man": -2},
			"bigfoot":         {"sherlock_holmes": 51, "dracula": 49},
			"sherlock_holmes": {"dracula": 46, "invisible_man": 52, "dr_jekyll": 50},
			"dracula":         {"invisible_man": 56, "dr_jekyll": 53},
			"invisible_man":   {"dr_jekyll": 47},
		},
	}
}
