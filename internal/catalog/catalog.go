package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/samber/lo"

	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
	"github.com/Billy-Davies-2/fighter-matchup/internal/winrate"
)

// ErrEmptyCatalog is returned when no usable fighter survives normalization
var ErrEmptyCatalog = errors.New("catalog has no valid fighters")

// Catalog is the read-only fighter set and win matrix. It is built once at
// startup and shared by every request; nothing mutates it afterwards.
type Catalog struct {
	fighters    []models.Fighter
	byID        map[string]*models.Fighter
	matrix      models.WinMatrix
	definitions map[string]string
	sets        []string
	playstyles  []string
	ranges      []models.Range
}

// Data is the raw input a Catalog is built from
type Data struct {
	Fighters    []models.Fighter
	Definitions map[string]string
	Matrix      models.WinMatrix
}

// New validates and normalizes the data and returns an immutable catalog.
// Invalid fighter records are skipped with a warning.
func New(data Data) (*Catalog, error) {
	c := &Catalog{
		byID:        make(map[string]*models.Fighter),
		definitions: make(map[string]string, len(data.Definitions)),
		matrix:      data.Matrix,
	}
	if c.matrix == nil {
		c.matrix = models.WinMatrix{}
	}
	for k, v := range data.Definitions {
		c.definitions[k] = v
	}

	for _, raw := range data.Fighters {
		f, err := normalize(raw)
		if err != nil {
			logger.Warn("Skipping invalid fighter record", "name", raw.Name, "id", raw.ID, "error", err)
			continue
		}
		if _, dup := c.byID[f.ID]; dup {
			logger.Warn("Skipping duplicate fighter id", "id", f.ID)
			continue
		}
		c.fighters = append(c.fighters, f)
		c.byID[f.ID] = nil
	}
	if len(c.fighters) == 0 {
		return nil, ErrEmptyCatalog
	}

	sort.SliceStable(c.fighters, func(i, j int) bool {
		return c.fighters[i].Name < c.fighters[j].Name
	})
	for i := range c.fighters {
		c.byID[c.fighters[i].ID] = &c.fighters[i]
	}

	c.sets = lo.Uniq(lo.Map(c.fighters, func(f models.Fighter, _ int) string { return f.Set }))
	sort.Strings(c.sets)
	c.playstyles = lo.Uniq(lo.FlatMap(c.fighters, func(f models.Fighter, _ int) []string { return f.Playstyles }))
	sort.Strings(c.playstyles)
	present := lo.Uniq(lo.Map(c.fighters, func(f models.Fighter, _ int) models.Range { return f.Range }))
	c.ranges = lo.Filter(models.Ranges, func(r models.Range, _ int) bool { return lo.Contains(present, r) })

	logger.Info("Catalog built", "fighters", len(c.fighters), "sets", len(c.sets), "matrix_rows", len(c.matrix))
	return c, nil
}

func normalize(f models.Fighter) (models.Fighter, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Set = strings.TrimSpace(f.Set)
	if f.Name == "" {
		return f, fmt.Errorf("missing name")
	}
	if f.Set == "" {
		return f, fmt.Errorf("missing set")
	}
	if f.ID == "" {
		f.ID = SlugID(f.Name)
	}
	r, err := models.ParseRange(string(f.Range))
	if err != nil {
		return f, err
	}
	if r == "" {
		return f, fmt.Errorf("missing range")
	}
	f.Range = r

	tags := lo.Uniq(lo.FilterMap(f.Playstyles, func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	}))
	if len(tags) == 0 {
		return f, fmt.Errorf("no playstyles")
	}
	f.Playstyles = tags
	return f, nil
}

// SlugID derives a stable fighter id from a display name ("King Arthur" -> "king_arthur")
func SlugID(name string) string {
	return strings.ReplaceAll(slug.Make(name), "-", "_")
}

// Fighters returns every fighter sorted by name. Callers must not modify the slice.
func (c *Catalog) Fighters() []models.Fighter {
	return c.fighters
}

// Find looks up a fighter by id
func (c *Catalog) Find(id string) (models.Fighter, bool) {
	f, ok := c.byID[id]
	if !ok || f == nil {
		return models.Fighter{}, false
	}
	return *f, true
}

// Matrix returns the win matrix. Callers must not modify it.
func (c *Catalog) Matrix() models.WinMatrix {
	return c.matrix
}

// WinRate looks up a against b in the catalog's matrix
func (c *Catalog) WinRate(a, b string) winrate.Rate {
	return winrate.Lookup(c.matrix, a, b)
}

// Sets lists every set name, sorted
func (c *Catalog) Sets() []string {
	return c.sets
}

// Playstyles lists every playstyle tag, sorted
func (c *Catalog) Playstyles() []string {
	return c.playstyles
}

// Ranges lists the ranges present in the catalog, in enumeration order
func (c *Catalog) Ranges() []models.Range {
	return c.ranges
}

// Filter returns every fighter whose set is in ownedSets. An empty selection
// yields an empty pool rather than the whole catalog.
func (c *Catalog) Filter(ownedSets []string) []models.Fighter {
	return Filter(c.fighters, ownedSets)
}

// Filter is the catalog filter over an arbitrary fighter slice
func Filter(all []models.Fighter, ownedSets []string) []models.Fighter {
	if len(ownedSets) == 0 {
		return []models.Fighter{}
	}
	owned := lo.SliceToMap(ownedSets, func(s string) (string, struct{}) { return s, struct{}{} })
	return lo.Filter(all, func(f models.Fighter, _ int) bool {
		_, ok := owned[f.Set]
		return ok
	})
}
