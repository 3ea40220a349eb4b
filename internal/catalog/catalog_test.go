package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

func testData() Data {
	return Data{
		Fighters: []models.Fighter{
			{ID: "medusa", Name: "Medusa", Set: "Battle of Legends", Playstyles: []string{"ranged", "control"}, Range: "ranged"},
			{Name: "King Arthur", Set: "Battle of Legends", Playstyles: []string{"aggressive", " "}, Range: models.RangeMelee},
			{ID: "alice", Name: "Alice", Set: "Cobble & Fog", Playstyles: []string{"tricky", "tricky"}, Range: models.RangeMelee},
			{ID: "sinbad", Name: "Sinbad", Set: "Battle of Legends", Playstyles: nil, Range: models.RangeMelee},
			{ID: "bad_range", Name: "Bad Range", Set: "Robin Hood", Playstyles: []string{"x"}, Range: "Artillery"},
			{ID: "medusa", Name: "Medusa Again", Set: "Robin Hood", Playstyles: []string{"x"}, Range: models.RangeReach},
		},
		Definitions: map[string]string{"control": "Dictates the pace"},
		Matrix:      models.WinMatrix{"medusa": {"king_arthur": 55}},
	}
}

func TestNewSkipsInvalidRecords(t *testing.T) {
	c, err := New(testData())
	require.NoError(t, err)

	ids := make([]string, 0)
	for _, f := range c.Fighters() {
		ids = append(ids, f.ID)
	}
	// sorted by name; sinbad has no playstyles, bad_range has an unknown range,
	// the second medusa is a duplicate id
	assert.Equal(t, []string{"alice", "king_arthur", "medusa"}, ids)

	medusa, ok := c.Find("medusa")
	require.True(t, ok)
	assert.Equal(t, models.RangeRanged, medusa.Range, "range should be normalized")

	arthur, ok := c.Find("king_arthur")
	require.True(t, ok, "id should be derived from the name")
	assert.Equal(t, []string{"aggressive"}, arthur.Playstyles)

	alice, _ := c.Find("alice")
	assert.Equal(t, []string{"tricky"}, alice.Playstyles)
}

func TestNewEmpty(t *testing.T) {
	_, err := New(Data{Fighters: []models.Fighter{{Name: "Nobody"}}})
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestFilter(t *testing.T) {
	c, err := New(testData())
	require.NoError(t, err)

	tests := []struct {
		name  string
		owned []string
		want  []string
	}{
		{"no selection is not a wildcard", nil, []string{}},
		{"empty selection", []string{}, []string{}},
		{"single set", []string{"Cobble & Fog"}, []string{"alice"}},
		{"two sets", []string{"Battle of Legends", "Cobble & Fog"}, []string{"alice", "king_arthur", "medusa"}},
		{"unknown set", []string{"Jurassic Park"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Filter(tt.owned)
			ids := make([]string, 0, len(got))
			for _, f := range got {
				ids = append(ids, f.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCatalogIndexes(t *testing.T) {
	c, err := New(testData())
	require.NoError(t, err)

	assert.Equal(t, []string{"Battle of Legends", "Cobble & Fog"}, c.Sets())
	assert.Equal(t, []string{"aggressive", "control", "ranged", "tricky"}, c.Playstyles())
	assert.Equal(t, []models.Range{models.RangeMelee, models.RangeRanged}, c.Ranges())
	assert.Equal(t, "45.0%", c.WinRate("king_arthur", "medusa").String())
}

func TestExport(t *testing.T) {
	c, err := New(testData())
	require.NoError(t, err)

	e := c.Export()
	require.Len(t, e.Fighters, 3)
	assert.Equal(t, FighterRef{ID: "alice", Name: "Alice"}, e.Fighters[0])
	assert.Equal(t, "Dictates the pace", e.Definitions["control"])

	e.Definitions["control"] = "changed"
	assert.Equal(t, "Dictates the pace", c.Definitions()["control"], "export must not alias catalog state")
}

func TestSlugID(t *testing.T) {
	tests := map[string]string{
		"King Arthur":     "king_arthur",
		"Dr. Jill Trent":  "dr_jill_trent",
		"Little Red":      "little_red",
		"Sun Wukong":      "sun_wukong",
		"The Wayward One": "the_wayward_one",
	}
	for in, want := range tests {
		assert.Equal(t, want, SlugID(in), in)
	}
}

func TestDecode(t *testing.T) {
	f, err := DecodeFighters(strings.NewReader(`{
		"fighters": [{"id": "alice", "name": "Alice", "set": "Cobble & Fog", "playstyles": ["tricky"], "range": "Melee", "image_url": "img/alice.png"}],
		"playstyle_definitions": {"tricky": "Hard to pin down"}
	}`))
	require.NoError(t, err)
	require.Len(t, f.Fighters, 1)
	assert.Equal(t, "img/alice.png", f.Fighters[0].ImageURL)
	assert.Equal(t, "Hard to pin down", f.Definitions["tricky"])

	m, err := DecodeMatrix(strings.NewReader(`{"alice": {"medusa": 48.5, "sinbad": -2, "bigfoot": null}}`))
	require.NoError(t, err)
	assert.Equal(t, 48.5, m["alice"]["medusa"])
	assert.Equal(t, -2.0, m["alice"]["sinbad"])
	_, ok := m["alice"]["bigfoot"]
	assert.False(t, ok)

	_, err = DecodeMatrix(strings.NewReader(`[`))
	assert.Error(t, err)
}
