package winrate

import (
	"math"
	"testing"

	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

func sampleMatrix() models.WinMatrix {
	return models.WinMatrix{
		"alpha":   {"bravo": 60, "charlie": -2},
		"bravo":   {"charlie": 55},
		"charlie": {"delta": math.NaN()},
		"delta":   {"alpha": 101},
	}
}

func TestLookup(t *testing.T) {
	m := sampleMatrix()

	tests := []struct {
		name string
		a, b string
		want Rate
	}{
		{"stored direction", "alpha", "bravo", Known(60)},
		{"inverted direction", "bravo", "alpha", Known(40)},
		{"second stored pair", "bravo", "charlie", Known(55)},
		{"second pair inverted", "charlie", "bravo", Known(45)},
		{"negative sentinel both ways", "alpha", "charlie", Unknown},
		{"sentinel falls back to inverse", "charlie", "alpha", Unknown},
		{"NaN is unknown", "charlie", "delta", Unknown},
		{"out of range is unknown", "delta", "alpha", Unknown},
		{"missing fighter", "alpha", "zulu", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lookup(m, tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Lookup(%s, %s) = %+v, want %+v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestLookupPrefersStoredDirection(t *testing.T) {
	m := models.WinMatrix{
		"a": {"b": 70},
		"b": {"a": 20},
	}
	if got := Lookup(m, "a", "b"); got != Known(70) {
		t.Errorf("expected stored 70, got %v", got)
	}
	if got := Lookup(m, "b", "a"); got != Known(20) {
		t.Errorf("expected stored 20, got %v", got)
	}
}

func TestLookupInvalidForwardFallsBackToInverse(t *testing.T) {
	m := models.WinMatrix{
		"a": {"b": -2},
		"b": {"a": 35},
	}
	if got := Lookup(m, "a", "b"); got != Known(65) {
		t.Errorf("expected 65 from inverse, got %v", got)
	}
}

func TestRoundTripSymmetry(t *testing.T) {
	m := models.WinMatrix{
		"a": {"b": 62.5, "c": 0, "d": 100},
	}
	for _, opp := range []string{"b", "c", "d"} {
		ab := Lookup(m, "a", opp)
		ba := Lookup(m, opp, "a")
		if !ab.Known || !ba.Known {
			t.Fatalf("expected both directions known for a/%s", opp)
		}
		if ab.Value+ba.Value != 100 {
			t.Errorf("a vs %s: %v + %v != 100", opp, ab.Value, ba.Value)
		}
	}
}

func TestRateString(t *testing.T) {
	if got := Known(62.5).String(); got != "62.5%" {
		t.Errorf("expected 62.5%%, got %s", got)
	}
	if got := Unknown.String(); got != "N/A" {
		t.Errorf("expected N/A, got %s", got)
	}
}

func TestRateJSON(t *testing.T) {
	b, err := Known(40).MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() failed: %v", err)
	}
	if string(b) != "40" {
		t.Errorf("expected 40, got %s", b)
	}

	b, _ = Unknown.MarshalJSON()
	if string(b) != "null" {
		t.Errorf("expected null, got %s", b)
	}

	var r Rate
	if err := r.UnmarshalJSON([]byte("-2")); err != nil {
		t.Fatalf("UnmarshalJSON() failed: %v", err)
	}
	if r.Known {
		t.Error("sentinel should decode as unknown")
	}
}

func TestSanitize(t *testing.T) {
	clean := Sanitize(sampleMatrix())

	if _, ok := clean["charlie"]; ok {
		t.Error("row with only NaN entries should be dropped")
	}
	if _, ok := clean["alpha"]["charlie"]; ok {
		t.Error("sentinel entry should be dropped")
	}
	if clean["alpha"]["bravo"] != 60 {
		t.Error("valid entry should be kept")
	}
}
