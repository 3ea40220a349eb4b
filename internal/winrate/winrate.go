// Package winrate resolves pairwise win percentages from a WinMatrix.
//
// This is the only implementation of the lookup rule. The HTTP server, the
// gRPC server and the WebAssembly board mirror all call Lookup, so every
// displayed percentage agrees bit for bit.
package winrate

import (
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// Rate is a resolved win percentage or Unknown
type Rate struct {
	Value float64
	Known bool
}

// Unknown is the zero Rate
var Unknown = Rate{}

// Known wraps a valid percentage
func Known(v float64) Rate {
	return Rate{Value: v, Known: true}
}

// Valid reports whether a stored matrix value is a real probability
func Valid(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}

// Lookup returns the percentage a beats b.
// Order: matrix[a][b] if valid, else 100-matrix[b][a] if valid, else Unknown.
func Lookup(m models.WinMatrix, a, b string) Rate {
	if row, ok := m[a]; ok {
		if v, ok := row[b]; ok && Valid(v) {
			return Known(v)
		}
	}
	if row, ok := m[b]; ok {
		if v, ok := row[a]; ok && Valid(v) {
			return Known(100 - v)
		}
	}
	return Unknown
}

// Distance is |rate-50|, or ok=false when unknown
func (r Rate) Distance() (float64, bool) {
	if !r.Known {
		return 0, false
	}
	return math.Abs(r.Value - 50), true
}

// Or returns the value, substituting def when unknown
func (r Rate) Or(def float64) float64 {
	if !r.Known {
		return def
	}
	return r.Value
}

// String renders "62.5%" or the N/A display sentinel
func (r Rate) String() string {
	if !r.Known {
		return "N/A"
	}
	return strconv.FormatFloat(r.Value, 'f', 1, 64) + "%"
}

// MarshalJSON encodes a known rate as a number and Unknown as null
func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Known {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts a number or null
func (r *Rate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Unknown
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decode win rate: %w", err)
	}
	if !Valid(v) {
		*r = Unknown
		return nil
	}
	*r = Known(v)
	return nil
}

// Sanitize returns a copy of m holding only valid entries. Rows that end up
// empty are dropped. The result is what the client mirror receives.
func Sanitize(m models.WinMatrix) models.WinMatrix {
	out := make(models.WinMatrix, len(m))
	for a, row := range m {
		clean := make(map[string]float64, len(row))
		for b, v := range row {
			if Valid(v) {
				clean[b] = v
			}
		}
		if len(clean) > 0 {
			out[a] = clean
		}
	}
	return out
}
