package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordResolve(t *testing.T) {
	okBefore := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("generate", "ok"))
	emptyBefore := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("generate", "empty_pool"))

	RecordResolve("generate", false, time.Millisecond)
	RecordResolve("generate", true, time.Millisecond)
	RecordResolve("generate", false, time.Millisecond)

	if got := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("generate", "ok")) - okBefore; got != 2 {
		t.Errorf("expected 2 ok resolutions, got %v", got)
	}
	if got := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("generate", "empty_pool")) - emptyBefore; got != 1 {
		t.Errorf("expected 1 empty pool resolution, got %v", got)
	}
}

func TestRecordFeature(t *testing.T) {
	tests := []struct {
		name    string
		feature string
		err     error
		label   string
	}{
		{"batch ok", "batch", nil, "ok"},
		{"pools failed", "pools", errors.New("no fair pool"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FeatureRequestsTotal.WithLabelValues(tt.feature, tt.label)
			before := testutil.ToFloat64(c)
			RecordFeature(tt.feature, tt.err)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("expected counter to increase by 1, got %v", got)
			}
		})
	}
}

func TestRecordCatalogLoad(t *testing.T) {
	before := testutil.ToFloat64(CatalogLoadErrors.WithLabelValues("sqlite"))
	RecordCatalogLoad("sqlite", 10*time.Millisecond, nil)
	RecordCatalogLoad("sqlite", 10*time.Millisecond, errors.New("no such table"))
	if got := testutil.ToFloat64(CatalogLoadErrors.WithLabelValues("sqlite")) - before; got != 1 {
		t.Errorf("expected one load error, got %v", got)
	}

	SetCatalogSize(42, 40)
	if got := testutil.ToFloat64(CatalogFighters); got != 42 {
		t.Errorf("expected 42 fighters, got %v", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("POST", "/api/matchup", "200")
	before := testutil.ToFloat64(c)
	RecordAPIRequest("POST", "/api/matchup", 200, 5*time.Millisecond)
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("expected one request recorded, got %v", got)
	}
}
