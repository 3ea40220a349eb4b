package handlers

import (
	"context"
	"net/http"
	"time"
)

// Check reports the health of one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// HealthHandlers serves the health and probe endpoints
type HealthHandlers struct {
	checks map[string]Check
	ready  func() bool
}

// NewHealthHandlers creates health handlers. ready gates /readyz; the
// named checks feed /api/health.
func NewHealthHandlers(ready func() bool, checks map[string]Check) *HealthHandlers {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &HealthHandlers{checks: checks, ready: ready}
}

// Health reports every dependency check
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]any, len(h.checks))

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			checks[name] = map[string]any{"status": "unhealthy", "error": err.Error()}
			continue
		}
		checks[name] = map[string]any{"status": "healthy"}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// Liveness handles Kubernetes liveness probes without checking dependencies
func (h *HealthHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// Readiness handles Kubernetes readiness probes. The service is ready once
// the catalog is loaded.
func (h *HealthHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"reason":    "catalog_not_loaded",
			"timestamp": time.Now().Unix(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
