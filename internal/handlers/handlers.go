package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Billy-Davies-2/fighter-matchup/internal/board"
	"github.com/Billy-Davies-2/fighter-matchup/internal/engine"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/metrics"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
	"github.com/Billy-Davies-2/fighter-matchup/internal/pubsub"
)

const keepaliveInterval = 30 * time.Second

// APIHandlers contains all API handler methods
type APIHandlers struct {
	engine *engine.Engine
	pubsub *pubsub.PubSub
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(eng *engine.Engine, ps *pubsub.PubSub) *APIHandlers {
	return &APIHandlers{
		engine: eng,
		pubsub: ps,
	}
}

// Matchup resolves one matchup request. Engine conditions such as an empty
// pool come back as 200 responses carrying the message.
func (h *APIHandlers) Matchup(w http.ResponseWriter, r *http.Request) {
	var req models.MatchupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("Rejected matchup request", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res := h.engine.Resolve(req)
	if !res.Empty() {
		h.publish(pubsub.EventMatchupResolved, resolvedPayload(req, res))
	}
	writeJSON(w, http.StatusOK, res)
}

// promoteResponse carries the board after a promote
type promoteResponse struct {
	Board board.Board `json:"board"`
	Error string      `json:"error,omitempty"`
}

// Promote runs the shared promote transition on a client board
func (h *APIHandlers) Promote(w http.ResponseWriter, r *http.Request) {
	var req engine.PromoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	b, err := h.engine.PromoteBoard(req)
	if err != nil {
		logger.Debug("Promote rejected", "player", req.Player, "fighter_id", req.FighterID, "error", err)
		writeJSON(w, http.StatusOK, promoteResponse{Board: b, Error: err.Error()})
		return
	}

	h.publish(pubsub.EventMatchupPromoted, map[string]any{
		"player":     string(req.Player),
		"fighter_id": req.FighterID,
		"win_rate":   b.Side(req.Player).Main.WinRate,
	})
	writeJSON(w, http.StatusOK, promoteResponse{Board: b})
}

// Catalog returns the filter options and fighter list for clients
func (h *APIHandlers) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Catalog().Export())
}

// WinRates returns the win matrix with unknown cells removed
func (h *APIHandlers) WinRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Catalog().WinRates())
}

// Opponents ranks opponents for one fighter
func (h *APIHandlers) Opponents(w http.ResponseWriter, r *http.Request) {
	var req models.OpponentsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	recs, err := h.engine.Opponents(req)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"opponents": []engine.Recommendation{}, "error": featureMessage(err)})
		return
	}

	h.publish(pubsub.EventOpponents, map[string]any{"fighter_id": req.FighterID, "count": len(recs)})
	writeJSON(w, http.StatusOK, map[string]any{"opponents": recs})
}

// Batch draws a batch of pairings
func (h *APIHandlers) Batch(w http.ResponseWriter, r *http.Request) {
	var req models.PairingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pairs, err := h.engine.Batch(req)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"pairs": []engine.Pair{}, "error": featureMessage(err)})
		return
	}

	h.publish(pubsub.EventBatch, map[string]any{"count": len(pairs)})
	writeJSON(w, http.StatusOK, map[string]any{"pairs": pairs})
}

// Pools builds fair player pools
func (h *APIHandlers) Pools(w http.ResponseWriter, r *http.Request) {
	var req models.PairingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pools, err := h.engine.FairPools(req)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"pools": nil, "error": featureMessage(err)})
		return
	}

	h.publish(pubsub.EventPools, map[string]any{
		"p1_lead":     pools.P1[0].ID,
		"opp_lead":    pools.Opp[0].ID,
		"total_score": pools.Score,
	})
	writeJSON(w, http.StatusOK, map[string]any{"pools": pools})
}

// EventsSSE streams activity events to the browser
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	eventChan := h.pubsub.Subscribe()
	defer h.pubsub.Unsubscribe(eventChan)

	metrics.SSEClients.Inc()
	defer metrics.SSEClients.Dec()

	fmt.Fprint(w, "data: {\"type\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error("Failed to marshal SSE event", "error", err, "type", event.Type)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		}
	}
}

func (h *APIHandlers) publish(typ string, payload map[string]any) {
	if h.pubsub == nil {
		return
	}
	h.pubsub.Publish(pubsub.NewEvent(typ, payload))
}

func resolvedPayload(req models.MatchupRequest, res *engine.Result) map[string]any {
	payload := map[string]any{
		"id":     res.ID,
		"action": req.Action.String(),
	}
	if m := res.Board.P1.Main; m != nil {
		payload["p1"] = m.Fighter.ID
		payload["win_rate"] = m.WinRate
	}
	if m := res.Board.Opp.Main; m != nil {
		payload["opp"] = m.Fighter.ID
	}
	return payload
}

// featureMessage turns an engine error into the message shown to users
func featureMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrNoFairPool):
		return "No fair pool could be built from the selected sets."
	case errors.Is(err, engine.ErrUnknownFighter):
		return "The chosen fighter is not in the selected sets."
	}
	return err.Error()
}
