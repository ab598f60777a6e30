package ui

import (
	"encoding/json"
	"net/http"

	"ontomaint/internal/session"
)

type healthResponse struct {
	Status          string `json:"status"`
	State           string `json:"state"`
	LoadedTriples   int    `json:"loaded_triples"`
	InferredTriples int    `json:"inferred_triples"`
}

// Healthz reports 200 once the graph is reasoned and 503 before that.
// It never triggers a load.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	stats := h.Graph.Stats()
	resp := healthResponse{
		Status:          "ok",
		State:           stats.State.String(),
		LoadedTriples:   stats.LoadedTriples,
		InferredTriples: stats.InferredTriples,
	}
	status := http.StatusOK
	if stats.State != session.Reasoned {
		resp.Status = "starting"
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
