package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oddslens/engine/internal/domain"
)

// ArbHandler serves the cross-venue arbitrage pairs of the latest cycle.
type ArbHandler struct {
	snapshots SnapshotProvider
	logger    *slog.Logger
}

// NewArbHandler creates an ArbHandler.
func NewArbHandler(snapshots SnapshotProvider, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{snapshots: snapshots, logger: logger}
}

// listPairsResponse wraps the arbitrage list response.
type listPairsResponse struct {
	Pairs []domain.ArbPair `json:"pairs"`
	RunID string           `json:"runId"`
}

// ListPairs returns the detected arbitrage pairs, widest spread first.
// GET /api/arbitrage?minSpread=5
func (h *ArbHandler) ListPairs(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Latest(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoSnapshot) {
			writeError(w, http.StatusServiceUnavailable, "no cycle has completed yet")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: load snapshot failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list arbitrage pairs")
		return
	}

	minSpread := 0.0
	if v := r.URL.Query().Get("minSpread"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			minSpread = f
		}
	}

	pairs := make([]domain.ArbPair, 0, len(snap.Pairs))
	for _, p := range snap.Pairs {
		if p.Spread >= minSpread {
			pairs = append(pairs, p)
		}
	}

	writeJSON(w, http.StatusOK, listPairsResponse{Pairs: pairs, RunID: snap.RunID})
}
