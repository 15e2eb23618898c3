package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/oddslens/engine/internal/domain"
)

// CorrelationHandler serves the correlation matrices of the latest cycle.
type CorrelationHandler struct {
	snapshots SnapshotProvider
	logger    *slog.Logger
}

// NewCorrelationHandler creates a CorrelationHandler.
func NewCorrelationHandler(snapshots SnapshotProvider, logger *slog.Logger) *CorrelationHandler {
	return &CorrelationHandler{snapshots: snapshots, logger: logger}
}

// correlationsResponse carries both matrices of a cycle.
type correlationsResponse struct {
	Categories domain.CorrelationMatrix `json:"categories"`
	Markets    domain.CorrelationMatrix `json:"markets"`
	RunID      string                   `json:"runId"`
}

// GetCorrelations returns the category and market correlation matrices.
// GET /api/correlations
func (h *CorrelationHandler) GetCorrelations(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Latest(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoSnapshot) {
			writeError(w, http.StatusServiceUnavailable, "no cycle has completed yet")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: load snapshot failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load correlations")
		return
	}

	writeJSON(w, http.StatusOK, correlationsResponse{
		Categories: snap.CategoryCorr,
		Markets:    snap.MarketCorr,
		RunID:      snap.RunID,
	})
}
