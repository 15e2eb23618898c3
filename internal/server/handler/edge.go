package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/oddslens/engine/internal/domain"
)

// EdgeHandler serves the edge signals of the latest cycle.
type EdgeHandler struct {
	snapshots SnapshotProvider
	logger    *slog.Logger
}

// NewEdgeHandler creates an EdgeHandler.
func NewEdgeHandler(snapshots SnapshotProvider, logger *slog.Logger) *EdgeHandler {
	return &EdgeHandler{snapshots: snapshots, logger: logger}
}

// listEdgesResponse wraps the edge list response.
type listEdgesResponse struct {
	Edges []domain.EdgeSignal `json:"edges"`
	RunID string              `json:"runId"`
}

// ListEdges returns edge signals ordered by absolute score, strongest first,
// optionally filtered to a single label.
// GET /api/edges?label=STRONG%20BUY
func (h *EdgeHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Latest(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoSnapshot) {
			writeError(w, http.StatusServiceUnavailable, "no cycle has completed yet")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: load snapshot failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list edges")
		return
	}

	label := r.URL.Query().Get("label")

	edges := make([]domain.EdgeSignal, 0, len(snap.Edges))
	for _, sig := range snap.Edges {
		if label != "" && string(sig.EdgeLabel) != label {
			continue
		}
		edges = append(edges, sig)
	}

	sort.Slice(edges, func(i, j int) bool {
		ai, aj := abs(edges[i].EdgeScore), abs(edges[j].EdgeScore)
		if ai != aj {
			return ai > aj
		}
		return edges[i].MarketID < edges[j].MarketID
	})

	writeJSON(w, http.StatusOK, listEdgesResponse{Edges: edges, RunID: snap.RunID})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
