package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/oddslens/engine/internal/domain"
)

// StatusHandler reports the engine's operating mode and the health of the
// most recent aggregation cycle, including per-venue fetch status.
type StatusHandler struct {
	mode      string
	startedAt time.Time
	snapshots SnapshotProvider
	logger    *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, startedAt time.Time, snapshots SnapshotProvider, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		mode:      mode,
		startedAt: startedAt,
		snapshots: snapshots,
		logger:    logger,
	}
}

// GetStatus responds with mode, uptime, and the latest cycle summary. Before
// the first cycle completes the cycle fields are omitted rather than erroring.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"mode":           h.mode,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}

	snap, err := h.snapshots.Latest(r.Context())
	switch {
	case err == nil:
		resp["run_id"] = snap.RunID
		resp["fetched_at"] = snap.FetchedAt.UTC().Format(time.RFC3339)
		resp["markets"] = len(snap.Markets)
		resp["pairs"] = len(snap.Pairs)
		resp["edges"] = len(snap.Edges)
		resp["venues"] = snap.VenueStatus
	case errors.Is(err, domain.ErrNoSnapshot):
		// No cycle yet; report mode and uptime only.
	default:
		h.logger.ErrorContext(r.Context(), "handler: load snapshot failed",
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusOK, resp)
}
