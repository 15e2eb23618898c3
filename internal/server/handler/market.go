package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oddslens/engine/internal/domain"
)

// HistoryStore is the slice of the market store the handler needs to serve
// stored probability history. It may be nil when the process runs without a
// database, in which case the snapshot's in-memory history is served instead.
type HistoryStore interface {
	History(ctx context.Context, marketID string, limit int) ([]domain.PricePoint, error)
}

// MarketHandler serves the normalized market endpoints.
type MarketHandler struct {
	snapshots SnapshotProvider
	history   HistoryStore
	logger    *slog.Logger
}

// NewMarketHandler creates a MarketHandler. history may be nil.
func NewMarketHandler(snapshots SnapshotProvider, history HistoryStore, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		snapshots: snapshots,
		history:   history,
		logger:    logger,
	}
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	RunID   string          `json:"runId"`
}

// ListMarkets returns the selected markets of the latest cycle, optionally
// filtered by category and venue, in the selector's volume ordering.
// GET /api/markets?category=Politics&venue=kalshi&limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Latest(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoSnapshot) {
			writeError(w, http.StatusServiceUnavailable, "no cycle has completed yet")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: load snapshot failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load markets")
		return
	}

	opts := parseListOpts(r)
	category := r.URL.Query().Get("category")
	venue := r.URL.Query().Get("venue")

	filtered := make([]domain.Market, 0, len(snap.Markets))
	for _, m := range snap.Markets {
		if category != "" && string(m.Category) != category {
			continue
		}
		if venue != "" && string(m.Source) != venue {
			continue
		}
		filtered = append(filtered, m)
	}

	total := len(filtered)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: filtered[start:end],
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		RunID:   snap.RunID,
	})
}

// marketResponse is a single market plus its stored probability history.
type marketResponse struct {
	domain.Market
	StoredHistory []domain.PricePoint `json:"storedHistory,omitempty"`
}

// GetMarket returns a single market from the latest snapshot by its canonical
// ID, with stored probability history attached when a database is configured.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	snap, err := h.snapshots.Latest(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoSnapshot) {
			writeError(w, http.StatusServiceUnavailable, "no cycle has completed yet")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: load snapshot failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load market")
		return
	}

	var market *domain.Market
	for i := range snap.Markets {
		if snap.Markets[i].ID == id {
			market = &snap.Markets[i]
			break
		}
	}
	if market == nil {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}

	resp := marketResponse{Market: *market}
	if h.history != nil {
		points, err := h.history.History(r.Context(), id, 100)
		if err != nil {
			// Stored history is best-effort; the snapshot copy still serves.
			h.logger.WarnContext(r.Context(), "handler: load history failed",
				slog.String("market_id", id),
				slog.String("error", err.Error()),
			)
		} else {
			resp.StoredHistory = points
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
