// Package handler contains the HTTP handlers for the read-only aggregation
// API. Every data endpoint serves from the latest cycle snapshot; only market
// history reaches back into the database.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/oddslens/engine/internal/domain"
)

// SnapshotProvider yields the most recent cycle snapshot. Implementations
// return domain.ErrNoSnapshot before the first cycle completes.
type SnapshotProvider interface {
	Latest(ctx context.Context) (domain.Snapshot, error)
}

// writeJSON marshals v as JSON and writes it with the given status code,
// falling back to a canned 500 body when marshaling fails.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseListOpts extracts pagination parameters from the query string.
// Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}
