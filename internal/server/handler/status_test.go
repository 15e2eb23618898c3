package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oddslens/engine/internal/domain"
)

func TestGetStatusWithSnapshot(t *testing.T) {
	snap := testSnapshot()
	snap.VenueStatus = []domain.VenueStatus{
		{Venue: domain.VenuePolymarket, Status: "polymarket:OK(3)", Count: 3},
	}
	h := NewStatusHandler("serve", time.Now().Add(-time.Minute), &fakeSnapshots{snap: snap}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.GetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["mode"] != "serve" {
		t.Errorf("mode = %v, want serve", resp["mode"])
	}
	if resp["run_id"] != "run-1" {
		t.Errorf("run_id = %v, want run-1", resp["run_id"])
	}
	if resp["markets"] != float64(3) {
		t.Errorf("markets = %v, want 3", resp["markets"])
	}
	if resp["uptime_seconds"].(float64) < 59 {
		t.Errorf("uptime_seconds = %v, want at least a minute", resp["uptime_seconds"])
	}
}

func TestGetStatusBeforeFirstCycle(t *testing.T) {
	h := NewStatusHandler("collect", time.Now(), &fakeSnapshots{err: domain.ErrNoSnapshot}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.GetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even before the first cycle", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp["run_id"]; ok {
		t.Error("run_id present before the first cycle")
	}
	if resp["mode"] != "collect" {
		t.Errorf("mode = %v, want collect", resp["mode"])
	}
}

func TestGetCorrelations(t *testing.T) {
	snap := testSnapshot()
	snap.CategoryCorr = domain.CorrelationMatrix{
		Labels: []string{"Politics", "Sports"},
		Values: [][]float64{{1, 0.5}, {0.5, 1}},
	}
	h := NewCorrelationHandler(&fakeSnapshots{snap: snap}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/correlations", nil)
	rec := httptest.NewRecorder()
	h.GetCorrelations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp correlationsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Categories.Labels) != 2 {
		t.Errorf("got %d category labels, want 2", len(resp.Categories.Labels))
	}
	if resp.Categories.Values[0][1] != 0.5 {
		t.Errorf("value [0][1] = %f, want 0.5", resp.Categories.Values[0][1])
	}
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %v, want ok", resp["status"])
	}
}
