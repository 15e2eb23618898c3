package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/oddslens/engine/internal/domain"
)

const eventPage = `[
  {
    "id": "901",
    "title": "Fed decision in March",
    "active": true,
    "closed": false,
    "volume": "120000",
    "tags": [{"label": "Politics", "slug": "politics"}],
    "markets": [
      {
        "id": "1001",
        "question": "Will the Fed cut rates at the March meeting?",
        "conditionId": "0xabc",
        "active": "true",
        "closed": false,
        "outcomePrices": "[\"0.62\",\"0.38\"]",
        "clobTokenIds": "[\"tok-yes\",\"tok-no\"]",
        "volume": "85000.5",
        "oneDayPriceChange": 0.031,
        "endDate": "2026-03-18T20:00:00Z"
      }
    ]
  }
]`

func TestFetchNormalizesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("active"); got != "true" {
			t.Errorf("active param = %q, want true", got)
		}
		if r.URL.Query().Get("offset") != "0" {
			// Only the first page has content.
			w.Write([]byte("[]"))
			return
		}
		w.Write([]byte(eventPage))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	markets, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("got %d markets, want 1", len(markets))
	}

	m := markets[0]
	if m.ID != "poly_1001" {
		t.Errorf("ID = %q, want poly_1001", m.ID)
	}
	if m.Probability != 62 {
		t.Errorf("probability = %f, want 62", m.Probability)
	}
	if m.Volume != 85000.5 {
		t.Errorf("volume = %f, want 85000.5", m.Volume)
	}
	if diff := m.Change24h - 3.1; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("change24h = %f, want 3.1", m.Change24h)
	}
	if m.Status != domain.MarketStatusActive {
		t.Errorf("status = %q, want active", m.Status)
	}
	if m.EndDate != "2026-03-18" {
		t.Errorf("endDate = %q, want 2026-03-18", m.EndDate)
	}
	if m.Source != domain.VenuePolymarket {
		t.Errorf("source = %q", m.Source)
	}
	if m.ClobTokenID != "tok-yes" {
		t.Errorf("clob token = %q, want tok-yes", m.ClobTokenID)
	}
	if m.Category != domain.CategoryPolitics {
		t.Errorf("category = %q, want Politics", m.Category)
	}
}

func TestFetchPaginatesByOffset(t *testing.T) {
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offsets = append(offsets, r.URL.Query().Get("offset"))
		// Full pages keep pagination going until maxPages.
		w.Write([]byte(fullEventPage()))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	markets, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(offsets) != maxPages {
		t.Fatalf("made %d requests, want %d", len(offsets), maxPages)
	}
	for i, off := range offsets {
		if want := strconv.Itoa(i * pageSize); off != want {
			t.Errorf("request %d offset = %q, want %q", i, off, want)
		}
	}
	if len(markets) != maxPages*pageSize {
		t.Errorf("got %d markets, want %d", len(markets), maxPages*pageSize)
	}
}

// fullEventPage builds a page of pageSize single-market events.
func fullEventPage() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < pageSize; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		id := strconv.Itoa(i)
		sb.WriteString(`{"id":"` + id + `","title":"Event ` + id + `","active":true,"markets":[` +
			`{"id":"m` + id + `","question":"Q ` + id + `","active":true,` +
			`"outcomePrices":"[\"0.5\"]","volume":"10"}]}`)
	}
	sb.WriteString("]")
	return sb.String()
}

func TestFetchCapsSubMarketsPerEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			w.Write([]byte("[]"))
			return
		}
		// One event with five outcomes at distinct prices.
		w.Write([]byte(`[{"id":"1","title":"Nominee","active":true,"markets":[
			{"id":"a","question":"A","active":true,"outcomePrices":"[\"0.40\"]","volume":"1"},
			{"id":"b","question":"B","active":true,"outcomePrices":"[\"0.25\"]","volume":"1"},
			{"id":"c","question":"C","active":true,"outcomePrices":"[\"0.15\"]","volume":"1"},
			{"id":"d","question":"D","active":true,"outcomePrices":"[\"0.10\"]","volume":"1"},
			{"id":"e","question":"E","active":true,"outcomePrices":"[\"0.05\"]","volume":"1"}
		]}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	markets, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(markets) != maxMarketsPerEvent {
		t.Fatalf("got %d markets, want top %d", len(markets), maxMarketsPerEvent)
	}
	if markets[0].ID != "poly_a" || markets[1].ID != "poly_b" || markets[2].ID != "poly_c" {
		t.Errorf("kept wrong sub-markets: %s %s %s", markets[0].ID, markets[1].ID, markets[2].ID)
	}
}

func TestFetchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestYesPriceMalformedFallsBackTo50(t *testing.T) {
	tests := []struct {
		name   string
		prices string
		want   float64
	}{
		{"valid", `["0.73","0.27"]`, 73},
		{"empty array", `[]`, 50},
		{"not json", `oops`, 50},
		{"non-numeric", `["abc"]`, 50},
		{"clamped high", `["0.999"]`, 99},
		{"clamped low", `["0.001"]`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := APIMarket{OutcomePrices: tt.prices}
			if got := m.yesPrice(); got != tt.want {
				t.Errorf("yesPrice() = %f, want %f", got, tt.want)
			}
		})
	}
}
