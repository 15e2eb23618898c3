package engine

import (
	"fmt"
	"testing"

	"github.com/oddslens/engine/internal/domain"
)

func mkMarket(id string, venue domain.Venue, volume float64) domain.Market {
	return domain.Market{
		ID:          id,
		Title:       "market " + id,
		Category:    domain.CategoryWorld,
		Probability: 60,
		Change24h:   1.5,
		Volume:      volume,
		Status:      domain.MarketStatusActive,
		Source:      venue,
	}
}

func venueBatch(venue domain.Venue, prefix string, n int, baseVolume float64) []domain.Market {
	out := make([]domain.Market, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, mkMarket(fmt.Sprintf("%s_%d", prefix, i), venue, baseVolume-float64(i)))
	}
	return out
}

func TestAggregateSortsByVolumeDescending(t *testing.T) {
	in := []domain.Market{
		mkMarket("poly_a", domain.VenuePolymarket, 100),
		mkMarket("kalshi_a", domain.VenueKalshi, 900),
		mkMarket("manifold_a", domain.VenueManifold, 500),
	}
	// Pad past the noise-filter floor so nothing else interferes.
	in = append(in, venueBatch(domain.VenuePredictIt, "predictit", 40, 10)...)

	got := Aggregate(in)
	for i := 1; i < len(got); i++ {
		if got[i].Volume > got[i-1].Volume {
			t.Fatalf("output not sorted by volume at %d: %f > %f", i, got[i].Volume, got[i-1].Volume)
		}
	}
	if got[0].ID != "kalshi_a" {
		t.Errorf("highest-volume market = %s, want kalshi_a", got[0].ID)
	}
}

func TestFilterNoiseDropsPlaceholders(t *testing.T) {
	markets := venueBatch(domain.VenuePolymarket, "poly", minAfterFilter+5, 1000)

	noise := mkMarket("poly_noise", domain.VenuePolymarket, 0)
	noise.Probability = 50
	noise.Change24h = 0
	markets = append(markets, noise)

	got := filterNoise(markets)
	for _, m := range got {
		if m.ID == "poly_noise" {
			t.Fatal("placeholder market survived the noise filter")
		}
	}
	if len(got) != minAfterFilter+5 {
		t.Errorf("kept %d markets, want %d", len(got), minAfterFilter+5)
	}
}

func TestFilterNoiseKeepsPredictItUnknownMarker(t *testing.T) {
	markets := venueBatch(domain.VenuePolymarket, "poly", minAfterFilter+5, 1000)

	unknown := mkMarket("predictit_1", domain.VenuePredictIt, 0)
	unknown.Probability = 50
	unknown.Change24h = 0
	markets = append(markets, unknown)

	got := filterNoise(markets)
	found := false
	for _, m := range got {
		if m.ID == "predictit_1" {
			found = true
		}
	}
	if !found {
		t.Error("PredictIt unknown-marker market was filtered as noise")
	}
}

func TestFilterNoiseSkippedWhenTooFewRemain(t *testing.T) {
	// All noise except a handful. Filtering would leave fewer than the
	// floor, so the unfiltered set must come back.
	var markets []domain.Market
	for i := 0; i < minAfterFilter; i++ {
		m := mkMarket(fmt.Sprintf("poly_%d", i), domain.VenuePolymarket, 0)
		m.Probability = 50
		m.Change24h = 0
		markets = append(markets, m)
	}
	markets = append(markets, mkMarket("poly_real", domain.VenuePolymarket, 100))

	got := filterNoise(markets)
	if len(got) != len(markets) {
		t.Errorf("got %d markets, want unfiltered %d", len(got), len(markets))
	}
}

func TestSelectFairCapsDirectPicksPerVenue(t *testing.T) {
	// One venue far over the direct cap, nothing else. The fill pass then
	// tops the result up from the same venue's remainder, so the cap shows
	// up in pick ordering rather than final count.
	markets := venueBatch(domain.VenuePolymarket, "poly", maxPerVenueDirect+100, 10000)
	markets = append(markets, venueBatch(domain.VenueKalshi, "kalshi", 10, 50)...)

	got := selectFair(markets)
	if len(got) != maxPerVenueDirect+110 {
		t.Fatalf("selected %d markets, want %d", len(got), maxPerVenueDirect+110)
	}

	// Direct picks come first in venue order: the kalshi block must sit
	// immediately after polymarket's maxPerVenueDirect picks.
	for i := 0; i < maxPerVenueDirect; i++ {
		if got[i].Source != domain.VenuePolymarket {
			t.Fatalf("pick %d is %s, want polymarket direct pick", i, got[i].Source)
		}
	}
	for i := maxPerVenueDirect; i < maxPerVenueDirect+10; i++ {
		if got[i].Source != domain.VenueKalshi {
			t.Fatalf("pick %d is %s, want kalshi direct pick", i, got[i].Source)
		}
	}
	for i := maxPerVenueDirect + 10; i < len(got); i++ {
		if got[i].Source != domain.VenuePolymarket {
			t.Fatalf("pick %d is %s, want polymarket fill pick", i, got[i].Source)
		}
	}
}

func TestSelectFairGlobalCap(t *testing.T) {
	var markets []domain.Market
	for _, v := range domain.Venues {
		markets = append(markets, venueBatch(v, string(v), 400, 5000)...)
	}

	got := selectFair(markets)
	if len(got) != maxSelected {
		t.Errorf("selected %d markets, want cap %d", len(got), maxSelected)
	}
}

func TestSelectFairFillFavorsVolume(t *testing.T) {
	// Small pools: everything fits, and the fill pass can push the
	// high-volume venue past its direct floor.
	markets := venueBatch(domain.VenuePolymarket, "poly", 5, 100)
	markets = append(markets, venueBatch(domain.VenueKalshi, "kalshi", 5, 10)...)

	got := selectFair(markets)
	if len(got) != 10 {
		t.Fatalf("selected %d markets, want 10", len(got))
	}
	seen := make(map[string]bool)
	for _, m := range got {
		if seen[m.ID] {
			t.Fatalf("duplicate market %s in selection", m.ID)
		}
		seen[m.ID] = true
	}
}
