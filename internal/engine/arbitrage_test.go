package engine

import (
	"fmt"
	"testing"

	"github.com/oddslens/engine/internal/domain"
)

func arbMarket(id string, venue domain.Venue, title string, prob float64) domain.Market {
	return domain.Market{
		ID:          id,
		Title:       title,
		Category:    domain.CategoryPolitics,
		Probability: prob,
		Volume:      1000,
		Status:      domain.MarketStatusActive,
		Source:      venue,
	}
}

func TestMatchArbPairsFindsCrossVenueDivergence(t *testing.T) {
	markets := []domain.Market{
		arbMarket("poly_1", domain.VenuePolymarket, "Will the Fed cut interest rates in March?", 62),
		arbMarket("kalshi_1", domain.VenueKalshi, "Fed cuts interest rates in March 2026", 51),
	}

	pairs := MatchArbPairs(markets)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}

	p := pairs[0]
	if p.MarketA.ID != "poly_1" {
		t.Errorf("MarketA = %s, want the higher-probability leg poly_1", p.MarketA.ID)
	}
	if p.MarketB.ID != "kalshi_1" {
		t.Errorf("MarketB = %s, want kalshi_1", p.MarketB.ID)
	}
	if p.Spread != 11 {
		t.Errorf("spread = %f, want 11", p.Spread)
	}
	if p.Similarity < minSimilarity {
		t.Errorf("similarity %f below threshold %f", p.Similarity, minSimilarity)
	}
}

func TestMatchArbPairsRejectsSameVenue(t *testing.T) {
	markets := []domain.Market{
		arbMarket("poly_1", domain.VenuePolymarket, "Fed cuts rates in March", 62),
		arbMarket("poly_2", domain.VenuePolymarket, "Fed cuts rates in March", 40),
	}
	if pairs := MatchArbPairs(markets); len(pairs) != 0 {
		t.Errorf("got %d pairs from the same venue, want 0", len(pairs))
	}
}

func TestMatchArbPairsRejectsDissimilarTitles(t *testing.T) {
	markets := []domain.Market{
		arbMarket("poly_1", domain.VenuePolymarket, "Fed cuts interest rates in March", 62),
		arbMarket("kalshi_1", domain.VenueKalshi, "Senate confirms the new cabinet nominee", 40),
	}
	if pairs := MatchArbPairs(markets); len(pairs) != 0 {
		t.Errorf("got %d pairs from unrelated titles, want 0", len(pairs))
	}
}

func TestMatchArbPairsRejectsSmallSpread(t *testing.T) {
	markets := []domain.Market{
		arbMarket("poly_1", domain.VenuePolymarket, "Fed cuts interest rates in March", 51.5),
		arbMarket("kalshi_1", domain.VenueKalshi, "Fed cuts interest rates in March", 50),
	}
	if pairs := MatchArbPairs(markets); len(pairs) != 0 {
		t.Errorf("got %d pairs below the spread floor, want 0", len(pairs))
	}
}

func TestMatchArbPairsRejectsDistantEndDates(t *testing.T) {
	a := arbMarket("poly_1", domain.VenuePolymarket, "Fed cuts interest rates in March", 62)
	a.EndDate = "2026-03-31"
	b := arbMarket("kalshi_1", domain.VenueKalshi, "Fed cuts interest rates in March", 40)
	b.EndDate = "2027-03-31"

	if pairs := MatchArbPairs([]domain.Market{a, b}); len(pairs) != 0 {
		t.Errorf("got %d pairs across incompatible end dates, want 0", len(pairs))
	}
}

func TestMatchArbPairsUnknownEndDateIsCompatible(t *testing.T) {
	a := arbMarket("poly_1", domain.VenuePolymarket, "Fed cuts interest rates in March", 62)
	a.EndDate = "2026-03-31"
	b := arbMarket("kalshi_1", domain.VenueKalshi, "Fed cuts interest rates in March", 40)
	b.EndDate = ""

	if pairs := MatchArbPairs([]domain.Market{a, b}); len(pairs) != 1 {
		t.Errorf("got %d pairs with one unknown end date, want 1", len(pairs))
	}
}

func TestMatchArbPairsIgnoresInactiveMarkets(t *testing.T) {
	a := arbMarket("poly_1", domain.VenuePolymarket, "Fed cuts interest rates in March", 62)
	b := arbMarket("kalshi_1", domain.VenueKalshi, "Fed cuts interest rates in March", 40)
	b.Status = domain.MarketStatusResolved

	if pairs := MatchArbPairs([]domain.Market{a, b}); len(pairs) != 0 {
		t.Errorf("got %d pairs including a resolved market, want 0", len(pairs))
	}
}

func TestMatchArbPairsSortedAndCapped(t *testing.T) {
	var markets []domain.Market
	for i := 0; i < maxPairs+10; i++ {
		title := fmt.Sprintf("Candidate number %d wins seat %d race", i, i)
		markets = append(markets,
			arbMarket(fmt.Sprintf("poly_%d", i), domain.VenuePolymarket, title, 50+float64(i%40)),
			arbMarket(fmt.Sprintf("kalshi_%d", i), domain.VenueKalshi, title, 40),
		)
	}

	pairs := MatchArbPairs(markets)
	if len(pairs) != maxPairs {
		t.Fatalf("got %d pairs, want cap %d", len(pairs), maxPairs)
	}
	for i := 1; i < len(pairs); i++ {
		if pairs[i].Spread > pairs[i-1].Spread {
			t.Fatalf("pairs not sorted by spread at %d: %f > %f", i, pairs[i].Spread, pairs[i-1].Spread)
		}
	}
}

func TestMatchArbPairsDeterministicAcrossEqualSpreads(t *testing.T) {
	groups := []struct {
		cat   domain.Category
		slug  string
		title string
	}{
		{domain.CategoryPolitics, "politics", "senate control flips in november"},
		{domain.CategorySports, "sports", "lakers take the western conference crown"},
		{domain.CategoryCrypto, "crypto", "bitcoin closes above 200k this year"},
		{domain.CategoryTech, "tech", "nvidia ships the next datacenter chip"},
		{domain.CategoryWorld, "world", "ceasefire holds through the winter"},
	}

	// One pair per category, every spread identical, so ordering cannot
	// lean on spread alone.
	var markets []domain.Market
	for _, g := range groups {
		high := arbMarket("poly_"+g.slug, domain.VenuePolymarket, g.title, 60)
		high.Category = g.cat
		low := arbMarket("kalshi_"+g.slug, domain.VenueKalshi, g.title, 50)
		low.Category = g.cat
		markets = append(markets, high, low)
	}

	first := MatchArbPairs(markets)
	if len(first) != len(groups) {
		t.Fatalf("got %d pairs, want %d", len(first), len(groups))
	}
	wantOrder := []string{"poly_crypto", "poly_politics", "poly_sports", "poly_tech", "poly_world"}
	for i, want := range wantOrder {
		if first[i].MarketA.ID != want {
			t.Fatalf("pair %d leg A = %s, want %s", i, first[i].MarketA.ID, want)
		}
	}

	for run := 0; run < 50; run++ {
		again := MatchArbPairs(markets)
		for i := range first {
			if again[i].MarketA.ID != first[i].MarketA.ID || again[i].MarketB.ID != first[i].MarketB.ID {
				t.Fatalf("run %d: pair %d changed to %s/%s, want %s/%s",
					run, i, again[i].MarketA.ID, again[i].MarketB.ID,
					first[i].MarketA.ID, first[i].MarketB.ID)
			}
		}
	}
}

func TestTitleTokensDropsStopWordsAndPunctuation(t *testing.T) {
	got := titleTokens("Will the Fed cut rates, before March?")
	for _, tok := range []string{"will", "the", "before"} {
		if got[tok] {
			t.Errorf("stop word %q survived tokenization", tok)
		}
	}
	for _, tok := range []string{"fed", "cut", "rates", "march"} {
		if !got[tok] {
			t.Errorf("token %q missing from %v", tok, got)
		}
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"fed", "rates"}, []string{"fed", "rates"}, 1},
		{"disjoint", []string{"fed"}, []string{"senate"}, 0},
		{"half overlap", []string{"fed", "rates", "march"}, []string{"fed", "rates", "april"}, 0.5},
		{"both empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := make(map[string]bool)
			for _, s := range tt.a {
				a[s] = true
			}
			b := make(map[string]bool)
			for _, s := range tt.b {
				b[s] = true
			}
			if got := jaccard(a, b); got != tt.want {
				t.Errorf("jaccard = %f, want %f", got, tt.want)
			}
		})
	}
}
