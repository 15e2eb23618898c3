package engine

import (
	"math"
	"testing"
	"time"

	"github.com/oddslens/engine/internal/domain"
)

func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"perfect positive", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"perfect negative", []float64{1, 2, 3}, []float64{6, 4, 2}, -1},
		{"zero variance", []float64{5, 5, 5}, []float64{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
		{"length mismatch", []float64{1, 2}, []float64{1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pearson(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("pearson = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCategoryCorrelationsMatrixShape(t *testing.T) {
	markets := []domain.Market{
		edgeMarket("a", 50, 100, 2),
		edgeMarket("b", 50, 100, 3),
	}
	markets[1].Category = domain.CategoryPolitics

	m := CategoryCorrelations(markets)

	if len(m.Labels) != len(domain.Categories) {
		t.Fatalf("got %d labels, want %d", len(m.Labels), len(domain.Categories))
	}
	for i, cat := range domain.Categories {
		if m.Labels[i] != string(cat) {
			t.Errorf("label %d = %q, want %q", i, m.Labels[i], cat)
		}
	}

	for i := range m.Values {
		if len(m.Values[i]) != len(m.Labels) {
			t.Fatalf("row %d has %d values, want %d", i, len(m.Values[i]), len(m.Labels))
		}
		if m.Values[i][i] != 1 {
			t.Errorf("diagonal [%d][%d] = %f, want 1", i, i, m.Values[i][i])
		}
		for j := range m.Values[i] {
			if m.Values[i][j] != m.Values[j][i] {
				t.Errorf("matrix not symmetric at [%d][%d]", i, j)
			}
			if m.Values[i][j] < -1 || m.Values[i][j] > 1 {
				t.Errorf("value [%d][%d] = %f outside [-1,1]", i, j, m.Values[i][j])
			}
		}
	}
}

func TestCategoryCorrelationsIgnoresInactive(t *testing.T) {
	live := edgeMarket("live", 50, 100, 2)
	dead := edgeMarket("dead", 50, 100, 9)
	dead.Status = domain.MarketStatusClosed

	withDead := CategoryCorrelations([]domain.Market{live, dead})
	without := CategoryCorrelations([]domain.Market{live})

	for i := range withDead.Values {
		for j := range withDead.Values[i] {
			if withDead.Values[i][j] != without.Values[i][j] {
				t.Fatalf("closed market changed the matrix at [%d][%d]", i, j)
			}
		}
	}
}

func TestMarketCorrelationsTopVolumeOnly(t *testing.T) {
	anchor := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	var markets []domain.Market
	for i := 0; i < topMarketsForCorrelation+5; i++ {
		m := edgeMarket("m"+string(rune('a'+i)), 40+float64(i), float64(100*(i+1)), 1)
		markets = append(markets, m)
	}

	m := MarketCorrelations(markets, anchor)
	if len(m.Labels) != topMarketsForCorrelation {
		t.Fatalf("got %d labels, want top %d", len(m.Labels), topMarketsForCorrelation)
	}
	// Highest-volume market leads the label order.
	if m.Labels[0] != markets[len(markets)-1].ID {
		t.Errorf("first label = %q, want highest-volume %q", m.Labels[0], markets[len(markets)-1].ID)
	}
}

func TestMarketCorrelationsReproducible(t *testing.T) {
	anchor := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	markets := []domain.Market{
		edgeMarket("poly_x", 60, 500, 4),
		edgeMarket("poly_y", 35, 300, -2),
	}

	a := MarketCorrelations(markets, anchor)
	b := MarketCorrelations(markets, anchor)
	for i := range a.Values {
		for j := range a.Values[i] {
			if a.Values[i][j] != b.Values[i][j] {
				t.Fatalf("matrix not reproducible at [%d][%d]", i, j)
			}
		}
	}
}
