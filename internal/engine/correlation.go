package engine

import (
	"math"
	"sort"
	"time"

	"github.com/oddslens/engine/internal/domain"
)

// topMarketsForCorrelation is how many high-volume markets feed the market
// correlation matrix.
const topMarketsForCorrelation = 10

// CategoryCorrelations computes the Pearson correlation matrix over the 24h
// change vectors of the five fixed categories. Vectors are zero-padded to
// the longest category so every pair is comparable.
func CategoryCorrelations(markets []domain.Market) domain.CorrelationMatrix {
	changes := make(map[domain.Category][]float64)
	for _, m := range markets {
		if !m.Active() {
			continue
		}
		changes[m.Category] = append(changes[m.Category], m.Change24h)
	}

	maxLen := 0
	for _, v := range changes {
		if len(v) > maxLen {
			maxLen = len(v)
		}
	}

	labels := make([]string, len(domain.Categories))
	series := make([][]float64, len(domain.Categories))
	for i, cat := range domain.Categories {
		labels[i] = string(cat)
		padded := make([]float64, maxLen)
		copy(padded, changes[cat])
		series[i] = padded
	}

	return correlationMatrix(labels, series)
}

// MarketCorrelations computes the Pearson correlation matrix over the
// synthetic price series of the top markets by volume. Series are seeded by
// market id, so the matrix is reproducible across calls for the same
// snapshot.
func MarketCorrelations(markets []domain.Market, anchor time.Time) domain.CorrelationMatrix {
	active := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if m.Active() {
			active = append(active, m)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Volume > active[j].Volume
	})
	if len(active) > topMarketsForCorrelation {
		active = active[:topMarketsForCorrelation]
	}

	labels := make([]string, len(active))
	series := make([][]float64, len(active))
	for i, m := range active {
		labels[i] = m.ID
		points := SynthesizeHistory(m.ID, m.Probability, m.Change24h, anchor)
		vals := make([]float64, len(points))
		for j, p := range points {
			vals[j] = p.Probability
		}
		series[i] = vals
	}

	return correlationMatrix(labels, series)
}

// correlationMatrix applies Pearson to every (i,j) pair. The same formula is
// applied to (i,j) and (j,i), so symmetry holds by construction; the
// diagonal is pinned to exactly 1.
func correlationMatrix(labels []string, series [][]float64) domain.CorrelationMatrix {
	n := len(labels)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		for j := range values[i] {
			if i == j {
				values[i][j] = 1
				continue
			}
			values[i][j] = pearson(series[i], series[j])
		}
	}
	return domain.CorrelationMatrix{Labels: labels, Values: values}
}

// pearson computes the Pearson correlation coefficient of two equal-length
// series, clamped to [-1,1]. Degenerate series (zero variance) correlate 0.
func pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}

	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}

	r := cov / math.Sqrt(varA*varB)
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r
}
