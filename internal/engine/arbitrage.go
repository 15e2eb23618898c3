package engine

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/oddslens/engine/internal/domain"
)

const (
	// minSimilarity is the Jaccard threshold for treating two titles as the
	// same underlying event.
	minSimilarity = 0.4
	// minSpread is the minimum probability-point divergence worth surfacing.
	minSpread = 2.0
	// maxEndDateGap rejects pairs whose resolution dates are too far apart
	// to be the same contract. Unknown dates are treated as compatible.
	maxEndDateGap = 90 * 24 * time.Hour
	// maxPairs caps the emitted list.
	maxPairs = 20
)

// stopWords are dropped during title normalization; they carry no signal
// about which event a market describes.
var stopWords = map[string]bool{
	"will": true, "the": true, "a": true, "an": true, "be": true, "in": true,
	"on": true, "at": true, "of": true, "to": true, "by": true, "for": true,
	"is": true, "it": true, "and": true, "or": true, "before": true,
	"after": true, "than": true, "this": true, "that": true,
}

// MatchArbPairs finds same-category, cross-venue market pairs whose
// normalized titles describe the same event but whose prices diverge.
// Input is the aggregator's selected list; only active markets are compared.
// Pairs come back sorted by spread descending with leg IDs breaking ties, at
// most maxPairs of them, with MarketA always the higher-probability leg. The
// ordering is total, so identical input always yields the identical list.
func MatchArbPairs(markets []domain.Market) []domain.ArbPair {
	byCategory := make(map[domain.Category][]domain.Market)
	for _, m := range markets {
		if !m.Active() {
			continue
		}
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}

	var pairs []domain.ArbPair
	for _, cat := range domain.Categories {
		group := byCategory[cat]
		tokens := make([]map[string]bool, len(group))
		for i := range group {
			tokens[i] = titleTokens(group[i].Title)
		}

		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.Source == b.Source {
					continue
				}
				if !endDatesCompatible(a.EndDate, b.EndDate) {
					continue
				}

				sim := jaccard(tokens[i], tokens[j])
				if sim < minSimilarity {
					continue
				}

				spread := math.Abs(a.Probability - b.Probability)
				if spread < minSpread {
					continue
				}

				if b.Probability > a.Probability {
					a, b = b, a
				}
				pairs = append(pairs, domain.ArbPair{
					MarketA:    a,
					MarketB:    b,
					Spread:     spread,
					Similarity: sim,
				})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Spread != pairs[j].Spread {
			return pairs[i].Spread > pairs[j].Spread
		}
		if pairs[i].MarketA.ID != pairs[j].MarketA.ID {
			return pairs[i].MarketA.ID < pairs[j].MarketA.ID
		}
		return pairs[i].MarketB.ID < pairs[j].MarketB.ID
	})
	if len(pairs) > maxPairs {
		pairs = pairs[:maxPairs]
	}
	return pairs
}

// titleTokens normalizes a title into its token set: lowercase, punctuation
// stripped, stop-words dropped.
func titleTokens(title string) map[string]bool {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}

	set := make(map[string]bool)
	for _, tok := range strings.Fields(sb.String()) {
		if stopWords[tok] {
			continue
		}
		set[tok] = true
	}
	return set
}

// jaccard computes |A∩B| / |A∪B| over two token sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// endDatesCompatible reports whether two ISO dates are within the allowed
// gap. A missing or unparseable date is compatible with anything.
func endDatesCompatible(a, b string) bool {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA != nil || errB != nil {
		return true
	}
	gap := ta.Sub(tb)
	if gap < 0 {
		gap = -gap
	}
	return gap <= maxEndDateGap
}
