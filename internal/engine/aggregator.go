package engine

import (
	"sort"

	"github.com/oddslens/engine/internal/domain"
)

const (
	// maxSelected caps the aggregate output size.
	maxSelected = 1000
	// maxPerVenueDirect caps each venue's direct picks. The later fill pass
	// draws from the global remainder pool, so a volume-heavy venue can end
	// up above this floor in the final set; that imbalance is intentional
	// ("volume wins once the per-venue floor is met").
	maxPerVenueDirect = 250
	// minAfterFilter: if the noise filter would leave fewer markets than
	// this, the filter is skipped entirely so a bad fetch cycle still
	// produces a usable set.
	minAfterFilter = 30
)

// Aggregate merges the ingestors' combined output into the final ordered
// market list: noise filter, fair-representation selection, then a global
// volume-descending sort. The input slice is not mutated.
func Aggregate(markets []domain.Market) []domain.Market {
	filtered := filterNoise(markets)
	selected := selectFair(filtered)

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Volume > selected[j].Volume
	})
	return selected
}

// filterNoise drops inert placeholder markets: probability exactly 50 with
// zero 24h change and zero volume. PredictIt markets are always kept since
// the exact-50/zero-volume shape is that venue's deliberate unknown marker,
// not noise. If filtering leaves fewer than minAfterFilter markets, the
// unfiltered set is returned instead.
func filterNoise(markets []domain.Market) []domain.Market {
	kept := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if m.Source != domain.VenuePredictIt &&
			m.Probability == 50 && m.Change24h == 0 && m.Volume == 0 {
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) < minAfterFilter {
		return append([]domain.Market(nil), markets...)
	}
	return kept
}

// selectFair picks up to maxPerVenueDirect markets per venue by volume
// ("direct" picks), then fills up to maxSelected from the global pool of
// everything not yet selected, again by volume.
func selectFair(markets []domain.Market) []domain.Market {
	byVenue := make(map[domain.Venue][]domain.Market)
	for _, m := range markets {
		byVenue[m.Source] = append(byVenue[m.Source], m)
	}

	selected := make([]domain.Market, 0, maxSelected)
	taken := make(map[string]bool, maxSelected)

	// Direct picks: iterate venues in their fixed order for determinism.
	for _, v := range domain.Venues {
		group := byVenue[v]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Volume > group[j].Volume
		})
		n := len(group)
		if n > maxPerVenueDirect {
			n = maxPerVenueDirect
		}
		for _, m := range group[:n] {
			if taken[m.ID] {
				continue
			}
			taken[m.ID] = true
			selected = append(selected, m)
		}
	}

	// Fill pass from the global remainder pool. The pool is venue-blind, so
	// it can push one venue past the direct cap.
	if len(selected) < maxSelected {
		remainder := make([]domain.Market, 0, len(markets))
		for _, m := range markets {
			if !taken[m.ID] {
				remainder = append(remainder, m)
			}
		}
		sort.SliceStable(remainder, func(i, j int) bool {
			return remainder[i].Volume > remainder[j].Volume
		})
		for _, m := range remainder {
			if len(selected) >= maxSelected {
				break
			}
			if taken[m.ID] {
				continue
			}
			taken[m.ID] = true
			selected = append(selected, m)
		}
	}

	if len(selected) > maxSelected {
		selected = selected[:maxSelected]
	}
	return selected
}
