package engine

import (
	"math"
	"sort"

	"github.com/oddslens/engine/internal/domain"
)

// Component weights. Cross-source divergence, when present, always takes
// weightCross of the composite; the remaining three nominal weights are
// renormalized to fill whatever share is left (all of it when cross-source
// is absent).
const (
	weightCross     = 40.0
	weightVolume    = 25.0
	weightMomentum  = 20.0
	weightExtremity = 15.0

	// momentumFloor is the minimum magnitude for a 24h change (market or
	// category) to count as meaningful momentum.
	momentumFloor = 0.5
	// componentFloor is the noise floor above which a component counts
	// toward confidence.
	componentFloor = 5.0
)

// categoryStats holds the per-category baselines the scorer compares
// individual markets against.
type categoryStats struct {
	medianVolume float64
	// momentum is the volume-weighted net 24h change of the category.
	momentum float64
}

// ScoreEdges computes a composite mispricing score for every active market in
// the aggregator's output. pairs is the arbitrage matcher's output for the
// same snapshot; a market that appears in no pair gets a nil cross-source
// component, meaning "no comparable venue found", not "zero divergence".
func ScoreEdges(markets []domain.Market, pairs []domain.ArbPair) map[string]domain.EdgeSignal {
	stats := buildCategoryStats(markets)
	maxSpread := maxSpreadByMarket(pairs)

	signals := make(map[string]domain.EdgeSignal, len(markets))
	for _, m := range markets {
		if !m.Active() {
			continue
		}
		signals[m.ID] = scoreMarket(&m, stats[m.Category], maxSpread)
	}
	return signals
}

func scoreMarket(m *domain.Market, cat categoryStats, maxSpread map[string]float64) domain.EdgeSignal {
	midness := 1 - math.Abs(m.Probability-50)/50
	volRatio := 1.0
	if cat.medianVolume > 0 {
		volRatio = m.Volume / cat.medianVolume
	}

	comps := domain.EdgeComponents{
		VolumeAnomaly:      volumeAnomaly(volRatio, midness),
		MomentumDivergence: momentumDivergence(m.Change24h, cat.momentum),
		PriceExtremeness:   priceExtremeness(m.Probability, midness, volRatio),
	}
	if spread, ok := maxSpread[m.ID]; ok {
		v := math.Min(spread*5, 100)
		comps.CrossSourceDivergence = &v
	}

	score := composite(comps)
	return domain.EdgeSignal{
		MarketID:   m.ID,
		EdgeScore:  score,
		EdgeLabel:  domain.LabelForScore(score),
		Components: comps,
		Confidence: confidence(comps),
	}
}

// volumeAnomaly flags under-traded coin-flips (positive) and heavily traded
// conviction near an extreme (negative).
func volumeAnomaly(volRatio, midness float64) float64 {
	if volRatio < 0.5 && midness > 0.4 {
		return (1 - volRatio) * midness * 100
	}
	if volRatio > 2 && midness < 0.3 {
		return -math.Min(volRatio*(1-midness)*20, 100)
	}
	return 0
}

// momentumDivergence rewards markets moving against their category's
// volume-weighted momentum and mildly penalizes herd-following moves.
func momentumDivergence(change, catMomentum float64) float64 {
	if math.Abs(change) <= momentumFloor || math.Abs(catMomentum) <= momentumFloor {
		return 0
	}
	if change*catMomentum < 0 {
		return math.Min(math.Abs(change-catMomentum)*10, 100)
	}
	return -math.Min(math.Abs(change)*5, 30)
}

// priceExtremeness scores positioning near the probability extremes relative
// to traded volume, and very quiet coin-flips near 50%.
func priceExtremeness(prob, midness, volRatio float64) float64 {
	extreme := prob < 10 || prob > 90
	switch {
	case extreme && volRatio > 1.5:
		return -math.Min((1-midness)*volRatio*30, 100)
	case extreme && volRatio < 0.5:
		return math.Min((1-midness)*60, 50)
	case midness > 0.8 && volRatio < 0.3:
		return math.Min(midness*(1-volRatio)*60, 60)
	default:
		return 0
	}
}

// composite folds the components into one [-100,100] integer. With
// cross-source present the split is 40/25/20/15; without it the three
// remaining weights are rescaled to sum to 100%.
func composite(c domain.EdgeComponents) int {
	restNominal := weightVolume + weightMomentum + weightExtremity

	var total float64
	if c.CrossSourceDivergence != nil {
		cross := *c.CrossSourceDivergence
		scale := (100 - weightCross) / restNominal
		total = weightCross/100*cross +
			weightVolume*scale/100*c.VolumeAnomaly +
			weightMomentum*scale/100*c.MomentumDivergence +
			weightExtremity*scale/100*c.PriceExtremeness
	} else {
		total = weightVolume/restNominal*c.VolumeAnomaly +
			weightMomentum/restNominal*c.MomentumDivergence +
			weightExtremity/restNominal*c.PriceExtremeness
	}

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}
	if score < -100 {
		score = -100
	}
	return score
}

// confidence counts components above the noise floor, out of 4, with a 0.1
// base, capped at 1.
func confidence(c domain.EdgeComponents) float64 {
	active := 0
	if c.CrossSourceDivergence != nil && math.Abs(*c.CrossSourceDivergence) > componentFloor {
		active++
	}
	for _, v := range []float64{c.VolumeAnomaly, c.MomentumDivergence, c.PriceExtremeness} {
		if math.Abs(v) > componentFloor {
			active++
		}
	}
	conf := (float64(active) + 0.1) / 4
	if conf > 1 {
		conf = 1
	}
	return conf
}

// buildCategoryStats computes the median volume and volume-weighted net 24h
// momentum of each category's active markets.
func buildCategoryStats(markets []domain.Market) map[domain.Category]categoryStats {
	volumes := make(map[domain.Category][]float64)
	weighted := make(map[domain.Category]float64)
	totalVol := make(map[domain.Category]float64)

	for _, m := range markets {
		if !m.Active() {
			continue
		}
		volumes[m.Category] = append(volumes[m.Category], m.Volume)
		weighted[m.Category] += m.Change24h * m.Volume
		totalVol[m.Category] += m.Volume
	}

	stats := make(map[domain.Category]categoryStats, len(volumes))
	for cat, vols := range volumes {
		s := categoryStats{medianVolume: median(vols)}
		if totalVol[cat] > 0 {
			s.momentum = weighted[cat] / totalVol[cat]
		}
		stats[cat] = s
	}
	return stats
}

// maxSpreadByMarket maps each market id to the largest spread of any arb
// pair it participates in.
func maxSpreadByMarket(pairs []domain.ArbPair) map[string]float64 {
	out := make(map[string]float64, len(pairs)*2)
	for _, p := range pairs {
		for _, id := range []string{p.MarketA.ID, p.MarketB.ID} {
			if p.Spread > out[id] {
				out[id] = p.Spread
			}
		}
	}
	return out
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
