package domain

// EdgeLabel is the trading recommendation derived from an edge score.
type EdgeLabel string

const (
	EdgeStrongBuy  EdgeLabel = "STRONG BUY"
	EdgeBuy        EdgeLabel = "BUY"
	EdgeNeutral    EdgeLabel = "NEUTRAL"
	EdgeSell       EdgeLabel = "SELL"
	EdgeStrongSell EdgeLabel = "STRONG SELL"
)

// EdgeComponents holds the four independent sub-scores that feed the
// composite edge score, each on roughly a [-100,100] scale.
// CrossSourceDivergence is nil when no comparable market exists on another
// venue, which is distinct from a measured divergence of zero.
type EdgeComponents struct {
	CrossSourceDivergence *float64 `json:"crossSourceDivergence"`
	VolumeAnomaly         float64  `json:"volumeAnomaly"`
	MomentumDivergence    float64  `json:"momentumDivergence"`
	PriceExtremeness      float64  `json:"priceExtremeness"`
}

// EdgeSignal is the composite mispricing indicator for a single market.
type EdgeSignal struct {
	MarketID   string         `json:"marketId"`
	EdgeScore  int            `json:"edgeScore"`
	EdgeLabel  EdgeLabel      `json:"edgeLabel"`
	Components EdgeComponents `json:"components"`
	Confidence float64        `json:"confidence"`
}

// LabelForScore maps a composite score to its recommendation label using the
// fixed thresholds 40/15/-15/-40.
func LabelForScore(score int) EdgeLabel {
	switch {
	case score >= 40:
		return EdgeStrongBuy
	case score >= 15:
		return EdgeBuy
	case score <= -40:
		return EdgeStrongSell
	case score <= -15:
		return EdgeSell
	default:
		return EdgeNeutral
	}
}
