package domain

// ArbPair is a pair of economically equivalent markets listed on different
// venues at diverging prices. MarketA is always the higher-probability side;
// Spread is the absolute probability-point difference between the two legs.
type ArbPair struct {
	MarketA    Market  `json:"marketA"`
	MarketB    Market  `json:"marketB"`
	Spread     float64 `json:"spread"`
	Similarity float64 `json:"similarity"`
}
