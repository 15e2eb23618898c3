package domain

// CorrelationMatrix is a symmetric N×N Pearson correlation grid. Labels[i]
// names row i and column i; the diagonal is always exactly 1 and every value
// lies in [-1,1].
type CorrelationMatrix struct {
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"values"`
}
