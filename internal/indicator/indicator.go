package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Indicator computes one value per bar from that bar and the bars before
// it. Bars inside the warm-up get NaN.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Lookback is the number of leading bars that have no value.
	Lookback() int
	// Calculate returns a slice aligned index-for-index with bars.
	Calculate(bars []types.Bar) ([]float64, error)
}

// nanSlice returns n NaN values.
func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
