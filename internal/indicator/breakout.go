package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Breakout computes the volatility-breakout target
// open[i] + (high[i-1] - low[i-1]) * k. Only the previous, completed
// bar's range is used.
type Breakout struct {
	k float64
}

// NewBreakout creates a breakout target with range multiplier k.
func NewBreakout(k float64) (*Breakout, error) {
	if math.IsNaN(k) || math.IsInf(k, 0) || k < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidMultiplier, "breakout k must be a non-negative number, got %v", k)
	}

	return &Breakout{k: k}, nil
}

// Name returns the name of the indicator.
func (b *Breakout) Name() types.IndicatorType {
	return types.IndicatorTypeBreakout
}

// Lookback is one bar: the first bar has no prior range.
func (b *Breakout) Lookback() int {
	return 1
}

// Calculate returns the breakout target for every bar.
func (b *Breakout) Calculate(bars []types.Bar) ([]float64, error) {
	out := nanSlice(len(bars))

	for i := 1; i < len(bars); i++ {
		prev := bars[i-1]
		out[i] = bars[i].Open + (prev.High-prev.Low)*b.k
	}

	return out, nil
}
