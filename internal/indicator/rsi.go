package indicator

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// RSI represents the Relative Strength Index indicator.
//
// Gains and losses are smoothed with a bias-adjusted exponentially weighted
// mean whose centre of mass is period (alpha = 1/(1+period)), i.e.
//
//	avg[t] = sum(w^k * x[t-k]) / sum(w^k), w = 1 - alpha
//
// and rsi = 100 - 100/(1 + avgGain/avgLoss). A zero average loss saturates
// the value at 100.
type RSI struct {
	period int
}

// NewRSI creates an RSI with the given period.
func NewRSI(period int) (*RSI, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return &RSI{period: period}, nil
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Lookback is period bars: the value needs period price changes.
func (r *RSI) Lookback() int {
	return r.period
}

// Calculate implements Indicator.
func (r *RSI) Calculate(bars []types.Bar) ([]float64, error) {
	out := nanSlice(len(bars))
	if len(bars) < 2 {
		return out, nil
	}

	decay := 1 - 1/(1+float64(r.period))

	var gainNum, lossNum, weight float64

	for i := 1; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close

		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		gainNum = gain + decay*gainNum
		lossNum = loss + decay*lossNum
		weight = 1 + decay*weight

		if i < r.period {
			continue
		}

		out[i] = relativeStrength(gainNum/weight, lossNum/weight)
	}

	return out, nil
}

func relativeStrength(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}
