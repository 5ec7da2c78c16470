package indicator

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MA is a simple moving average of close prices.
type MA struct {
	period int
}

// NewMA creates a simple moving average over period bars.
func NewMA(period int) (*MA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return &MA{period: period}, nil
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

// Lookback returns period-1.
func (m *MA) Lookback() int {
	return m.period - 1
}

// Calculate returns the trailing mean of the last period closes. The window
// is summed afresh for every bar so equal windows give identical values.
func (m *MA) Calculate(bars []types.Bar) ([]float64, error) {
	out := nanSlice(len(bars))

	for i := m.period - 1; i < len(bars); i++ {
		out[i] = calculateSimpleMovingAverage(bars[i-m.period+1 : i+1])
	}

	return out, nil
}

func calculateSimpleMovingAverage(data []types.Bar) float64 {
	sum := 0.0
	for _, d := range data {
		sum += d.Close
	}

	return sum / float64(len(data))
}
