// Package analyzer turns an equity trace into performance metrics.
package analyzer

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Report holds the metrics of one simulation. Ratios are fractions,
// not percentages.
type Report struct {
	InitialCapital float64
	FinalCapital   float64
	// TotalReturn is finalCapital / initialCapital - 1.
	TotalReturn float64
	// BuyAndHold is lastClose / firstClose - 1 over the same window.
	BuyAndHold float64
	// MDD is the most negative drawdown, 0 when equity never fell below its peak.
	MDD float64
	// Peak is the running maximum of the cumulative return.
	Peak []float64
	// Drawdown is (cumulativeReturn - peak) / peak, always <= 0.
	Drawdown []float64
	// Sharpe is mean / standard deviation of per-bar cumulative return changes.
	Sharpe float64
}

// TotalReturnPct returns TotalReturn as a percentage.
func (r Report) TotalReturnPct() float64 {
	return r.TotalReturn * 100
}

// BuyAndHoldPct returns BuyAndHold as a percentage.
func (r Report) BuyAndHoldPct() float64 {
	return r.BuyAndHold * 100
}

// MDDPct returns MDD as a percentage.
func (r Report) MDDPct() float64 {
	return r.MDD * 100
}

// Analyze computes the report for trace. closes are the close prices of
// the simulated bars and feed the buy-and-hold benchmark.
func Analyze(trace []types.EquityPoint, closes []float64, initialCapital float64) (Report, error) {
	if len(trace) == 0 {
		return Report{}, errors.New(errors.ErrCodeDataUnavailable, "equity trace is empty")
	}

	if len(closes) == 0 {
		return Report{}, errors.New(errors.ErrCodeDataUnavailable, "no close prices for the benchmark")
	}

	if initialCapital <= 0 || math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) {
		return Report{}, errors.Newf(errors.ErrCodeInvalidParameter, "initial capital must be positive, got %v", initialCapital)
	}

	if closes[0] <= 0 {
		return Report{}, errors.Newf(errors.ErrCodeInvalidSeries, "first close must be positive, got %v", closes[0])
	}

	peak := make([]float64, len(trace))
	drawdown := make([]float64, len(trace))
	running := math.Inf(-1)
	mdd := 0.0

	for i, point := range trace {
		cr := point.Capital / initialCapital
		running = math.Max(running, cr)

		if running <= 0 {
			return Report{}, errors.Newf(errors.ErrCodeDegenerateDrawdown,
				"running peak of cumulative return is %v at %s", running, point.Time)
		}

		peak[i] = running
		drawdown[i] = (cr - running) / running
		mdd = math.Min(mdd, drawdown[i])
	}

	final := trace[len(trace)-1].Capital

	return Report{
		InitialCapital: initialCapital,
		FinalCapital:   final,
		TotalReturn:    final/initialCapital - 1,
		BuyAndHold:     closes[len(closes)-1]/closes[0] - 1,
		MDD:            mdd,
		Peak:           peak,
		Drawdown:       drawdown,
		Sharpe:         sharpe(trace, initialCapital),
	}, nil
}

// TradeStats counts winning and losing round trips.
func TradeStats(trades []types.Trade) types.TradeResult {
	result := types.TradeResult{NumberOfTrades: len(trades)}

	for _, trade := range trades {
		switch {
		case trade.Return > 0:
			result.NumberOfWinningTrades++
		case trade.Return < 0:
			result.NumberOfLosingTrades++
		}
	}

	if result.NumberOfTrades > 0 {
		result.WinRate = float64(result.NumberOfWinningTrades) / float64(result.NumberOfTrades)
	}

	return result
}

// sharpe uses the sample standard deviation and returns 0 when it is 0
// or there are fewer than two changes.
func sharpe(trace []types.EquityPoint, initialCapital float64) float64 {
	if len(trace) < 3 {
		return 0
	}

	changes := make([]float64, 0, len(trace)-1)
	for i := 1; i < len(trace); i++ {
		changes = append(changes, (trace[i].Capital-trace[i-1].Capital)/initialCapital)
	}

	mean := 0.0
	for _, c := range changes {
		mean += c
	}

	mean /= float64(len(changes))

	variance := 0.0
	for _, c := range changes {
		variance += (c - mean) * (c - mean)
	}

	std := math.Sqrt(variance / float64(len(changes)-1))
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	return mean / std
}
