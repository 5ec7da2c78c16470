package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/signal"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// TrendRSI buys a dip (RSI below the threshold) while the regime is
// TREND_UP and sells on the dead cross, both at the signal bar close.
type TrendRSI struct {
	shortWindow int
	longWindow  int
	rsiPeriod   int
	threshold   float64
}

// NewTrendRSI creates a TrendRSI strategy.
func NewTrendRSI(params types.StrategyParams) (Strategy, error) {
	if err := params.Validate(types.StrategyTrendRSI); err != nil {
		return nil, err
	}

	return &TrendRSI{
		shortWindow: params.ShortWindow,
		longWindow:  params.LongWindow,
		rsiPeriod:   params.RSIPeriod,
		threshold:   params.RSIThreshold,
	}, nil
}

func (s *TrendRSI) Name() string {
	return fmt.Sprintf("TrendRSI_%d_%d_%d_%g", s.shortWindow, s.longWindow, s.rsiPeriod, s.threshold)
}

func (s *TrendRSI) Type() types.StrategyType {
	return types.StrategyTrendRSI
}

func (s *TrendRSI) Families() signal.Family {
	return signal.FamilyTrend | signal.FamilyRSI
}

func (s *TrendRSI) Decide(ctx DecisionContext) types.Decision {
	if ctx.State.IsHolding() {
		if deadCross(ctx) {
			return exit(ctx.Bar.Close, "dead cross")
		}

		return types.Hold()
	}

	sig := ctx.Signal
	if sig.Regime == types.RegimeTrendUp && sig.RSIDefined() && sig.RSI < s.threshold {
		return enter(ctx.Bar.Close, fmt.Sprintf("rsi %.2f below %g in uptrend", sig.RSI, s.threshold))
	}

	return types.Hold()
}
