package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/signal"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// TrendBreakout buys at the breakout target when the bar trades through
// it while the regime is TREND_UP. It sells at the open of the first bar
// whose regime is TREND_DOWN.
type TrendBreakout struct {
	shortWindow int
	longWindow  int
	k           float64
}

// NewTrendBreakout creates a TrendBreakout strategy.
func NewTrendBreakout(params types.StrategyParams) (Strategy, error) {
	if err := params.Validate(types.StrategyTrendBreakout); err != nil {
		return nil, err
	}

	return &TrendBreakout{
		shortWindow: params.ShortWindow,
		longWindow:  params.LongWindow,
		k:           params.BreakoutK,
	}, nil
}

func (s *TrendBreakout) Name() string {
	return fmt.Sprintf("TrendBreakout_%d_%d_%g", s.shortWindow, s.longWindow, s.k)
}

func (s *TrendBreakout) Type() types.StrategyType {
	return types.StrategyTrendBreakout
}

func (s *TrendBreakout) Families() signal.Family {
	return signal.FamilyTrend | signal.FamilyBreakout
}

func (s *TrendBreakout) Decide(ctx DecisionContext) types.Decision {
	sig := ctx.Signal

	if ctx.State.IsHolding() {
		if sig.Regime == types.RegimeTrendDown {
			return exit(ctx.Bar.Open, "trend turned down")
		}

		return types.Hold()
	}

	if sig.Regime == types.RegimeTrendUp && sig.TargetDefined() && ctx.Bar.High > sig.BreakoutTarget {
		return enter(sig.BreakoutTarget, "breakout in uptrend")
	}

	return types.Hold()
}
