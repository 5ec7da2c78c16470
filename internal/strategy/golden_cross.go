package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/signal"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// GoldenCross buys when the short moving average crosses above the long
// one and sells on the opposite cross. Both fills happen at the close of
// the signal bar.
type GoldenCross struct {
	shortWindow int
	longWindow  int
}

// NewGoldenCross creates a GoldenCross strategy.
func NewGoldenCross(params types.StrategyParams) (Strategy, error) {
	if err := params.Validate(types.StrategyGoldenCross); err != nil {
		return nil, err
	}

	return &GoldenCross{
		shortWindow: params.ShortWindow,
		longWindow:  params.LongWindow,
	}, nil
}

func (s *GoldenCross) Name() string {
	return fmt.Sprintf("GoldenCross_%d_%d", s.shortWindow, s.longWindow)
}

func (s *GoldenCross) Type() types.StrategyType {
	return types.StrategyGoldenCross
}

func (s *GoldenCross) Families() signal.Family {
	return signal.FamilyTrend
}

func (s *GoldenCross) Decide(ctx DecisionContext) types.Decision {
	if !ctx.State.IsHolding() && goldenCross(ctx) {
		return enter(ctx.Bar.Close, "golden cross")
	}

	if ctx.State.IsHolding() && deadCross(ctx) {
		return exit(ctx.Bar.Close, "dead cross")
	}

	return types.Hold()
}
