package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/signal"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Breakout buys at the breakout target when the bar trades through it
// and sells at the open of the following bar. A bar that closes a
// position never reopens one.
type Breakout struct {
	k float64
}

// NewBreakout creates a Breakout strategy.
func NewBreakout(params types.StrategyParams) (Strategy, error) {
	if err := params.Validate(types.StrategyBreakout); err != nil {
		return nil, err
	}

	return &Breakout{k: params.BreakoutK}, nil
}

func (s *Breakout) Name() string {
	return fmt.Sprintf("Breakout_%g", s.k)
}

func (s *Breakout) Type() types.StrategyType {
	return types.StrategyBreakout
}

func (s *Breakout) Families() signal.Family {
	return signal.FamilyBreakout
}

func (s *Breakout) Decide(ctx DecisionContext) types.Decision {
	if ctx.State.IsHolding() {
		if ctx.BarsHeld() >= 1 {
			return exit(ctx.Bar.Open, "next bar open")
		}

		return types.Hold()
	}

	sig := ctx.Signal
	if sig.TargetDefined() && ctx.Bar.High > sig.BreakoutTarget {
		return enter(sig.BreakoutTarget, "breakout")
	}

	return types.Hold()
}
