// Package strategy holds the decision rules the simulator consults on
// every bar.
package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/signal"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// DecisionContext is everything a strategy may read for one bar.
type DecisionContext struct {
	// Index is the bar index within the series.
	Index int
	Bar   types.Bar
	// Signal is the SignalSet computed for Bar.
	Signal types.SignalSet
	// Previous is the SignalSet of the prior simulated bar. None on the
	// first simulated bar.
	Previous optional.Option[types.SignalSet]
	// State is a copy of the simulator state before this bar.
	State types.SimulationState
}

// BarsHeld returns the number of bars since the position was opened, or
// -1 when flat.
func (c DecisionContext) BarsHeld() int {
	if !c.State.IsHolding() {
		return -1
	}

	return c.Index - c.State.EntryIndex
}

// Strategy decides, bar by bar, whether to enter or exit.
type Strategy interface {
	// Name returns a display name including the parameters.
	Name() string
	// Type returns the variant tag.
	Type() types.StrategyType
	// Families returns the indicator families Decide reads.
	Families() signal.Family
	// Decide returns the action for the current bar. It must only use
	// data at or before ctx.Index.
	Decide(ctx DecisionContext) types.Decision
}

func enter(price float64, reason string) types.Decision {
	return types.Decision{Action: types.ActionEnter, Price: price, Reason: reason}
}

func exit(price float64, reason string) types.Decision {
	return types.Decision{Action: types.ActionExit, Price: price, Reason: reason}
}

// goldenCross reports a transition from TREND_DOWN to TREND_UP.
func goldenCross(ctx DecisionContext) bool {
	prev, err := ctx.Previous.Take()
	if err != nil {
		return false
	}

	return prev.Regime == types.RegimeTrendDown && ctx.Signal.Regime == types.RegimeTrendUp
}

// deadCross reports a transition from TREND_UP to TREND_DOWN.
func deadCross(ctx DecisionContext) bool {
	prev, err := ctx.Previous.Take()
	if err != nil {
		return false
	}

	return prev.Regime == types.RegimeTrendUp && ctx.Signal.Regime == types.RegimeTrendDown
}
