package engine

import (
	"context"
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/signal"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// SimulationRun is the raw output of the simulator before analysis.
type SimulationRun struct {
	// Start is the index of the first simulated bar. Bars before it are warm-up.
	Start  int
	Trace  []types.EquityPoint
	Trades []types.Trade
	Final  types.SimulationState
}

// Simulator walks a series bar by bar and applies a strategy's decisions
// to a CASH/HOLDING state machine.
type Simulator struct {
	initialCapital float64
	commission     commission_fee.CommissionFee
	onBar          func(current int, total int) error
}

// NewSimulator creates a simulator.
func NewSimulator(initialCapital float64, commission commission_fee.CommissionFee) *Simulator {
	return &Simulator{
		initialCapital: initialCapital,
		commission:     commission,
		onBar:          nil,
	}
}

// SetProgressCallback registers fn to be called after each simulated bar.
// A non-nil error from fn aborts the run.
func (s *Simulator) SetProgressCallback(fn func(current int, total int) error) {
	s.onBar = fn
}

// Run simulates strat over series. signals must be index-aligned with
// series.Bars. The run starts at the first bar whose signals are all
// defined; if no bar qualifies the error carries ErrCodeInsufficientHistory.
// A position still open after the last bar is closed at the last close.
func (s *Simulator) Run(ctx context.Context, series types.Series, signals []types.SignalSet, strat strategy.Strategy) (SimulationRun, error) {
	if err := series.Validate(); err != nil {
		return SimulationRun{}, err
	}

	if len(signals) != series.Len() {
		return SimulationRun{}, errors.Newf(errors.ErrCodeSimulationFailed,
			"got %d signal sets for %d bars", len(signals), series.Len())
	}

	if s.initialCapital <= 0 || math.IsNaN(s.initialCapital) || math.IsInf(s.initialCapital, 0) {
		return SimulationRun{}, errors.Newf(errors.ErrCodeInvalidParameter, "initial capital must be positive, got %v", s.initialCapital)
	}

	start := signal.FirstReady(signals, strat.Families())
	if start < 0 {
		return SimulationRun{}, errors.Newf(errors.ErrCodeInsufficientHistory,
			"%s: none of the %d bars of %s has every indicator defined", strat.Name(), series.Len(), series.Symbol)
	}

	total := series.Len() - start
	state := types.NewSimulationState(s.initialCapital)
	trace := make([]types.EquityPoint, 0, total)
	trades := make([]types.Trade, 0)

	for i := start; i < series.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return SimulationRun{}, errors.Wrap(errors.ErrCodeSweepCancelled, "simulation cancelled", err)
		}

		previous := optional.None[types.SignalSet]()
		if i > start {
			previous = optional.Some(signals[i-1])
		}

		bar := series.Bars[i]
		decision := strat.Decide(strategy.DecisionContext{
			Index:    i,
			Bar:      bar,
			Signal:   signals[i],
			Previous: previous,
			State:    state,
		})

		next, trade, err := Step(state, i, bar, decision, s.commission)
		if err != nil {
			return SimulationRun{}, err
		}

		state = next
		if trade != nil {
			trades = append(trades, *trade)
		}

		trace = append(trace, s.point(bar, state))

		if s.onBar != nil {
			if err := s.onBar(i-start+1, total); err != nil {
				return SimulationRun{}, err
			}
		}
	}

	if state.IsHolding() {
		last := series.Bars[series.Len()-1]
		next, trade := closePosition(state, last.Close, last.Time, s.commission, true)
		state = next
		trades = append(trades, trade)
		trace[len(trace)-1] = s.point(last, state)
	}

	return SimulationRun{
		Start:  start,
		Trace:  trace,
		Trades: trades,
		Final:  state,
	}, nil
}

func (s *Simulator) point(bar types.Bar, state types.SimulationState) types.EquityPoint {
	return types.EquityPoint{
		Time:             bar.Time,
		Capital:          state.Capital,
		CumulativeReturn: state.Capital / s.initialCapital,
		Position:         state.Position,
	}
}

// Step applies one decision to state and returns the next state. ENTER is
// honoured only in CASH and EXIT only in HOLDING; anything else leaves the
// state unchanged. A non-nil Trade is returned when a position closes.
func Step(state types.SimulationState, index int, bar types.Bar, decision types.Decision, commission commission_fee.CommissionFee) (types.SimulationState, *types.Trade, error) {
	switch {
	case decision.Action == types.ActionEnter && !state.IsHolding():
		if err := checkPrice(decision.Price, bar); err != nil {
			return state, nil, err
		}

		next := state
		next.Position = types.PositionHolding
		next.EntryPrice = decision.Price
		next.EntryTime = bar.Time
		next.EntryIndex = index
		next.EntryFeeFactor = commission.EntryFactor()

		return next, nil, nil

	case decision.Action == types.ActionExit && state.IsHolding():
		if err := checkPrice(decision.Price, bar); err != nil {
			return state, nil, err
		}

		next, trade := closePosition(state, decision.Price, bar.Time, commission, false)

		return next, &trade, nil

	default:
		return state, nil, nil
	}
}

// closePosition settles both fee legs: capital *= (exit/entry) * entryLeg * exitLeg.
func closePosition(state types.SimulationState, price float64, at time.Time, commission commission_fee.CommissionFee, forced bool) (types.SimulationState, types.Trade) {
	multiplier := (price / state.EntryPrice) * state.EntryFeeFactor * commission.ExitFactor()

	trade := types.Trade{
		EntryTime:  state.EntryTime,
		ExitTime:   at,
		EntryPrice: state.EntryPrice,
		ExitPrice:  price,
		Return:     multiplier - 1,
		Forced:     forced,
	}

	next := types.NewSimulationState(state.Capital * multiplier)

	return next, trade
}

func checkPrice(price float64, bar types.Bar) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return errors.Newf(errors.ErrCodeSimulationFailed, "invalid execution price %v at %s", price, bar.Time)
	}

	return nil
}
