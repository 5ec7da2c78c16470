// Package optimizer sweeps a parameter grid through the simulation engine
// and ranks the outcomes.
package optimizer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Objective names the metric results are ranked by.
type Objective string

const (
	ObjectiveFinalCapital Objective = "final_capital"
	ObjectiveTotalReturn  Objective = "total_return"
	ObjectiveMDD          Objective = "mdd"
	ObjectiveSharpe       Objective = "sharpe"
)

// AllObjectives lists the supported objectives, in schema order.
var AllObjectives = []any{
	ObjectiveFinalCapital,
	ObjectiveTotalReturn,
	ObjectiveMDD,
	ObjectiveSharpe,
}

// Value extracts the objective from a result. Higher is better for every
// objective, MDD included since it is never positive.
func (o Objective) Value(result types.OptimizationResult) float64 {
	switch o {
	case ObjectiveTotalReturn:
		return result.TotalReturnPct
	case ObjectiveMDD:
		return result.MDDPct
	case ObjectiveSharpe:
		return result.SharpeRatio
	default:
		return result.FinalCapital
	}
}

// OnCombinationDoneCallback is called after each combination finishes,
// successfully or not. Calls are serialized.
type OnCombinationDoneCallback func(done int, total int)

type Config struct {
	Objective Objective
	// Parallelism bounds the number of concurrent simulations. Values
	// below one mean sequential.
	Parallelism       int
	OnCombinationDone OnCombinationDoneCallback
}

// DefaultConfig ranks by final capital and runs sequentially.
func DefaultConfig() Config {
	return Config{
		Objective:         ObjectiveFinalCapital,
		Parallelism:       1,
		OnCombinationDone: nil,
	}
}

type Optimizer struct {
	engine       engine.Engine
	strategyType types.StrategyType
	config       Config
	log          *logger.Logger
}

func NewOptimizer(eng engine.Engine, strategyType types.StrategyType, config Config, log *logger.Logger) *Optimizer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if config.Objective == "" {
		config.Objective = ObjectiveFinalCapital
	}

	if config.Parallelism < 1 {
		config.Parallelism = 1
	}

	return &Optimizer{
		engine:       eng,
		strategyType: strategyType,
		config:       config,
		log:          log.Named("optimizer"),
	}
}

// Sweep simulates every valid combination of grid over series and returns
// one result per valid combination, ranked best first. Invalid
// combinations are skipped. A failing combination is recorded on its
// result and does not stop the sweep; cancelling ctx does.
func (o *Optimizer) Sweep(ctx context.Context, series types.Series, grid ParameterGrid) ([]types.OptimizationResult, error) {
	if series.IsEmpty() {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no bars available for %q", series.Symbol)
	}

	if err := grid.Validate(); err != nil {
		return nil, err
	}

	combinations, skipped := grid.Valid(o.strategyType)
	o.log.Debug("Starting parameter sweep",
		zap.String("strategy", string(o.strategyType)),
		zap.String("symbol", series.Symbol),
		zap.Int("combinations", len(combinations)),
		zap.Int("skipped", skipped),
		zap.Int("parallelism", o.config.Parallelism),
	)

	results := make([]types.OptimizationResult, len(combinations))

	var (
		mu   sync.Mutex
		done int
	)

	g := new(errgroup.Group)
	g.SetLimit(o.config.Parallelism)

	for i, params := range combinations {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			results[i] = o.evaluate(ctx, series, params)

			if o.config.OnCombinationDone != nil {
				mu.Lock()
				done++
				o.config.OnCombinationDone(done, len(combinations))
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSweepCancelled, "parameter sweep cancelled", err)
	}

	Rank(results, o.config.Objective)

	failed := 0

	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}

	o.log.Debug("Parameter sweep finished",
		zap.Int("results", len(results)),
		zap.Int("failed", failed),
	)

	return results, nil
}

func (o *Optimizer) evaluate(ctx context.Context, series types.Series, params types.StrategyParams) (result types.OptimizationResult) {
	result.Params = params

	defer func() {
		if r := recover(); r != nil {
			result = failedResult(params, errors.Newf(errors.ErrCodeSimulationFailed, "combination %s panicked: %v", params, r))
		}
	}()

	outcome, err := o.engine.Simulate(ctx, series, o.strategyType, params)
	if err != nil {
		o.log.Debug("Combination failed", zap.String("params", params.String()), zap.Error(err))

		return failedResult(params, errors.Wrapf(errors.ErrCodeSimulationFailed, err, "combination %s", params))
	}

	return types.OptimizationResult{
		Params:         params,
		FinalCapital:   outcome.Result.FinalCapital,
		TotalReturnPct: outcome.Result.TotalReturnPct,
		MDDPct:         outcome.Result.MDDPct,
		SharpeRatio:    outcome.Result.SharpeRatio,
		NumberOfTrades: outcome.Result.TradeResult.NumberOfTrades,
		Err:            nil,
		Error:          "",
	}
}

func failedResult(params types.StrategyParams, err error) types.OptimizationResult {
	return types.OptimizationResult{
		Params: params,
		Err:    err,
		Error:  err.Error(),
	}
}

// Rank sorts results best first: objective descending, then the lowest
// parameter tuple. Failed results go last, ordered by parameters.
func Rank(results []types.OptimizationResult, objective Objective) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]

		if a.Failed() != b.Failed() {
			return !a.Failed()
		}

		if !a.Failed() {
			va, vb := objective.Value(a), objective.Value(b)
			if va != vb {
				return va > vb
			}
		}

		return a.Params.Less(b.Params)
	})
}

// Best returns the first successful result of a ranked slice.
func Best(results []types.OptimizationResult) (types.OptimizationResult, error) {
	for _, result := range results {
		if !result.Failed() {
			return result, nil
		}
	}

	return types.OptimizationResult{}, errors.New(errors.ErrCodeNoViableCombination, fmt.Sprintf("no successful combination among %d results", len(results)))
}
