package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/analyzer"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/signal"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

type BacktestEngineV1 struct {
	config    BacktestEngineV1Config
	log       *logger.Logger
	registry  strategy.Registry
	callbacks engine.LifecycleCallbacks
	cache     *cache.CacheV1
}

// NewBacktestEngineV1 creates an engine for config. The strategy
// parameters in config are not checked here since Simulate receives its
// own; use RunSimulation to run the configured combination.
func NewBacktestEngineV1(config BacktestEngineV1Config, log *logger.Logger) (*BacktestEngineV1, error) {
	if err := config.ValidateBase(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		config:    config,
		log:       log.Named("engine"),
		registry:  strategy.DefaultRegistry(),
		callbacks: engine.LifecycleCallbacks{},
		cache:     cache.NewCacheV1(),
	}, nil
}

// SetRegistry replaces the strategy registry.
func (b *BacktestEngineV1) SetRegistry(registry strategy.Registry) {
	b.registry = registry
}

// SetCallbacks sets the lifecycle callbacks invoked by Simulate.
func (b *BacktestEngineV1) SetCallbacks(callbacks engine.LifecycleCallbacks) {
	b.callbacks = callbacks
}

// CacheStats reports how often Simulate reused indicator columns.
func (b *BacktestEngineV1) CacheStats() cache.Stats {
	return b.cache.Stats()
}

// ResetCache drops the indicator columns kept between simulations.
func (b *BacktestEngineV1) ResetCache() {
	b.cache.Reset()
}

// Config returns the engine configuration.
func (b *BacktestEngineV1) Config() BacktestEngineV1Config {
	return b.config
}

// Simulate implements engine.Engine.
func (b *BacktestEngineV1) Simulate(ctx context.Context, series types.Series, strategyType types.StrategyType, params types.StrategyParams) (engine.Outcome, error) {
	series = filterSeries(series, b.config.StartTime, b.config.EndTime)
	if err := series.Validate(); err != nil {
		return engine.Outcome{}, err
	}

	strat, err := b.registry.New(strategyType, params)
	if err != nil {
		return engine.Outcome{}, err
	}

	families := strat.Families()

	lookback := signal.Lookback(params, families)
	if series.Len() <= lookback {
		return engine.Outcome{}, errors.Wrap(errors.ErrCodeInsufficientHistory,
			fmt.Sprintf("%s needs more history", strat.Name()),
			errors.NewInsufficientDataErrorf(lookback+1, series.Len(), series.Symbol, "not enough bars to warm up indicators"))
	}

	signals, err := signal.GenerateWithCache(series, params, families, b.cache)
	if err != nil {
		return engine.Outcome{}, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to generate signals", err)
	}

	runID := uuid.New().String()

	simulator := NewSimulator(b.config.InitialCapital, b.config.Commission())
	if b.callbacks.OnProcessData != nil {
		simulator.SetProgressCallback(*b.callbacks.OnProcessData)
	}

	if b.callbacks.OnRunStart != nil {
		start := signal.FirstReady(signals, families)
		if err := (*b.callbacks.OnRunStart)(runID, strat.Name(), series.Len()-max(start, 0)); err != nil {
			return engine.Outcome{}, err
		}
	}

	run, err := simulator.Run(ctx, series, signals, strat)
	if err != nil {
		return engine.Outcome{}, err
	}

	report, err := analyzer.Analyze(run.Trace, series.Closes()[run.Start:], b.config.InitialCapital)
	if err != nil {
		return engine.Outcome{}, err
	}

	result := types.SimulationResult{
		Symbol:         series.Symbol,
		Strategy:       strategyType,
		Params:         params,
		InitialCapital: b.config.InitialCapital,
		FinalCapital:   report.FinalCapital,
		TotalReturnPct: report.TotalReturnPct(),
		BuyAndHoldPct:  report.BuyAndHoldPct(),
		MDDPct:         report.MDDPct(),
		SharpeRatio:    report.Sharpe,
		TradeResult:    analyzer.TradeStats(run.Trades),
		WarmupBars:     run.Start,
		SimulatedBars:  len(run.Trace),
		StartTime:      series.Bars[run.Start].Time,
		EndTime:        series.Bars[series.Len()-1].Time,
		EngineVersion:  version.GetVersion(),
	}

	b.log.Debug("Simulation finished",
		zap.String("run_id", runID),
		zap.String("strategy", strat.Name()),
		zap.String("symbol", series.Symbol),
		zap.Int("warmup_bars", run.Start),
		zap.Int("trades", len(run.Trades)),
		zap.Float64("final_capital", result.FinalCapital),
		zap.Float64("mdd_pct", result.MDDPct),
	)

	if b.callbacks.OnRunEnd != nil {
		(*b.callbacks.OnRunEnd)(runID, result)
	}

	return engine.Outcome{
		RunID:     runID,
		Timestamp: time.Now(),
		Result:    result,
		Trace:     run.Trace,
		Trades:    run.Trades,
	}, nil
}

// Run simulates the configured strategy and parameters.
func (b *BacktestEngineV1) Run(ctx context.Context, series types.Series) (engine.Outcome, error) {
	if err := b.config.Strategy.Params.Validate(b.config.Strategy.Type); err != nil {
		return engine.Outcome{}, err
	}

	return b.Simulate(ctx, series, b.config.Strategy.Type, b.config.Strategy.Params)
}

func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// RunSimulation runs the full signal, simulation and analysis pipeline for
// the strategy and parameters in config.
func RunSimulation(series types.Series, config BacktestEngineV1Config) (types.SimulationResult, error) {
	if err := config.Validate(); err != nil {
		return types.SimulationResult{}, err
	}

	b, err := NewBacktestEngineV1(config, nil)
	if err != nil {
		return types.SimulationResult{}, err
	}

	outcome, err := b.Run(context.Background(), series)
	if err != nil {
		return types.SimulationResult{}, err
	}

	return outcome.Result, nil
}
