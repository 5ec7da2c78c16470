package engine

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Lifecycle callback types for a simulation run.
// Callbacks with an error return abort the run when they return an error.

// OnRunStartCallback is called once the warm-up is known and before the first simulated bar.
type OnRunStartCallback func(runID string, strategyName string, totalBars int) error

// OnRunEndCallback is called when a run completes successfully.
type OnRunEndCallback func(runID string, result types.SimulationResult)

// OnProcessDataCallback is called after each simulated bar.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
	OnProcessData *OnProcessDataCallback
}

// Outcome is everything one simulation run produces.
type Outcome struct {
	// RunID identifies the run. It is not part of Result.
	RunID     string                 `yaml:"run_id" json:"run_id"`
	Timestamp time.Time              `yaml:"timestamp" json:"timestamp"`
	Result    types.SimulationResult `yaml:"result" json:"result"`
	// Trace holds one point per simulated bar.
	Trace  []types.EquityPoint `yaml:"trace" json:"trace"`
	Trades []types.Trade       `yaml:"trades" json:"trades"`
}

// Record stamps the result with the run ID and timestamp.
func (o Outcome) Record() types.RunRecord {
	return types.RunRecord{
		ID:               o.RunID,
		Timestamp:        o.Timestamp,
		SimulationResult: o.Result,
	}
}

// Engine runs the signal -> simulate -> analyze pipeline for one
// parameter combination.
type Engine interface {
	// Simulate runs strategyType with params over series. The context is
	// checked between bars.
	Simulate(ctx context.Context, series types.Series, strategyType types.StrategyType, params types.StrategyParams) (Outcome, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
