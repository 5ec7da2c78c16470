package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeResult struct {
	// Count of closed round trips, including the end-of-series close-out.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// Count of trades with a positive return after fees.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	// Count of trades with a negative return after fees.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades" json:"number_of_losing_trades"`
	// Win rate in [0, 1].
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
}

// SimulationResult is the summary of one simulation run. It only holds
// values derived from the inputs, so equal inputs give equal results.
type SimulationResult struct {
	// Symbol of the simulated series.
	Symbol   string         `yaml:"symbol" json:"symbol"`
	Strategy StrategyType   `yaml:"strategy" json:"strategy"`
	Params   StrategyParams `yaml:"params" json:"params"`

	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	FinalCapital   float64 `yaml:"final_capital" json:"final_capital"`
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	BuyAndHoldPct  float64 `yaml:"buy_and_hold_pct" json:"buy_and_hold_pct"`
	MDDPct         float64 `yaml:"mdd_pct" json:"mdd_pct"`
	// SharpeRatio is the mean over the standard deviation of per-bar equity changes.
	SharpeRatio float64     `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	TradeResult TradeResult `yaml:"trade_result" json:"trade_result"`

	// WarmupBars is the number of leading bars excluded because indicators were undefined.
	WarmupBars int `yaml:"warmup_bars" json:"warmup_bars"`
	// SimulatedBars is the number of bars walked by the simulator.
	SimulatedBars int       `yaml:"simulated_bars" json:"simulated_bars"`
	StartTime     time.Time `yaml:"start_time" json:"start_time"`
	EndTime       time.Time `yaml:"end_time" json:"end_time"`
	// EngineVersion is the version of the engine that produced the result.
	EngineVersion string `yaml:"engine_version" json:"engine_version"`
}

// RunRecord is a SimulationResult stamped with the run that produced it.
type RunRecord struct {
	ID               string    `yaml:"id" json:"id"`
	Timestamp        time.Time `yaml:"timestamp" json:"timestamp"`
	SimulationResult `yaml:",inline"`
}

// OptimizationResult is the outcome of one parameter combination in a sweep.
// Err is set when the combination failed; the metrics are then zero.
type OptimizationResult struct {
	Params         StrategyParams `yaml:"params" json:"params"`
	FinalCapital   float64        `yaml:"final_capital" json:"final_capital"`
	TotalReturnPct float64        `yaml:"total_return_pct" json:"total_return_pct"`
	MDDPct         float64        `yaml:"mdd_pct" json:"mdd_pct"`
	SharpeRatio    float64        `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	NumberOfTrades int            `yaml:"number_of_trades" json:"number_of_trades"`
	Err            error          `yaml:"-" json:"-"`
	Error          string         `yaml:"error,omitempty" json:"error,omitempty"`
}

// Failed reports whether the combination errored.
func (r OptimizationResult) Failed() bool {
	return r.Err != nil
}

// WriteRunRecords writes records to path as YAML.
func WriteRunRecords(path string, records []RunRecord) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal simulation results to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write simulation results to file: %w", err)
	}

	return nil
}
