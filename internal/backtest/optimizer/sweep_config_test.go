package optimizer

import (
	"context"
	"math"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SweepConfigTestSuite struct {
	suite.Suite
}

func TestSweepConfigSuite(t *testing.T) {
	suite.Run(t, new(SweepConfigTestSuite))
}

func (suite *SweepConfigTestSuite) TestCombinationsOrder() {
	grid := ParameterGrid{
		ShortWindows: []int{1, 2},
		LongWindows:  []int{10, 20},
		BreakoutKs:   []float64{0.5},
	}

	suite.Equal(4, grid.Size())
	suite.Equal([]types.StrategyParams{
		{ShortWindow: 1, LongWindow: 10, BreakoutK: 0.5},
		{ShortWindow: 1, LongWindow: 20, BreakoutK: 0.5},
		{ShortWindow: 2, LongWindow: 10, BreakoutK: 0.5},
		{ShortWindow: 2, LongWindow: 20, BreakoutK: 0.5},
	}, grid.Combinations())
}

func (suite *SweepConfigTestSuite) TestEmptyGridHasOneZeroCombination() {
	grid := ParameterGrid{}

	suite.Equal(1, grid.Size())
	suite.Equal([]types.StrategyParams{{}}, grid.Combinations())

	valid, skipped := grid.Valid(types.StrategyGoldenCross)
	suite.Empty(valid)
	suite.Equal(1, skipped)
}

func (suite *SweepConfigTestSuite) TestGridSize() {
	values := make([]int, 10000)
	ks := make([]float64, 10000)

	testCases := []struct {
		name     string
		grid     ParameterGrid
		expected int
		valid    bool
	}{
		{name: "empty", grid: ParameterGrid{}, expected: 1, valid: true},
		{name: "at the limit", grid: ParameterGrid{ShortWindows: values, LongWindows: values[:10]}, expected: MaxCombinations, valid: true},
		{name: "over the limit", grid: ParameterGrid{ShortWindows: values, LongWindows: values[:11]}, expected: 110000, valid: false},
		{name: "four large knobs", grid: ParameterGrid{ShortWindows: values, LongWindows: values, BreakoutKs: ks, RSIPeriods: values}, expected: 10000000000000000, valid: false},
		{name: "saturates", grid: ParameterGrid{ShortWindows: values, LongWindows: values, BreakoutKs: ks, RSIPeriods: values, RSIThresholds: ks}, expected: math.MaxInt, valid: false},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, tc.grid.Size())

			err := tc.grid.Validate()
			if tc.valid {
				suite.NoError(err)

				return
			}

			suite.Error(err)
			suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
		})
	}
}

func (suite *SweepConfigTestSuite) TestValidFiltersByStrategy() {
	grid := ParameterGrid{
		ShortWindows:  []int{5, 10, 20},
		LongWindows:   []int{10},
		RSIPeriods:    []int{14},
		RSIThresholds: []float64{30, 120},
	}

	valid, skipped := grid.Valid(types.StrategyTrendRSI)
	suite.Equal([]types.StrategyParams{
		{ShortWindow: 5, LongWindow: 10, RSIPeriod: 14, RSIThreshold: 30},
	}, valid)
	suite.Equal(5, skipped)

	// the breakout variant ignores windows and rsi knobs
	valid, skipped = grid.Valid(types.StrategyBreakout)
	suite.Len(valid, 6)
	suite.Zero(skipped)
}

func (suite *SweepConfigTestSuite) TestRangeExpand() {
	testCases := []struct {
		name     string
		r        Range
		expected []float64
		errCode  errors.ErrorCode
	}{
		{name: "unset", r: Range{}, expected: nil},
		{name: "explicit values win", r: Range{Min: 1, Max: 9, Step: 1, Values: []float64{3, 1}}, expected: []float64{3, 1}},
		{name: "decimal step lands on max", r: Range{Min: 0.1, Max: 0.5, Step: 0.1}, expected: []float64{0.1, 0.2, 0.3, 0.4, 0.5}},
		{name: "single value", r: Range{Min: 5, Max: 5, Step: 1}, expected: []float64{5}},
		{name: "zero step", r: Range{Min: 1, Max: 5}, errCode: errors.ErrCodeInvalidConfiguration},
		{name: "max below min", r: Range{Min: 5, Max: 1, Step: 1}, errCode: errors.ErrCodeInvalidConfiguration},
		{name: "too many values", r: Range{Min: 0, Max: 1, Step: 0.00001}, errCode: errors.ErrCodeInvalidConfiguration},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			values, err := tc.r.Expand()
			if tc.errCode != 0 {
				suite.Error(err)
				suite.Equal(tc.errCode, errors.GetCode(err))

				return
			}

			suite.Require().NoError(err)
			suite.Equal(tc.expected, values)
		})
	}
}

func (suite *SweepConfigTestSuite) TestRangeExpandInts() {
	values, err := Range{Min: 5, Max: 20, Step: 5}.ExpandInts()
	suite.Require().NoError(err)
	suite.Equal([]int{5, 10, 15, 20}, values)

	_, err = Range{Values: []float64{1.5}}.ExpandInts()
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func (suite *SweepConfigTestSuite) TestLoadSweepConfig() {
	data := []byte(`
backtest:
  initial_capital: 10000
  fee_rate: 0.0005
  strategy:
    type: golden_cross
grid:
  short_window:
    min: 5
    max: 15
    step: 5
  long_window:
    values: [20, 40]
objective: sharpe
parallelism: 4
`)

	config, err := LoadSweepConfig(data)
	suite.Require().NoError(err)
	suite.Equal(types.StrategyGoldenCross, config.Backtest.Strategy.Type)
	suite.Equal(4, config.Backtest.DecimalPrecision, "backtest defaults are kept")

	grid, err := config.Grid.ParameterGrid()
	suite.Require().NoError(err)
	suite.Equal([]int{5, 10, 15}, grid.ShortWindows)
	suite.Equal([]int{20, 40}, grid.LongWindows)
	suite.Empty(grid.BreakoutKs)

	optimizerConfig := config.OptimizerConfig()
	suite.Equal(ObjectiveSharpe, optimizerConfig.Objective)
	suite.Equal(4, optimizerConfig.Parallelism)
}

func (suite *SweepConfigTestSuite) TestLoadSweepConfigDefaults() {
	config, err := LoadSweepConfig([]byte(`
backtest:
  initial_capital: 1000
  strategy:
    type: breakout
grid:
  breakout_k:
    values: [0.5]
`))
	suite.Require().NoError(err)

	optimizerConfig := config.OptimizerConfig()
	suite.Equal(ObjectiveFinalCapital, optimizerConfig.Objective)
	suite.Equal(1, optimizerConfig.Parallelism)
}

func (suite *SweepConfigTestSuite) TestLoadSweepConfigInvalid() {
	testCases := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "backtest: ["},
		{name: "missing capital", data: "backtest:\n  strategy:\n    type: breakout\n"},
		{name: "unknown objective", data: "backtest:\n  initial_capital: 1\n  strategy:\n    type: breakout\nobjective: luck\n"},
		{name: "too many combinations", data: "backtest:\n  initial_capital: 1\n  strategy:\n    type: trend_rsi\ngrid:\n  short_window:\n    min: 1\n    max: 10000\n    step: 1\n  long_window:\n    min: 1\n    max: 10000\n    step: 1\n  rsi_period:\n    min: 1\n    max: 10000\n    step: 1\n  rsi_threshold:\n    min: 1\n    max: 10000\n    step: 1\n"},
		{name: "bad range", data: "backtest:\n  initial_capital: 1\n  strategy:\n    type: breakout\ngrid:\n  breakout_k:\n    min: 1\n    max: 2\n"},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := LoadSweepConfig([]byte(tc.data))
			suite.Error(err)
			suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
		})
	}
}

func (suite *SweepConfigTestSuite) TestGenerateSchemaJSON() {
	config := SweepConfig{}

	schema, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)
	suite.Contains(schema, "sweep-config")
	suite.Contains(schema, "final_capital")
	suite.Contains(schema, "golden_cross")
	suite.Contains(schema, "short_window")
}

func (suite *SweepConfigTestSuite) TestRunSweep() {
	config := SweepConfig{
		Grid: GridConfig{
			ShortWindow: Range{Values: []float64{2}},
			LongWindow:  Range{Min: 3, Max: 4, Step: 1},
		},
		Objective:   ObjectiveTotalReturn,
		Parallelism: 2,
	}
	config.Backtest.InitialCapital = 10000
	config.Backtest.FeeRate = 0.001
	config.Backtest.Strategy.Type = types.StrategyGoldenCross

	series := seriesFromCloses(100, 99, 98, 97, 96, 100, 105, 115, 125, 121, 110, 108, 107)

	done := 0
	results, elapsed, err := RunSweep(context.Background(), series, config, nil, func(int, int) { done++ })
	suite.Require().NoError(err)
	suite.Len(results, 2)
	suite.Equal(2, done)
	suite.GreaterOrEqual(elapsed.Nanoseconds(), int64(0))
	suite.GreaterOrEqual(results[0].TotalReturnPct, results[1].TotalReturnPct)
}
