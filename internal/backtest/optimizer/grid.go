package optimizer

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MaxCombinations caps the size of a sweepable grid.
const MaxCombinations = 100000

// ParameterGrid holds the candidate values of each strategy knob. A knob
// with no values contributes its zero value, so a golden cross sweep only
// needs the two window lists.
type ParameterGrid struct {
	ShortWindows  []int     `yaml:"short_windows" json:"short_windows"`
	LongWindows   []int     `yaml:"long_windows" json:"long_windows"`
	BreakoutKs    []float64 `yaml:"breakout_ks" json:"breakout_ks"`
	RSIPeriods    []int     `yaml:"rsi_periods" json:"rsi_periods"`
	RSIThresholds []float64 `yaml:"rsi_thresholds" json:"rsi_thresholds"`
}

// Size returns the number of combinations Combinations yields. It
// saturates at math.MaxInt.
func (g ParameterGrid) Size() int {
	size := 1

	for _, n := range []int{len(g.ShortWindows), len(g.LongWindows), len(g.BreakoutKs), len(g.RSIPeriods), len(g.RSIThresholds)} {
		n = max(n, 1)
		if size > math.MaxInt/n {
			return math.MaxInt
		}

		size *= n
	}

	return size
}

// Validate rejects grids with more than MaxCombinations combinations.
func (g ParameterGrid) Validate() error {
	if size := g.Size(); size > MaxCombinations {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "grid has %d combinations, the limit is %d", size, MaxCombinations)
	}

	return nil
}

// Combinations enumerates the Cartesian product of the grid, nested as
// short, long, k, rsi period, rsi threshold with the last knob varying
// fastest. Combinations are not validated here.
func (g ParameterGrid) Combinations() []types.StrategyParams {
	combinations := make([]types.StrategyParams, 0, g.Size())

	for _, short := range orZero(g.ShortWindows) {
		for _, long := range orZero(g.LongWindows) {
			for _, k := range orZero(g.BreakoutKs) {
				for _, period := range orZero(g.RSIPeriods) {
					for _, threshold := range orZero(g.RSIThresholds) {
						combinations = append(combinations, types.StrategyParams{
							ShortWindow:  short,
							LongWindow:   long,
							BreakoutK:    k,
							RSIPeriod:    period,
							RSIThreshold: threshold,
						})
					}
				}
			}
		}
	}

	return combinations
}

// Valid splits Combinations into the ones strategyType accepts and the
// number it rejected.
func (g ParameterGrid) Valid(strategyType types.StrategyType) ([]types.StrategyParams, int) {
	all := g.Combinations()
	valid := make([]types.StrategyParams, 0, len(all))

	for _, params := range all {
		if params.Validate(strategyType) != nil {
			continue
		}

		valid = append(valid, params)
	}

	return valid, len(all) - len(valid)
}

func orZero[T int | float64](values []T) []T {
	if len(values) == 0 {
		var zero T

		return []T{zero}
	}

	return values
}
