package types

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// StrategyType tags a strategy variant.
type StrategyType string

const (
	// StrategyGoldenCross trades short/long MA crossovers.
	StrategyGoldenCross StrategyType = "golden_cross"
	// StrategyTrendBreakout enters on a volatility breakout while the MA regime is up.
	StrategyTrendBreakout StrategyType = "trend_breakout"
	// StrategyTrendRSI enters on an RSI dip while the MA regime is up.
	StrategyTrendRSI StrategyType = "trend_rsi"
	// StrategyBreakout enters on a volatility breakout and exits at the next open.
	StrategyBreakout StrategyType = "breakout"
)

// AllStrategyTypes lists the supported variants, in schema order.
var AllStrategyTypes = []any{
	StrategyGoldenCross,
	StrategyTrendBreakout,
	StrategyTrendRSI,
	StrategyBreakout,
}

// UsesTrend reports whether the variant needs the moving averages.
func (t StrategyType) UsesTrend() bool {
	return t == StrategyGoldenCross || t == StrategyTrendBreakout || t == StrategyTrendRSI
}

// UsesBreakout reports whether the variant needs the breakout target.
func (t StrategyType) UsesBreakout() bool {
	return t == StrategyTrendBreakout || t == StrategyBreakout
}

// UsesRSI reports whether the variant needs the oscillator.
func (t StrategyType) UsesRSI() bool {
	return t == StrategyTrendRSI
}

// StrategyParams is one combination of strategy knobs. Knobs a variant
// does not use are ignored by Validate.
type StrategyParams struct {
	ShortWindow  int     `yaml:"short_window" json:"short_window" jsonschema:"title=Short Window,description=Bars in the short moving average,minimum=1"`
	LongWindow   int     `yaml:"long_window" json:"long_window" jsonschema:"title=Long Window,description=Bars in the long moving average,minimum=1"`
	BreakoutK    float64 `yaml:"breakout_k" json:"breakout_k" jsonschema:"title=Breakout K,description=Fraction of the prior bar range added to the open,minimum=0"`
	RSIPeriod    int     `yaml:"rsi_period" json:"rsi_period" jsonschema:"title=RSI Period,description=Centre of mass of the RSI averages,minimum=1"`
	RSIThreshold float64 `yaml:"rsi_threshold" json:"rsi_threshold" jsonschema:"title=RSI Threshold,description=Entry fires when RSI is below this value,minimum=0,maximum=100"`
}

// Validate checks the combination constraint for the given variant and
// returns an ErrCodeInvalidParameterCombination error when it does not hold.
func (p StrategyParams) Validate(strategyType StrategyType) error {
	invalid := func(format string, args ...any) error {
		return errors.Newf(errors.ErrCodeInvalidParameterCombination, "%s: %s", strategyType, fmt.Sprintf(format, args...))
	}

	if strategyType.UsesTrend() {
		if p.ShortWindow < 1 || p.LongWindow < 1 {
			return invalid("windows must be positive, got short=%d long=%d", p.ShortWindow, p.LongWindow)
		}

		if p.ShortWindow >= p.LongWindow {
			return invalid("short window %d must be less than long window %d", p.ShortWindow, p.LongWindow)
		}
	}

	if strategyType.UsesBreakout() {
		if math.IsNaN(p.BreakoutK) || math.IsInf(p.BreakoutK, 0) || p.BreakoutK < 0 {
			return invalid("breakout k must be a non-negative number, got %v", p.BreakoutK)
		}
	}

	if strategyType.UsesRSI() {
		if p.RSIPeriod < 1 {
			return invalid("rsi period must be positive, got %d", p.RSIPeriod)
		}

		if p.RSIThreshold <= 0 || p.RSIThreshold >= 100 {
			return invalid("rsi threshold must be within (0, 100), got %v", p.RSIThreshold)
		}
	}

	return nil
}

// Less orders combinations by (short, long, k, rsiPeriod, rsiThreshold).
func (p StrategyParams) Less(other StrategyParams) bool {
	switch {
	case p.ShortWindow != other.ShortWindow:
		return p.ShortWindow < other.ShortWindow
	case p.LongWindow != other.LongWindow:
		return p.LongWindow < other.LongWindow
	case p.BreakoutK != other.BreakoutK:
		return p.BreakoutK < other.BreakoutK
	case p.RSIPeriod != other.RSIPeriod:
		return p.RSIPeriod < other.RSIPeriod
	default:
		return p.RSIThreshold < other.RSIThreshold
	}
}

func (p StrategyParams) String() string {
	return fmt.Sprintf("short=%d long=%d k=%g rsi_period=%d rsi_threshold=%g",
		p.ShortWindow, p.LongWindow, p.BreakoutK, p.RSIPeriod, p.RSIThreshold)
}
