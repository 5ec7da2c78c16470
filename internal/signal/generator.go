// Package signal derives the per-bar SignalSet consumed by strategies.
package signal

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Family selects which indicator families Generate computes.
type Family uint8

const (
	// FamilyTrend is the short/long moving average pair and the regime flag.
	FamilyTrend Family = 1 << iota
	// FamilyBreakout is the volatility-breakout target.
	FamilyBreakout
	// FamilyRSI is the oscillator.
	FamilyRSI
)

// Has reports whether every family in other is selected.
func (f Family) Has(other Family) bool {
	return f&other == other
}

// FamiliesFor returns the families a strategy variant reads.
func FamiliesFor(strategyType types.StrategyType) Family {
	var f Family

	if strategyType.UsesTrend() {
		f |= FamilyTrend
	}

	if strategyType.UsesBreakout() {
		f |= FamilyBreakout
	}

	if strategyType.UsesRSI() {
		f |= FamilyRSI
	}

	return f
}

// Cache stores indicator columns between Generate calls. Columns handed
// out by Get are shared and never modified.
type Cache interface {
	Get(key string) optional.Option[[]float64]
	Set(key string, values []float64)
}

// Generate returns one SignalSet per bar, index-aligned with series.Bars.
// Families not selected are left NaN (regime UNDEFINED). Every value at
// index i is computed from bars[0..i] only.
func Generate(series types.Series, params types.StrategyParams, families Family) ([]types.SignalSet, error) {
	return GenerateWithCache(series, params, families, nil)
}

// GenerateWithCache is Generate reusing indicator columns from c. A nil
// cache computes everything.
func GenerateWithCache(series types.Series, params types.StrategyParams, families Family, c Cache) ([]types.SignalSet, error) {
	n := series.Len()
	shortMA := nanSlice(n)
	longMA := nanSlice(n)
	target := nanSlice(n)
	rsi := nanSlice(n)

	calc := &calculator{bars: series.Bars, cache: c}
	if c != nil {
		calc.seriesKey = Fingerprint(series)
	}

	var err error

	if families.Has(FamilyTrend) {
		if shortMA, err = calc.column(fmt.Sprintf("ma:%d", params.ShortWindow), func() (indicator.Indicator, error) { return indicator.NewMA(params.ShortWindow) }); err != nil {
			return nil, fmt.Errorf("short moving average: %w", err)
		}

		if longMA, err = calc.column(fmt.Sprintf("ma:%d", params.LongWindow), func() (indicator.Indicator, error) { return indicator.NewMA(params.LongWindow) }); err != nil {
			return nil, fmt.Errorf("long moving average: %w", err)
		}
	}

	if families.Has(FamilyBreakout) {
		if target, err = calc.column(fmt.Sprintf("breakout:%g", params.BreakoutK), func() (indicator.Indicator, error) { return indicator.NewBreakout(params.BreakoutK) }); err != nil {
			return nil, fmt.Errorf("breakout target: %w", err)
		}
	}

	if families.Has(FamilyRSI) {
		if rsi, err = calc.column(fmt.Sprintf("rsi:%d", params.RSIPeriod), func() (indicator.Indicator, error) { return indicator.NewRSI(params.RSIPeriod) }); err != nil {
			return nil, fmt.Errorf("rsi: %w", err)
		}
	}

	signals := make([]types.SignalSet, n)
	for i, bar := range series.Bars {
		signals[i] = types.SignalSet{
			Time:           bar.Time,
			ShortMA:        shortMA[i],
			LongMA:         longMA[i],
			Regime:         regime(shortMA[i], longMA[i]),
			BreakoutTarget: target[i],
			RSI:            rsi[i],
		}
	}

	return signals, nil
}

// Lookback returns the number of warm-up bars the selected families need.
func Lookback(params types.StrategyParams, families Family) int {
	lookback := 0

	if families.Has(FamilyTrend) {
		lookback = max(lookback, params.ShortWindow-1, params.LongWindow-1)
	}

	if families.Has(FamilyBreakout) {
		lookback = max(lookback, 1)
	}

	if families.Has(FamilyRSI) {
		lookback = max(lookback, params.RSIPeriod)
	}

	return lookback
}

// Ready reports whether every selected family is defined in s.
func Ready(s types.SignalSet, families Family) bool {
	if families.Has(FamilyTrend) && !s.TrendDefined() {
		return false
	}

	if families.Has(FamilyBreakout) && !s.TargetDefined() {
		return false
	}

	if families.Has(FamilyRSI) && !s.RSIDefined() {
		return false
	}

	return true
}

// FirstReady returns the index of the first ready SignalSet, or -1.
func FirstReady(signals []types.SignalSet, families Family) int {
	for i, s := range signals {
		if Ready(s, families) {
			return i
		}
	}

	return -1
}

// Fingerprint identifies the content of a series. Two series with the same
// symbol and identical bars share a fingerprint.
func Fingerprint(series types.Series) string {
	h := fnv.New64a()
	buf := make([]byte, 8)

	for _, bar := range series.Bars {
		binary.LittleEndian.PutUint64(buf, uint64(bar.Time.UnixNano()))
		h.Write(buf)

		for _, v := range []float64{bar.Open, bar.High, bar.Low, bar.Close} {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			h.Write(buf)
		}
	}

	return fmt.Sprintf("%s/%d/%x", series.Symbol, series.Len(), h.Sum64())
}

type calculator struct {
	bars      []types.Bar
	cache     Cache
	seriesKey string
}

func (c *calculator) column(name string, build func() (indicator.Indicator, error)) ([]float64, error) {
	if c.cache == nil {
		return calculate(c.bars, build)
	}

	key := c.seriesKey + "|" + name
	if cached := c.cache.Get(key); cached.IsSome() {
		return cached.Unwrap(), nil
	}

	values, err := calculate(c.bars, build)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, values)

	return values, nil
}

func calculate(bars []types.Bar, build func() (indicator.Indicator, error)) ([]float64, error) {
	ind, err := build()
	if err != nil {
		return nil, err
	}

	return ind.Calculate(bars)
}

func regime(shortMA, longMA float64) types.Regime {
	if math.IsNaN(shortMA) || math.IsNaN(longMA) {
		return types.RegimeUndefined
	}

	if shortMA > longMA {
		return types.RegimeTrendUp
	}

	return types.RegimeTrendDown
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
