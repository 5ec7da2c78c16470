package types

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Bar is one OHLCV observation for a fixed interval.
type Bar struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// Series is an ordered run of bars for one symbol at one interval.
type Series struct {
	Symbol   string `yaml:"symbol" json:"symbol"`
	Interval string `yaml:"interval" json:"interval"`
	Bars     []Bar  `yaml:"bars" json:"bars"`
}

// NewSeries builds a Series from bars, taking the symbol from the first bar.
func NewSeries(interval string, bars []Bar) Series {
	symbol := ""
	if len(bars) > 0 {
		symbol = bars[0].Symbol
	}

	return Series{
		Symbol:   symbol,
		Interval: interval,
		Bars:     bars,
	}
}

// Len returns the number of bars.
func (s Series) Len() int {
	return len(s.Bars)
}

// IsEmpty reports whether the series has no bars.
func (s Series) IsEmpty() bool {
	return len(s.Bars) == 0
}

// Closes returns the close prices in bar order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		closes[i] = bar.Close
	}

	return closes
}

// Validate checks the series invariants: at least one bar, strictly
// increasing timestamps and positive finite prices. An empty series is
// reported as ErrCodeDataUnavailable so callers can tell a missing feed
// apart from a malformed one.
func (s Series) Validate() error {
	if s.IsEmpty() {
		return errors.Newf(errors.ErrCodeDataUnavailable, "no bars available for %q", s.Symbol)
	}

	for i, bar := range s.Bars {
		for _, price := range []float64{bar.Open, bar.High, bar.Low, bar.Close} {
			if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
				return errors.Newf(errors.ErrCodeInvalidSeries, "bar %d at %s has non-positive or non-finite price %v", i, bar.Time.Format(time.RFC3339), price)
			}
		}

		if i > 0 && !bar.Time.After(s.Bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeInvalidSeries, "bar %d at %s is not after bar %d at %s", i, bar.Time.Format(time.RFC3339), i-1, s.Bars[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}
