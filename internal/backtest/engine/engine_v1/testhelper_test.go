package engine

import (
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/signal"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

var seriesStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// seriesFromCloses builds a daily series with open = close and a one
// point range around the close.
func seriesFromCloses(closes ...float64) types.Series {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Time:   seriesStart.AddDate(0, 0, i),
			Symbol: "TEST",
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}

	return types.NewSeries("1d", bars)
}

// crossSeries crosses up at bar 5 (close 100) and down at bar 10
// (close 110) for a 2/3 moving average pair.
func crossSeries() types.Series {
	return seriesFromCloses(100, 99, 98, 97, 96, 100, 105, 115, 125, 121, 110, 108, 107)
}

var crossParams = types.StrategyParams{ShortWindow: 2, LongWindow: 3}

const signalFamilyNone = signal.Family(0)
