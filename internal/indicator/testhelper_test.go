package indicator

import (
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

func barsFromCloses(closes ...float64) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			Time:   start.AddDate(0, 0, i),
			Symbol: "KRW-BTC",
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}

	return bars
}
