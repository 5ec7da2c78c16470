package engine

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// filterSeries keeps the bars inside [startTime, endTime]. Unset bounds
// are open.
func filterSeries(series types.Series, startTime, endTime optional.Option[time.Time]) types.Series {
	if startTime.IsNone() && endTime.IsNone() {
		return series
	}

	bars := make([]types.Bar, 0, series.Len())

	for _, bar := range series.Bars {
		if startTime.IsSome() && bar.Time.Before(startTime.Unwrap()) {
			continue
		}

		if endTime.IsSome() && bar.Time.After(endTime.Unwrap()) {
			continue
		}

		bars = append(bars, bar)
	}

	return types.Series{
		Symbol:   series.Symbol,
		Interval: series.Interval,
		Bars:     bars,
	}
}

// GetResultFolder returns <resultsFolder>/<strategy>/<symbol>[/<start>_<end>].
func GetResultFolder(resultsFolder string, strategyName string, symbol string, startTime, endTime optional.Option[time.Time]) string {
	folder := filepath.Join(resultsFolder, strategyName, symbol)

	if startTime.IsNone() && endTime.IsNone() {
		return folder
	}

	startTimeStr := "all"
	endTimeStr := "all"

	if startTime.IsSome() {
		startTimeStr = startTime.Unwrap().Format("20060102")
	}

	if endTime.IsSome() {
		endTimeStr = endTime.Unwrap().Format("20060102")
	}

	return filepath.Join(folder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
}
