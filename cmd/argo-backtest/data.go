package main

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// dataFlags are shared by the commands that read bars from disk.
func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "Parquet or CSV file with bars; globs are allowed",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "symbol",
			Aliases: []string{"s"},
			Usage:   "Symbol to load; may be omitted when the data holds a single symbol",
		},
		&cli.StringFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "Resample the stored bars to this interval (e.g. 1h, 1d)",
		},
		&cli.StringFlag{
			Name:    "results",
			Aliases: []string{"r"},
			Usage:   "Directory results are written under",
			Value:   "results",
		},
	}
}

// loadSeries reads one symbol's bars from the --data file.
func loadSeries(cmd *cli.Command, log *logger.Logger) (types.Series, error) {
	ds, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return types.Series{}, fmt.Errorf("failed to create data source: %w", err)
	}
	defer ds.Close()

	if err := ds.Initialize(cmd.String("data")); err != nil {
		return types.Series{}, err
	}

	query := datasource.Query{
		Symbol:   optional.None[string](),
		Start:    optional.None[time.Time](),
		End:      optional.None[time.Time](),
		Interval: optional.None[datasource.Interval](),
	}

	if symbol := cmd.String("symbol"); symbol != "" {
		query.Symbol = optional.Some(symbol)
	}

	if interval := cmd.String("interval"); interval != "" {
		query.Interval = optional.Some(datasource.Interval(interval))
	}

	series, err := ds.LoadSeries(query)
	if err != nil {
		return types.Series{}, err
	}

	log.Info("Loaded series",
		zap.String("symbol", series.Symbol),
		zap.String("interval", series.Interval),
		zap.Int("bars", series.Len()),
	)

	return series, nil
}
