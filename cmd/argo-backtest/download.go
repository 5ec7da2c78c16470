package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

func providerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "ticker",
			Aliases:  []string{"t"},
			Usage:    "Ticker symbol (e.g. SPY or BTCUSDT)",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"p"},
			Usage:   fmt.Sprintf("Data provider to use (%s, %s)", marketdata.ProviderPolygon, marketdata.ProviderBinance),
			Value:   string(marketdata.ProviderBinance),
		},
		&cli.StringFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "Bar interval (e.g. 1m, 15m, 1h, 1d)",
			Value:   "1d",
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Path to the data output directory",
			Value:   "data",
		},
	}
}

func newMarketDataClient(cmd *cli.Command, onProgress provider.OnDownloadProgress) (*marketdata.Client, error) {
	log, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	return marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(cmd.String("provider")),
		WriterType:    marketdata.WriterDuckDB,
		DataPath:      cmd.String("data"),
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
	}, onProgress, log)
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical bars into a Parquet file",
		Flags: append([]cli.Flag{
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
		}, providerFlags()...),
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	timespan, err := marketdata.ParseTimespan(cmd.String("interval"))
	if err != nil {
		return err
	}

	onProgress, finish := downloadProgress("Downloading " + cmd.String("ticker"))
	defer finish()

	client, err := newMarketDataClient(cmd, onProgress)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	path, err := client.Download(ctx, marketdata.DownloadParams{
		Ticker:     cmd.String("ticker"),
		StartDate:  cmd.Timestamp("start"),
		EndDate:    cmd.Timestamp("end"),
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan.Timespan(),
	})
	if err != nil {
		return err
	}

	fmt.Println(HelpStyle.Render("Market data written to " + path))

	return nil
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch the latest bars of a ticker into a Parquet file",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of bars to fetch",
				Value:   500,
			},
		}, providerFlags()...),
		Action: fetchAction,
	}
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	client, err := newMarketDataClient(cmd, nil)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	series, path, err := client.FetchAndStore(ctx, marketdata.FetchParams{
		Ticker:   cmd.String("ticker"),
		Interval: cmd.String("interval"),
		Count:    int(cmd.Int("count")),
	})
	if err != nil {
		return err
	}

	fmt.Println(HelpStyle.Render(fmt.Sprintf("%d bars from %s to %s written to %s",
		series.Len(),
		series.Bars[0].Time.Format(time.RFC3339),
		series.Bars[series.Len()-1].Time.Format(time.RFC3339),
		path)))

	return nil
}
