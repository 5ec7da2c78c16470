package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/urfave/cli/v3"
)

const inventoryQuery = `
	SELECT symbol, COUNT(*) AS bars, MIN(time) AS first_bar, MAX(time) AS last_bar
	FROM market_data
	GROUP BY symbol
	ORDER BY symbol`

// SymbolSummary describes the bars stored for one symbol.
type SymbolSummary struct {
	Symbol string
	Bars   int64
	First  time.Time
	Last   time.Time
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "List the symbols and date ranges held in a data file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Parquet or CSV file with bars; globs are allowed",
				Required: true,
			},
		},
		Action: inspectAction,
	}
}

func inspectAction(_ context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ds, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	defer ds.Close()

	if err := ds.Initialize(cmd.String("data")); err != nil {
		return err
	}

	summaries, err := summarize(ds)
	if err != nil {
		return err
	}

	total, err := ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return err
	}

	fmt.Println(RenderInventory(summaries, total))

	return nil
}

func summarize(ds datasource.DataSource) ([]SymbolSummary, error) {
	rows, err := ds.ExecuteSQL(inventoryQuery)
	if err != nil {
		return nil, err
	}

	summaries := make([]SymbolSummary, 0, len(rows))

	for _, row := range rows {
		summary := SymbolSummary{}
		summary.Symbol, _ = row.Values["symbol"].(string)
		summary.First, _ = row.Values["first_bar"].(time.Time)
		summary.Last, _ = row.Values["last_bar"].(time.Time)

		switch bars := row.Values["bars"].(type) {
		case int64:
			summary.Bars = bars
		case int32:
			summary.Bars = int64(bars)
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// RenderInventory renders one row per symbol plus the total bar count.
func RenderInventory(summaries []SymbolSummary, total int) string {
	t := newTable("Symbol", "Bars", "First", "Last")

	for _, s := range summaries {
		t.Row(s.Symbol, strconv.FormatInt(s.Bars, 10), s.First.Format(time.DateTime), s.Last.Format(time.DateTime))
	}

	return TitleStyle.Render("Data inventory") + "\n" + t.String() + "\n" + HelpStyle.Render(fmt.Sprintf("%d bars in total", total))
}
