package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/optimizer"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CLITestSuite struct {
	suite.Suite
	dir     string
	csvPath string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (suite *CLITestSuite) SetupSuite() {
	progressOutput = io.Discard
}

func (suite *CLITestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.csvPath = filepath.Join(suite.dir, "bars.csv")

	// crosses up at bar 5 and down at bar 10 for a 2/3 pair
	closes := []float64{100, 99, 98, 97, 96, 100, 105, 115, 125, 121, 110, 108, 107}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var b strings.Builder

	b.WriteString("time,symbol,open,high,low,close,volume\n")

	for i, c := range closes {
		fmt.Fprintf(&b, "%s,TEST,%.2f,%.2f,%.2f,%.2f,1000\n", start.AddDate(0, 0, i).Format("2006-01-02 15:04:05"), c, c+1, c-1, c)
	}

	suite.Require().NoError(os.WriteFile(suite.csvPath, []byte(b.String()), 0644))
}

func (suite *CLITestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *CLITestSuite) run(args ...string) error {
	return newApp().Run(context.Background(), append([]string{"argo-backtest"}, args...))
}

func (suite *CLITestSuite) TestRun() {
	config := suite.writeFile("backtest.yaml", `
initial_capital: 10000
fee_rate: 0.001
strategy:
  type: golden_cross
  params:
    short_window: 2
    long_window: 3
`)
	results := filepath.Join(suite.dir, "results")

	suite.Require().NoError(suite.run("run", "--config", config, "--data", suite.csvPath, "--results", results, "--progress"))

	folder := filepath.Join(results, "golden_cross", "TEST")
	suite.FileExists(filepath.Join(folder, "equity.parquet"))
	suite.FileExists(filepath.Join(folder, "trades.parquet"))
	suite.FileExists(filepath.Join(folder, "stats.yaml"))
	suite.NoFileExists(filepath.Join(folder, "sweep_results.parquet"))
}

func (suite *CLITestSuite) TestRunRejectsInvalidConfig() {
	config := suite.writeFile("backtest.yaml", `
initial_capital: 10000
strategy:
  type: golden_cross
  params:
    short_window: 5
    long_window: 3
`)

	err := suite.run("run", "--config", config, "--data", suite.csvPath)
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidParameterCombination, errors.GetCode(err))
}

func (suite *CLITestSuite) TestRunMissingData() {
	config := suite.writeFile("backtest.yaml", "initial_capital: 1\nstrategy:\n  type: breakout\n")

	err := suite.run("run", "--config", config, "--data", filepath.Join(suite.dir, "missing.parquet"))
	suite.Error(err)
}

func (suite *CLITestSuite) TestSweep() {
	config := suite.writeFile("sweep.yaml", `
backtest:
  initial_capital: 10000
  fee_rate: 0.001
  strategy:
    type: golden_cross
grid:
  short_window:
    values: [2, 3]
  long_window:
    min: 3
    max: 4
    step: 1
objective: total_return
parallelism: 2
`)
	results := filepath.Join(suite.dir, "results")

	suite.Require().NoError(suite.run("sweep", "--config", config, "--data", suite.csvPath, "--results", results, "--top", "2", "--progress"))

	folder := filepath.Join(results, "golden_cross_sweep", "TEST")
	suite.FileExists(filepath.Join(folder, "sweep_results.parquet"))
	suite.FileExists(filepath.Join(folder, "equity.parquet"))
	suite.FileExists(filepath.Join(folder, "stats.yaml"))
}

func (suite *CLITestSuite) TestSchemaAndVersion() {
	for _, kind := range []string{"backtest", "sweep", "download-polygon", "download-binance"} {
		schema, err := configSchema(kind)
		suite.Require().NoError(err, kind)
		suite.NotEmpty(schema)
	}

	_, err := configSchema("nope")
	suite.Error(err)

	suite.NoError(suite.run("schema", "sweep"))
	suite.NoError(suite.run("version"))
}

func (suite *CLITestSuite) TestDownloadRejectsBadInterval() {
	err := suite.run("download", "--ticker", "BTCUSDT", "--start", "2024-01-01", "--interval", "7x", "--data", suite.dir)
	suite.Error(err)
}

func (suite *CLITestSuite) TestRenderSweepResults() {
	results := []types.OptimizationResult{
		{Params: types.StrategyParams{ShortWindow: 2, LongWindow: 3}, FinalCapital: 10978.01, TotalReturnPct: 9.78, MDDPct: -3.2, NumberOfTrades: 1},
		{Params: types.StrategyParams{ShortWindow: 2, LongWindow: 4}, FinalCapital: 10100, TotalReturnPct: 1},
		{Params: types.StrategyParams{ShortWindow: 3, LongWindow: 4}, Err: errors.New(errors.ErrCodeSimulationFailed, "boom"), Error: "boom"},
	}

	rendered := RenderSweepResults(results, optimizer.ObjectiveFinalCapital, 0)
	suite.Contains(rendered, "Final capital")
	suite.Contains(rendered, "10978.01")
	suite.Contains(rendered, "boom")

	top := RenderSweepResults(results, optimizer.ObjectiveFinalCapital, 1)
	suite.Contains(top, "10978.01")
	suite.NotContains(top, "10100.00")
}

func (suite *CLITestSuite) TestRenderSimulationResult() {
	rendered := RenderSimulationResult(types.SimulationResult{
		Symbol:         "TEST",
		Strategy:       types.StrategyGoldenCross,
		InitialCapital: 10000,
		FinalCapital:   10978.01,
		TotalReturnPct: 9.7801,
		MDDPct:         -3.2,
	})

	suite.Contains(rendered, "golden_cross")
	suite.Contains(rendered, "10978.01")
	suite.Contains(rendered, "+9.78%")
	suite.Contains(rendered, "-3.20%")
}

func (suite *CLITestSuite) TestInspect() {
	suite.Require().NoError(suite.run("inspect", "--data", suite.csvPath))

	ds, err := datasource.NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	defer ds.Close()

	suite.Require().NoError(ds.Initialize(suite.csvPath))

	summaries, err := summarize(ds)
	suite.Require().NoError(err)
	suite.Require().Len(summaries, 1)
	suite.Equal("TEST", summaries[0].Symbol)
	suite.Equal(int64(13), summaries[0].Bars)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), summaries[0].First.UTC())
	suite.Equal(time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC), summaries[0].Last.UTC())

	rendered := RenderInventory(summaries, 13)
	suite.Contains(rendered, "TEST")
	suite.Contains(rendered, "2024-01-13 00:00:00")
	suite.Contains(rendered, "13 bars in total")
}
