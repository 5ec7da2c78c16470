package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	ds      DataSource
	csvPath string
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

var dataStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// writeCSV writes hourly bars for each symbol; close rises by 1.5 per bar.
func writeCSV(path string, hours int, symbols ...string) error {
	var b strings.Builder

	b.WriteString("time,symbol,open,high,low,close,volume\n")

	for _, symbol := range symbols {
		for i := 0; i < hours; i++ {
			c := 100.5 + float64(i)*1.5
			fmt.Fprintf(&b, "%s,%s,%.2f,%.2f,%.2f,%.2f,%.1f\n",
				dataStart.Add(time.Duration(i)*time.Hour).Format("2006-01-02 15:04:05"),
				symbol, c-0.5, c+1, c-1, c, 10.5)
		}
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	dir := suite.T().TempDir()
	suite.csvPath = filepath.Join(dir, "bars.csv")
	suite.Require().NoError(writeCSV(suite.csvPath, 8, "BTCUSDT"))

	ds, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(ds.Initialize(suite.csvPath))
	suite.ds = ds
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	suite.NoError(suite.ds.Close())
}

func (suite *DuckDBDataSourceTestSuite) TestCount() {
	count, err := suite.ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(8, count)

	count, err = suite.ds.Count(optional.Some(dataStart.Add(2*time.Hour)), optional.Some(dataStart.Add(4*time.Hour)))
	suite.NoError(err)
	suite.Equal(3, count)
}

func (suite *DuckDBDataSourceTestSuite) TestLoadSeries() {
	series, err := suite.ds.LoadSeries(Query{})
	suite.Require().NoError(err)

	suite.Equal("BTCUSDT", series.Symbol)
	suite.Equal(8, series.Len())
	suite.NoError(series.Validate())
	suite.Equal(dataStart.Unix(), series.Bars[0].Time.Unix())
	suite.InDelta(100.5, series.Bars[0].Close, 1e-9)
	suite.InDelta(111.0, series.Bars[7].Close, 1e-9)
}

func (suite *DuckDBDataSourceTestSuite) TestLoadSeriesTimeRange() {
	series, err := suite.ds.LoadSeries(Query{
		Symbol: optional.Some("BTCUSDT"),
		Start:  optional.Some(dataStart.Add(3 * time.Hour)),
		End:    optional.Some(dataStart.Add(5 * time.Hour)),
	})
	suite.Require().NoError(err)
	suite.Equal(3, series.Len())
	suite.InDelta(105.0, series.Bars[0].Close, 1e-9)
}

func (suite *DuckDBDataSourceTestSuite) TestLoadSeriesResampled() {
	series, err := suite.ds.LoadSeries(Query{Interval: optional.Some(Interval("4h"))})
	suite.Require().NoError(err)

	suite.Equal("4h", series.Interval)
	suite.Require().Equal(2, series.Len())

	first := series.Bars[0]
	suite.InDelta(100.0, first.Open, 1e-9)
	suite.InDelta(105.0+1, first.High, 1e-9)
	suite.InDelta(99.5, first.Low, 1e-9)
	suite.InDelta(105.0, first.Close, 1e-9)
	suite.InDelta(42.0, first.Volume, 1e-9)
}

func (suite *DuckDBDataSourceTestSuite) TestLoadSeriesEmptyRange() {
	_, err := suite.ds.LoadSeries(Query{Start: optional.Some(dataStart.AddDate(1, 0, 0))})
	suite.Equal(errors.ErrCodeDataUnavailable, errors.GetCode(err))
}

func (suite *DuckDBDataSourceTestSuite) TestLoadSeriesUnknownInterval() {
	_, err := suite.ds.LoadSeries(Query{Interval: optional.Some(Interval("1M"))})
	suite.Equal(errors.ErrCodeInvalidInterval, errors.GetCode(err))
}

func (suite *DuckDBDataSourceTestSuite) TestMultipleSymbols() {
	path := filepath.Join(suite.T().TempDir(), "multi.csv")
	suite.Require().NoError(writeCSV(path, 4, "BTCUSDT", "ETHUSDT"))
	suite.Require().NoError(suite.ds.Initialize(path))

	symbols, err := suite.ds.Symbols()
	suite.NoError(err)
	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, symbols)

	_, err = suite.ds.LoadSeries(Query{})
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))

	series, err := suite.ds.LoadSeries(Query{Symbol: optional.Some("ETHUSDT")})
	suite.NoError(err)
	suite.Equal(4, series.Len())
	suite.Equal("ETHUSDT", series.Bars[0].Symbol)
}

func (suite *DuckDBDataSourceTestSuite) TestInitializeMissingFile() {
	err := suite.ds.Initialize(filepath.Join(suite.T().TempDir(), "missing.parquet"))
	suite.Error(err)
	suite.Equal(errors.ErrCodeDataNotFound, errors.GetCode(err))
}

func (suite *DuckDBDataSourceTestSuite) TestExecuteSQL() {
	results, err := suite.ds.ExecuteSQL("SELECT MAX(close) AS max_close FROM market_data WHERE symbol = $1", "BTCUSDT")
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.InDelta(111.0, results[0].Values["max_close"], 1e-9)
}
