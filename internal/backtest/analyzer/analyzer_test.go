package analyzer

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type AnalyzerTestSuite struct {
	suite.Suite
}

func TestAnalyzerSuite(t *testing.T) {
	suite.Run(t, new(AnalyzerTestSuite))
}

func traceOf(capitals ...float64) []types.EquityPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trace := make([]types.EquityPoint, len(capitals))

	for i, c := range capitals {
		trace[i] = types.EquityPoint{
			Time:             start.Add(time.Duration(i) * time.Hour),
			Capital:          c,
			CumulativeReturn: c / 100,
			Position:         types.PositionCash,
		}
	}

	return trace
}

func (suite *AnalyzerTestSuite) TestFlatEquity() {
	report, err := Analyze(traceOf(100, 100, 100), []float64{10, 11, 12}, 100)
	suite.Require().NoError(err)

	suite.Equal(0.0, report.TotalReturn)
	suite.Equal(0.0, report.MDD)
	suite.Equal(0.0, report.Sharpe)
	suite.InDelta(20.0, report.BuyAndHoldPct(), 1e-9)
	suite.Equal([]float64{1, 1, 1}, report.Peak)
}

func (suite *AnalyzerTestSuite) TestDrawdown() {
	report, err := Analyze(traceOf(100, 120, 90, 130, 117), []float64{1, 2}, 100)
	suite.Require().NoError(err)

	suite.InDelta(0.17, report.TotalReturn, 1e-12)
	suite.InDelta(17.0, report.TotalReturnPct(), 1e-9)
	suite.Equal([]float64{1, 1.2, 1.2, 1.3, 1.3}, report.Peak)
	suite.InDelta(-0.25, report.MDD, 1e-12)
	suite.InDelta(-25.0, report.MDDPct(), 1e-9)
	suite.InDelta(-0.1, report.Drawdown[4], 1e-12)

	for _, dd := range report.Drawdown {
		suite.LessOrEqual(dd, 0.0)
	}
}

func (suite *AnalyzerTestSuite) TestMonotoneEquityHasNoDrawdown() {
	report, err := Analyze(traceOf(100, 101, 105, 110), []float64{1, 1}, 100)
	suite.Require().NoError(err)
	suite.Equal(0.0, report.MDD)
	suite.Greater(report.Sharpe, 0.0)
}

func (suite *AnalyzerTestSuite) TestEmptyTrace() {
	_, err := Analyze(nil, []float64{1}, 100)
	suite.Equal(errors.ErrCodeDataUnavailable, errors.GetCode(err))
}

func (suite *AnalyzerTestSuite) TestDegeneratePeak() {
	_, err := Analyze(traceOf(0, 0), []float64{1, 1}, 100)
	suite.Equal(errors.ErrCodeDegenerateDrawdown, errors.GetCode(err))
}

func (suite *AnalyzerTestSuite) TestInvalidInitialCapital() {
	_, err := Analyze(traceOf(100), []float64{1}, 0)
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}

func (suite *AnalyzerTestSuite) TestTradeStats() {
	stats := TradeStats([]types.Trade{
		{Return: 0.1},
		{Return: -0.05},
		{Return: 0.02},
		{Return: 0},
	})

	suite.Equal(4, stats.NumberOfTrades)
	suite.Equal(2, stats.NumberOfWinningTrades)
	suite.Equal(1, stats.NumberOfLosingTrades)
	suite.InDelta(0.5, stats.WinRate, 1e-12)

	suite.Equal(types.TradeResult{}, TradeStats(nil))
}

func randomWalk(rng *rand.Rand, n int) []float64 {
	capitals := make([]float64, n)
	capital := 100.0

	for i := range capitals {
		capital *= 1 + (rng.Float64()-0.5)*0.1
		capitals[i] = capital
	}

	return capitals
}

func (suite *AnalyzerTestSuite) TestDrawdownNeverPositive() {
	rng := rand.New(rand.NewPCG(7, 11))

	for run := range 50 {
		capitals := randomWalk(rng, 1+rng.IntN(200))

		report, err := Analyze(traceOf(capitals...), capitals, 100)
		suite.Require().NoError(err, "run %d", run)

		suite.LessOrEqual(report.MDD, 0.0, "run %d", run)
		suite.Require().Len(report.Drawdown, len(capitals))

		for i, dd := range report.Drawdown {
			suite.LessOrEqual(dd, 0.0, "run %d bar %d", run, i)
			suite.GreaterOrEqual(dd, report.MDD, "run %d bar %d", run, i)
		}

		for i := 1; i < len(report.Peak); i++ {
			suite.GreaterOrEqual(report.Peak[i], report.Peak[i-1], "run %d bar %d", run, i)
		}
	}
}
