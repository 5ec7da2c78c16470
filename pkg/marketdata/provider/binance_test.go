package provider

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BinanceClientTestSuite struct {
	suite.Suite
}

func TestBinanceClientSuite(t *testing.T) {
	suite.Run(t, new(BinanceClientTestSuite))
}

var klineStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// minuteKlines builds n one-minute klines starting at offset minutes.
func minuteKlines(offset, n int) []*binance.Kline {
	klines := make([]*binance.Kline, n)

	for i := range klines {
		openTime := klineStart.Add(time.Duration(offset+i) * time.Minute)
		price := 42000.0 + float64(offset+i)
		klines[i] = &binance.Kline{
			OpenTime:  openTime.UnixMilli(),
			Open:      fmt.Sprintf("%.2f", price),
			High:      fmt.Sprintf("%.2f", price+10),
			Low:       fmt.Sprintf("%.2f", price-10),
			Close:     fmt.Sprintf("%.2f", price+5),
			Volume:    "1.5",
			CloseTime: openTime.Add(time.Minute).UnixMilli() - 1,
		}
	}

	return klines
}

func (suite *BinanceClientTestSuite) TestNewBinanceClient() {
	client, err := NewBinanceClient()
	suite.NoError(err)

	binanceClient, ok := client.(*BinanceClient)
	suite.True(ok)
	suite.NotNil(binanceClient.apiClient)
	suite.Nil(binanceClient.writer)
}

func (suite *BinanceClientTestSuite) TestDownloadWithoutWriter() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})

	_, err := client.Download(context.Background(), "BTCUSDT", klineStart, klineStart.AddDate(0, 0, 1), 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "writer is not configured")
}

func (suite *BinanceClientTestSuite) TestDownloadWithInvalidTimespan() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})
	client.ConfigWriter(&mockWriter{})

	_, err := client.Download(context.Background(), "BTCUSDT", klineStart, klineStart.AddDate(0, 0, 1), 1, models.Quarter, nil)
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidInterval, errors.GetCode(err))
}

func (suite *BinanceClientTestSuite) TestDownloadWriterInitializationError() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})
	client.ConfigWriter(&mockWriter{initializeErr: stderrors.New("initialization failed")})

	_, err := client.Download(context.Background(), "BTCUSDT", klineStart, klineStart.AddDate(0, 0, 1), 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to initialize writer")
}

func (suite *BinanceClientTestSuite) TestDownloadPaginates() {
	api := &mockBinanceAPIClient{pages: [][]*binance.Kline{
		minuteKlines(0, binanceMaxLimit),
		minuteKlines(binanceMaxLimit, 10),
	}}
	w := &mockWriter{outputPath: "/tmp/out.parquet"}

	client := NewBinanceClientWithAPI(api)
	client.ConfigWriter(w)

	var progress []float64

	path, err := client.Download(context.Background(), "BTCUSDT", klineStart, klineStart.AddDate(0, 0, 2), 1, models.Minute,
		func(current float64, total float64, _ string) {
			suite.LessOrEqual(current, total)
			progress = append(progress, current)
		})
	suite.Require().NoError(err)
	suite.Equal("/tmp/out.parquet", path)
	suite.Len(w.writtenData, binanceMaxLimit+10)
	suite.Equal(1, w.finalizeCallCount)
	suite.Require().Len(api.requests, 2)
	suite.Equal("1m", api.requests[0].interval)
	suite.Equal(klineStart.UnixMilli(), api.requests[0].start)
	suite.Equal(klineStart.Add(binanceMaxLimit*time.Minute).UnixMilli(), api.requests[1].start)
	suite.Equal([]float64{0, float64(binanceMaxLimit * time.Minute / time.Millisecond)}, progress)
}

func (suite *BinanceClientTestSuite) TestDownloadFetchError() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{err: stderrors.New("rate limited")})
	client.ConfigWriter(&mockWriter{})

	_, err := client.Download(context.Background(), "BTCUSDT", klineStart, klineStart.AddDate(0, 0, 1), 1, models.Minute, nil)
	suite.Error(err)
	suite.Equal(errors.ErrCodeMarketDataFetchFailed, errors.GetCode(err))
}

func (suite *BinanceClientTestSuite) TestDownloadCancelled() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{pages: [][]*binance.Kline{minuteKlines(0, 5)}})
	client.ConfigWriter(&mockWriter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Download(ctx, "BTCUSDT", klineStart, klineStart.AddDate(0, 0, 1), 1, models.Minute, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "cancelled")
}

func (suite *BinanceClientTestSuite) TestFetchBars() {
	api := &mockBinanceAPIClient{pages: [][]*binance.Kline{minuteKlines(0, 3)}}
	client := NewBinanceClientWithAPI(api)

	series, err := client.FetchBars(context.Background(), "BTCUSDT", "1m", 3)
	suite.Require().NoError(err)
	suite.Equal("BTCUSDT", series.Symbol)
	suite.Equal("1m", series.Interval)
	suite.Require().Equal(3, series.Len())
	suite.Equal(klineStart, series.Bars[0].Time)
	suite.InDelta(42005.0, series.Bars[0].Close, 1e-9)
	suite.InDelta(1.5, series.Bars[2].Volume, 1e-9)
	suite.Equal(3, api.requests[0].limit)
	suite.Zero(api.requests[0].end, "first page is the latest")
}

func (suite *BinanceClientTestSuite) TestFetchBarsPagesBackwards() {
	// newest page first
	api := &mockBinanceAPIClient{pages: [][]*binance.Kline{
		minuteKlines(500, binanceMaxLimit),
		minuteKlines(0, 500),
	}}
	client := NewBinanceClientWithAPI(api)

	series, err := client.FetchBars(context.Background(), "BTCUSDT", "1m", 1200)
	suite.Require().NoError(err)
	suite.Equal(1200, series.Len(), "an overlong page is trimmed to the newest bars")
	suite.NoError(series.Validate())
	suite.Equal(klineStart.Add(300*time.Minute), series.Bars[0].Time)
	suite.Require().Len(api.requests, 2)
	suite.Equal(200, api.requests[1].limit)
	suite.Equal(klineStart.Add(500*time.Minute).UnixMilli()-1, api.requests[1].end)
}

func (suite *BinanceClientTestSuite) TestFetchBarsEmpty() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})

	_, err := client.FetchBars(context.Background(), "BTCUSDT", "1h", 10)
	suite.Error(err)
	suite.Equal(errors.ErrCodeDataUnavailable, errors.GetCode(err))
}

func (suite *BinanceClientTestSuite) TestFetchBarsInvalidInput() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})

	_, err := client.FetchBars(context.Background(), "BTCUSDT", "1h", 0)
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))

	_, err = client.FetchBars(context.Background(), "BTCUSDT", "7m", 10)
	suite.Equal(errors.ErrCodeInvalidInterval, errors.GetCode(err))

	_, err = client.FetchBars(context.Background(), "BTCUSDT", "1y", 10)
	suite.Equal(errors.ErrCodeInvalidInterval, errors.GetCode(err))
}

func (suite *BinanceClientTestSuite) TestKlinesToBarsParseError() {
	klines := minuteKlines(0, 1)
	klines[0].Close = "not-a-number"

	_, err := klinesToBars("BTCUSDT", klines)
	suite.Error(err)
	suite.Equal(errors.ErrCodeMarketDataParseFailed, errors.GetCode(err))
}

func (suite *BinanceClientTestSuite) TestConvertTimespanToBinanceInterval() {
	tests := []struct {
		name       string
		timespan   models.Timespan
		multiplier int
		want       string
		wantErr    bool
	}{
		{name: "1 second", timespan: models.Second, multiplier: 1, want: "1s"},
		{name: "15 minutes", timespan: models.Minute, multiplier: 15, want: "15m"},
		{name: "7 minutes - unsupported", timespan: models.Minute, multiplier: 7, wantErr: true},
		{name: "4 hours", timespan: models.Hour, multiplier: 4, want: "4h"},
		{name: "3 days", timespan: models.Day, multiplier: 3, want: "3d"},
		{name: "1 week", timespan: models.Week, multiplier: 1, want: "1w"},
		{name: "2 weeks - unsupported", timespan: models.Week, multiplier: 2, wantErr: true},
		{name: "1 month", timespan: models.Month, multiplier: 1, want: "1M"},
		{name: "quarter - unsupported", timespan: models.Quarter, multiplier: 1, wantErr: true},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			got, err := convertTimespanToBinanceInterval(tt.timespan, tt.multiplier)
			if tt.wantErr {
				suite.Error(err)
				suite.Contains(err.Error(), "unsupported")

				return
			}

			suite.NoError(err)
			suite.Equal(tt.want, got)
		})
	}
}
