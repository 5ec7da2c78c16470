package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/interval"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
)

// binanceMaxLimit is the largest page the klines endpoint returns.
const binanceMaxLimit = 1000

// BinanceKlinesService is the subset of the klines request builder the
// client uses.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient creates klines requests.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPI struct {
	client *binance.Client
}

func (a *binanceAPI) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesService{service: a.client.NewKlinesService()}
}

type binanceKlinesService struct {
	service *binance.KlinesService
}

func (s *binanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	s.service.Symbol(symbol)

	return s
}

func (s *binanceKlinesService) Interval(interval string) BinanceKlinesService {
	s.service.Interval(interval)

	return s
}

func (s *binanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	s.service.StartTime(startTime)

	return s
}

func (s *binanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	s.service.EndTime(endTime)

	return s
}

func (s *binanceKlinesService) Limit(limit int) BinanceKlinesService {
	s.service.Limit(limit)

	return s
}

func (s *binanceKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	return s.service.Do(ctx)
}

type BinanceClient struct {
	apiClient BinanceAPIClient
	writer    writer.MarketDataWriter
}

// NewBinanceClient creates a client for the public market data API. No
// credentials are needed.
func NewBinanceClient() (Provider, error) {
	return NewBinanceClientWithAPI(&binanceAPI{client: binance.NewClient("", "")}), nil
}

// NewBinanceClientWithAPI creates a client on top of apiClient.
func NewBinanceClientWithAPI(apiClient BinanceAPIClient) *BinanceClient {
	return &BinanceClient{
		apiClient: apiClient,
		writer:    nil,
	}
}

func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download pages through the klines of ticker between startDate and
// endDate and writes them with the configured writer.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not configured")
	}

	klineInterval, err := convertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInterval, "failed to convert timespan to Binance interval", err)
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	defer func() {
		if err != nil {
			removeEmptyOutput(c.writer)
		}
	}()

	startTimeMillis := startDate.UnixMilli()
	endTimeMillis := endDate.UnixMilli()
	currentStartTime := startTimeMillis

	for currentStartTime < endTimeMillis {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "download cancelled", err)
		}

		klines, err := c.apiClient.NewKlinesService().
			Symbol(ticker).
			Interval(klineInterval).
			StartTime(currentStartTime).
			EndTime(endTimeMillis).
			Limit(binanceMaxLimit).
			Do(ctx)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch klines from Binance", err)
		}

		bars, err := klinesToBars(ticker, klines)
		if err != nil {
			return "", err
		}

		for _, bar := range bars {
			if err := c.writer.Write(bar); err != nil {
				return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write bar", err)
			}
		}

		if onProgress != nil {
			onProgress(float64(currentStartTime-startTimeMillis), float64(endTimeMillis-startTimeMillis), fmt.Sprintf("Downloading %s klines from Binance", ticker))
		}

		if len(klines) < binanceMaxLimit {
			break
		}

		currentStartTime = klines[len(klines)-1].CloseTime + 1
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}

// FetchBars pages backwards from the latest kline until count bars are
// collected or history runs out.
func (c *BinanceClient) FetchBars(ctx context.Context, ticker string, barInterval string, count int) (types.Series, error) {
	if count < 1 {
		return types.Series{}, errors.Newf(errors.ErrCodeInvalidParameter, "count must be positive, got %d", count)
	}

	multiplier, timespan, err := interval.Parse(barInterval)
	if err != nil {
		return types.Series{}, err
	}

	binanceInterval, err := convertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return types.Series{}, errors.Wrap(errors.ErrCodeInvalidInterval, "failed to convert interval", err)
	}

	var (
		pages   [][]*binance.Kline
		fetched int
		endTime int64
	)

	for fetched < count {
		limit := min(count-fetched, binanceMaxLimit)

		service := c.apiClient.NewKlinesService().
			Symbol(ticker).
			Interval(binanceInterval).
			Limit(limit)
		if endTime > 0 {
			service = service.EndTime(endTime)
		}

		klines, err := service.Do(ctx)
		if err != nil {
			return types.Series{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch klines from Binance", err)
		}

		if len(klines) == 0 {
			break
		}

		pages = append(pages, klines)
		fetched += len(klines)
		endTime = klines[0].OpenTime - 1

		if len(klines) < limit {
			break
		}
	}

	klines := make([]*binance.Kline, 0, fetched)
	for i := len(pages) - 1; i >= 0; i-- {
		klines = append(klines, pages[i]...)
	}

	if len(klines) > count {
		klines = klines[len(klines)-count:]
	}

	bars, err := klinesToBars(ticker, klines)
	if err != nil {
		return types.Series{}, err
	}

	return seriesFromBars(ticker, barInterval, bars)
}

// klinesToBars converts klines to bars stamped with the open time.
func klinesToBars(ticker string, klines []*binance.Kline) ([]types.Bar, error) {
	bars := make([]types.Bar, 0, len(klines))

	for _, k := range klines {
		values := make([]float64, 5)

		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q at %d", raw, k.OpenTime)
			}

			values[i] = v
		}

		bars = append(bars, types.Bar{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Symbol: ticker,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return bars, nil
}

// convertTimespanToBinanceInterval converts the polygon timespan and multiplier to a Binance interval string.
// Binance intervals: 1s, 1m, 3m, 5m, 15m, 30m, 1h, 2h, 4h, 6h, 8h, 12h, 1d, 3d, 1w, 1M
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
func convertTimespanToBinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	supported := func(allowed []int, unit string) (string, error) {
		for _, m := range allowed {
			if m == multiplier {
				return fmt.Sprintf("%d%s", multiplier, unit), nil
			}
		}

		return "", fmt.Errorf("unsupported %s multiplier for Binance: %d", timespan, multiplier)
	}

	switch timespan {
	case models.Second:
		return supported([]int{1}, "s")
	case models.Minute:
		return supported([]int{1, 3, 5, 15, 30}, "m")
	case models.Hour:
		return supported([]int{1, 2, 4, 6, 8, 12}, "h")
	case models.Day:
		return supported([]int{1, 3}, "d")
	case models.Week:
		return supported([]int{1}, "w")
	case models.Month:
		return supported([]int{1}, "M")
	default:
		return "", fmt.Errorf("unsupported timespan for Binance: %s", timespan)
	}
}
