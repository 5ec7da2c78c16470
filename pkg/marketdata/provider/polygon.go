package provider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/interval"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
)

const polygonMaxLimit = 50000

// PolygonAggsIterator walks the pages of an aggregates request.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient lists aggregates.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPI struct {
	client *polygon.Client
}

func (a *polygonAPI) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	apiClient PolygonAPIClient
	writer    writer.MarketDataWriter
	now       func() time.Time
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonAPI{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI creates a client on top of apiClient.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient) *PolygonClient {
	return &PolygonClient{
		apiClient: apiClient,
		writer:    nil,
		now:       time.Now,
	}
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "no writer configured for PolygonClient. Call ConfigWriter first")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	defer func() {
		if err != nil {
			removeEmptyOutput(c.writer)
		}
	}()

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(polygonMaxLimit)

	iter := c.apiClient.ListAggs(ctx, params)
	total := endDate.Sub(startDate).Seconds()

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "download cancelled", err)
		}

		bar := aggToBar(ticker, iter.Item())
		if err := c.writer.Write(bar); err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write data", err)
		}

		if onProgress != nil && c.writer.Count()%1000 == 0 {
			onProgress(bar.Time.Sub(startDate).Seconds(), total, fmt.Sprintf("Downloading %s", ticker))
		}
	}

	if iter.Err() != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", iter.Err())
	}

	if onProgress != nil {
		onProgress(total, total, fmt.Sprintf("Downloaded %s", ticker))
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}

// FetchBars requests the newest count aggregates in descending order and
// returns them oldest first. The lookback window is three times the
// nominal span plus a week so closed sessions do not shorten the result.
func (c *PolygonClient) FetchBars(ctx context.Context, ticker string, barInterval string, count int) (types.Series, error) {
	if count < 1 {
		return types.Series{}, errors.Newf(errors.ErrCodeInvalidParameter, "count must be positive, got %d", count)
	}

	multiplier, timespan, err := interval.Parse(barInterval)
	if err != nil {
		return types.Series{}, err
	}

	barLength, err := interval.Duration(multiplier, timespan)
	if err != nil {
		return types.Series{}, err
	}

	to := c.now()
	from := to.Add(-3*time.Duration(count)*barLength - 7*24*time.Hour)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithOrder(models.Desc).WithLimit(min(count, polygonMaxLimit))

	iter := c.apiClient.ListAggs(ctx, params)

	bars := make([]types.Bar, 0, count)
	for len(bars) < count && iter.Next() {
		bars = append(bars, aggToBar(ticker, iter.Item()))
	}

	if iter.Err() != nil {
		return types.Series{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", iter.Err())
	}

	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return seriesFromBars(ticker, barInterval, bars)
}

func aggToBar(ticker string, agg models.Agg) types.Bar {
	return types.Bar{
		Time:   time.Time(agg.Timestamp).UTC(),
		Symbol: ticker,
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: agg.Volume,
	}
}
