package provider

import (
	"context"
	"os"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer for the provider
	// Writer is used to write the market data to the database.
	// It could be a file, a database, etc.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download downloads the data for the given ticker and date range.
	// The context can be used to cancel the download operation.
	// example:
	// Download(ctx, "AAPL", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), 1, models.Minute, onProgress)
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
	// FetchBars returns the latest count bars of ticker at interval, oldest
	// first. An empty response is reported as ErrCodeDataUnavailable.
	FetchBars(ctx context.Context, ticker string, interval string, count int) (types.Series, error)
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires API key string config")
		}

		return NewPolygonClient(apiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

// seriesFromBars checks a fetched batch and wraps it as a Series.
func seriesFromBars(ticker string, interval string, bars []types.Bar) (types.Series, error) {
	if len(bars) == 0 {
		return types.Series{}, errors.Newf(errors.ErrCodeDataUnavailable, "no bars returned for %s at %s", ticker, interval)
	}

	series := types.Series{
		Symbol:   ticker,
		Interval: interval,
		Bars:     bars,
	}

	if err := series.Validate(); err != nil {
		return types.Series{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "provider returned an invalid series", err)
	}

	return series, nil
}

// removeEmptyOutput deletes the output file of a failed download that
// wrote nothing.
func removeEmptyOutput(w writer.MarketDataWriter) {
	if w.Count() > 0 || w.GetOutputPath() == "" {
		return
	}

	_ = os.Remove(w.GetOutputPath())
}
