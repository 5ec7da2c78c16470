package marketdata

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// ProviderType defines the type of market data provider.
type ProviderType = provider.ProviderType

const (
	ProviderPolygon = provider.ProviderPolygon
	ProviderBinance = provider.ProviderBinance
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType `validate:"required,oneof=polygon binance"`
	WriterType    WriterType   `validate:"required,oneof=duckdb"`
	DataPath      string       `validate:"required"`
	PolygonApiKey string       `validate:"required_if=ProviderType polygon"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
}

// FetchParams asks for the latest Count bars of Ticker.
type FetchParams struct {
	Ticker   string `validate:"required"`
	Interval string `validate:"required,timespan"`
	Count    int    `validate:"required,min=1,max=100000"`
}

// Client is the market data client responsible for downloading data from providers and storing it using writers.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	log        *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := newValidator()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	var (
		marketProvider provider.Provider
		err            error
	)

	switch config.ProviderType {
	case ProviderPolygon:
		marketProvider, err = provider.NewPolygonClient(config.PolygonApiKey)
	case ProviderBinance:
		marketProvider, err = provider.NewBinanceClient()
	default:
		err = errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider type: %s", config.ProviderType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", config.ProviderType, err)
	}

	return newClient(config, marketProvider, validate, onProgress, log), nil
}

// NewClientWithProvider creates a client around an existing provider.
func NewClientWithProvider(config ClientConfig, marketProvider provider.Provider, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := newValidator()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	return newClient(config, marketProvider, validate, onProgress, log), nil
}

func newClient(config ClientConfig, marketProvider provider.Provider, validate *validator.Validate, onProgress provider.OnDownloadProgress, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
		log:        log.Named("marketdata"),
	}
}

// Download initiates a market data download with the given parameters and
// returns the Parquet file written.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	marketWriter, err := c.setupWriter(OutputFileName(params))
	if err != nil {
		return "", fmt.Errorf("failed to setup writer: %w", err)
	}

	defer func() {
		if err := marketWriter.Close(); err != nil {
			c.log.Warn("Failed to close writer", zap.Error(err))
		}
	}()

	c.provider.ConfigWriter(marketWriter)

	path, err := c.provider.Download(
		ctx,
		params.Ticker,
		params.StartDate,
		params.EndDate,
		params.Multiplier,
		params.Timespan,
		c.onProgress,
	)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	c.log.Info("Downloaded market data",
		zap.String("ticker", params.Ticker),
		zap.String("path", path),
	)

	return path, nil
}

// Fetch returns the latest bars without writing them.
func (c *Client) Fetch(ctx context.Context, params FetchParams) (types.Series, error) {
	if err := c.validate.Struct(params); err != nil {
		return types.Series{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid fetch parameters", err)
	}

	series, err := c.provider.FetchBars(ctx, params.Ticker, params.Interval, params.Count)
	if err != nil {
		return types.Series{}, err
	}

	c.log.Debug("Fetched market data",
		zap.String("ticker", params.Ticker),
		zap.String("interval", params.Interval),
		zap.Int("bars", series.Len()),
	)

	return series, nil
}

// FetchAndStore fetches the latest bars and writes them to a Parquet file
// under the data path.
func (c *Client) FetchAndStore(ctx context.Context, params FetchParams) (types.Series, string, error) {
	series, err := c.Fetch(ctx, params)
	if err != nil {
		return types.Series{}, "", err
	}

	fileName := fmt.Sprintf("%s_latest_%d_%s.parquet", params.Ticker, params.Count, params.Interval)

	marketWriter, err := c.setupWriter(fileName)
	if err != nil {
		return types.Series{}, "", fmt.Errorf("failed to setup writer: %w", err)
	}

	defer func() {
		if err := marketWriter.Close(); err != nil {
			c.log.Warn("Failed to close writer", zap.Error(err))
		}
	}()

	for _, bar := range series.Bars {
		if err := marketWriter.Write(bar); err != nil {
			return types.Series{}, "", err
		}
	}

	path, err := marketWriter.Finalize()
	if err != nil {
		return types.Series{}, "", err
	}

	return series, path, nil
}

// OutputFileName is TICKER_START_END_MULTIPLIER_TIMESPAN.parquet.
func OutputFileName(params DownloadParams) string {
	return fmt.Sprintf("%s_%s_%s_%d_%s.parquet",
		params.Ticker,
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		params.Multiplier,
		params.Timespan)
}

// setupWriter initializes the appropriate market data writer based on configuration.
func (c *Client) setupWriter(fileName string) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		outputPath := filepath.Join(c.config.DataPath, fileName)

		duckdbWriter := writer.NewDuckDBWriter(outputPath, c.log)
		if err := duckdbWriter.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize DuckDB writer at %s: %w", outputPath, err)
		}

		return duckdbWriter, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}
