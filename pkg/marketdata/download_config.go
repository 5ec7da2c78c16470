package marketdata

import (
	"encoding/json"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// dateLayouts are tried in order when reading config dates.
var dateLayouts = []string{time.RFC3339, time.DateOnly}

// BaseDownloadConfig is the provider-independent part of a download request.
type BaseDownloadConfig struct {
	Ticker    string `json:"ticker" jsonschema:"title=Ticker,description=The trading symbol to download data for (e.g. SPY or BTCUSDT),required" validate:"required"`
	StartDate string `json:"startDate" jsonschema:"title=Start Date,description=Start date as YYYY-MM-DD or RFC3339,required" validate:"required"`
	EndDate   string `json:"endDate" jsonschema:"title=End Date,description=End date as YYYY-MM-DD or RFC3339,required" validate:"required"`
	Interval  string `json:"interval" jsonschema:"title=Interval,description=Bar interval,required,enum=1s,enum=1m,enum=3m,enum=5m,enum=15m,enum=30m,enum=1h,enum=2h,enum=4h,enum=6h,enum=8h,enum=12h,enum=1d,enum=3d,enum=1w,enum=1M" validate:"required,timespan"`
}

// PolygonDownloadConfig adds the API key Polygon.io requires.
type PolygonDownloadConfig struct {
	BaseDownloadConfig

	ApiKey string `json:"apiKey" jsonschema:"title=API Key,description=Polygon.io API key for authentication,required" validate:"required"`
}

// BinanceDownloadConfig needs nothing beyond the base fields since the
// public klines endpoint is unauthenticated.
type BinanceDownloadConfig struct {
	BaseDownloadConfig
}

func parseDate(field, value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, errors.Newf(errors.ErrCodeInvalidConfiguration, "invalid %s %q, expected YYYY-MM-DD or RFC3339", field, value)
}

func (c *BaseDownloadConfig) dates() (time.Time, time.Time, error) {
	start, err := parseDate("startDate", c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	end, err := parseDate("endDate", c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.New(errors.ErrCodeInvalidConfiguration, "endDate must be after startDate")
	}

	return start, end, nil
}

// Validate checks the required fields, the interval and the date range.
func (c *BaseDownloadConfig) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid download config", err)
	}

	_, _, err := c.dates()

	return err
}

// Validate also requires the API key.
func (c *PolygonDownloadConfig) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid polygon download config", err)
	}

	return c.BaseDownloadConfig.Validate()
}

func (c *BinanceDownloadConfig) Validate() error {
	return c.BaseDownloadConfig.Validate()
}

// ToDownloadParams converts the config into a Client.Download request.
func (c *BaseDownloadConfig) ToDownloadParams() (DownloadParams, error) {
	start, end, err := c.dates()
	if err != nil {
		return DownloadParams{}, err
	}

	timespan, err := ParseTimespan(c.Interval)
	if err != nil {
		return DownloadParams{}, err
	}

	return DownloadParams{
		Ticker:     c.Ticker,
		StartDate:  start,
		EndDate:    end,
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan.Timespan(),
	}, nil
}

// ToFetchParams converts the ticker and interval into a request for the
// latest count bars. The date range is ignored.
func (c *BaseDownloadConfig) ToFetchParams(count int) FetchParams {
	return FetchParams{
		Ticker:   c.Ticker,
		Interval: c.Interval,
		Count:    count,
	}
}

func (c *PolygonDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderPolygon,
		WriterType:    WriterDuckDB,
		DataPath:      dataPath,
		PolygonApiKey: c.ApiKey,
	}
}

func (c *BinanceDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType: ProviderBinance,
		WriterType:   WriterDuckDB,
		DataPath:     dataPath,
	}
}

// ParsePolygonConfig decodes and validates a Polygon download config.
func ParsePolygonConfig(jsonConfig string) (*PolygonDownloadConfig, error) {
	return parseConfig[PolygonDownloadConfig](jsonConfig)
}

// ParseBinanceConfig decodes and validates a Binance download config.
func ParseBinanceConfig(jsonConfig string) (*BinanceDownloadConfig, error) {
	return parseConfig[BinanceDownloadConfig](jsonConfig)
}

func parseConfig[T any, PT interface {
	*T
	Validate() error
}](jsonConfig string) (*T, error) {
	var config T
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse JSON config", err)
	}

	if err := PT(&config).Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
