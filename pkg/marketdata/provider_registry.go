package marketdata

import (
	"slices"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/utils"
)

// ProviderInfo describes a market data provider to API and CLI users.
type ProviderInfo struct {
	Name         string     `json:"name"`
	DisplayName  string     `json:"displayName"`
	Description  string     `json:"description"`
	RequiresAuth bool       `json:"requiresAuth"`
	Intervals    []Timespan `json:"intervals"`
}

type providerEntry struct {
	info   ProviderInfo
	schema func() (string, error)
	parse  func(jsonConfig string) (any, error)
}

var providerRegistry = map[ProviderType]providerEntry{
	ProviderPolygon: {
		info: ProviderInfo{
			Name:         string(ProviderPolygon),
			DisplayName:  "Polygon.io",
			Description:  "US stock market data provider with historical OHLCV aggregates",
			RequiresAuth: true,
			Intervals:    SupportedTimespans,
		},
		schema: func() (string, error) { return utils.ToJSONSchema(PolygonDownloadConfig{}) },
		parse:  func(jsonConfig string) (any, error) { return ParsePolygonConfig(jsonConfig) },
	},
	ProviderBinance: {
		info: ProviderInfo{
			Name:         string(ProviderBinance),
			DisplayName:  "Binance",
			Description:  "Cryptocurrency exchange with public kline data for crypto trading pairs",
			RequiresAuth: false,
			Intervals:    SupportedTimespans,
		},
		schema: func() (string, error) { return utils.ToJSONSchema(BinanceDownloadConfig{}) },
		parse:  func(jsonConfig string) (any, error) { return ParseBinanceConfig(jsonConfig) },
	},
}

func lookupProvider(providerName string) (providerEntry, error) {
	entry, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return providerEntry{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return entry, nil
}

// GetSupportedProviders returns the supported provider names in sorted order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	slices.Sort(providers)

	return providers
}

// GetProviders returns the metadata of every provider, sorted by name.
func GetProviders() []ProviderInfo {
	names := GetSupportedProviders()
	infos := make([]ProviderInfo, 0, len(names))

	for _, name := range names {
		infos = append(infos, providerRegistry[ProviderType(name)].info)
	}

	return infos
}

func GetProviderInfo(providerName string) (ProviderInfo, error) {
	entry, err := lookupProvider(providerName)
	if err != nil {
		return ProviderInfo{}, err
	}

	return entry.info, nil
}

// GetDownloadConfigSchema returns the JSON schema of a provider's download config.
func GetDownloadConfigSchema(providerName string) (string, error) {
	entry, err := lookupProvider(providerName)
	if err != nil {
		return "", err
	}

	return entry.schema()
}

// ParseDownloadConfig parses and validates a provider's JSON download
// config. The result is a *PolygonDownloadConfig or *BinanceDownloadConfig.
func ParseDownloadConfig(providerName string, jsonConfig string) (any, error) {
	entry, err := lookupProvider(providerName)
	if err != nil {
		return nil, err
	}

	return entry.parse(jsonConfig)
}
