package errors

// ErrorCode identifies a failure category.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter            ErrorCode = 100
	ErrCodeInvalidConfiguration        ErrorCode = 101
	ErrCodeInsufficientHistory         ErrorCode = 106
	ErrCodeInvalidPeriod               ErrorCode = 108
	ErrCodeMissingParameter            ErrorCode = 109
	ErrCodeInvalidVersion              ErrorCode = 110
	ErrCodeInvalidMultiplier           ErrorCode = 111
	ErrCodeInvalidThreshold            ErrorCode = 112
	ErrCodeInvalidParameterCombination ErrorCode = 120
	ErrCodeInvalidSeries               ErrorCode = 121

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound    ErrorCode = 200
	ErrCodeDataUnavailable ErrorCode = 201
	ErrCodeQueryFailed     ErrorCode = 202

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError ErrorCode = 401
	ErrCodeUnsupportedStrategy ErrorCode = 403
	ErrCodeVersionMismatch     ErrorCode = 404

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError ErrorCode = 602
	ErrCodeDegenerateDrawdown  ErrorCode = 610
	ErrCodeSimulationFailed    ErrorCode = 611
	ErrCodeSweepCancelled      ErrorCode = 612
	ErrCodeResultWriteFailed   ErrorCode = 613
	ErrCodeNoViableCombination ErrorCode = 614

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidInterval       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:                     "Unknown",
	ErrCodeInvalidParameter:            "InvalidParameter",
	ErrCodeInvalidConfiguration:        "InvalidConfiguration",
	ErrCodeInsufficientHistory:         "InsufficientHistory",
	ErrCodeInvalidPeriod:               "InvalidPeriod",
	ErrCodeMissingParameter:            "MissingParameter",
	ErrCodeInvalidVersion:              "InvalidVersion",
	ErrCodeInvalidMultiplier:           "InvalidMultiplier",
	ErrCodeInvalidThreshold:            "InvalidThreshold",
	ErrCodeInvalidParameterCombination: "InvalidParameterCombination",
	ErrCodeInvalidSeries:               "InvalidSeries",
	ErrCodeDataNotFound:                "DataNotFound",
	ErrCodeDataUnavailable:             "DataUnavailable",
	ErrCodeQueryFailed:                 "QueryFailed",
	ErrCodeIndicatorCalculation:        "IndicatorCalculation",
	ErrCodeStrategyConfigError:         "StrategyConfigError",
	ErrCodeUnsupportedStrategy:         "UnsupportedStrategy",
	ErrCodeVersionMismatch:             "VersionMismatch",
	ErrCodeBacktestConfigError:         "BacktestConfigError",
	ErrCodeDegenerateDrawdown:          "DegenerateDrawdown",
	ErrCodeSimulationFailed:            "SimulationFailed",
	ErrCodeSweepCancelled:              "SweepCancelled",
	ErrCodeResultWriteFailed:           "ResultWriteFailed",
	ErrCodeNoViableCombination:         "NoViableCombination",
	ErrCodeMarketDataFetchFailed:       "MarketDataFetchFailed",
	ErrCodeMarketDataWriteFailed:       "MarketDataWriteFailed",
	ErrCodeMarketDataParseFailed:       "MarketDataParseFailed",
	ErrCodeInvalidInterval:             "InvalidInterval",
	ErrCodeInvalidProvider:             "InvalidProvider",
}

// String returns the symbolic name of the code, e.g. "DataUnavailable".
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return "Unknown"
}
