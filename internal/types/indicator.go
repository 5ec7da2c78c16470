package types

type IndicatorType string

const (
	IndicatorTypeMA       IndicatorType = "ma"
	IndicatorTypeRSI      IndicatorType = "rsi"
	IndicatorTypeBreakout IndicatorType = "breakout"
)
