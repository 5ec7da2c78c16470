package marketdata

import (
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/interval"
)

// Timespan is a bar interval as written in configs and on the command
// line, e.g. "15m" or "1d".
type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

// SupportedTimespans lists every interval both providers can serve.
var SupportedTimespans = []Timespan{
	TimespanOneSecond, TimespanOneMinute, TimespanThreeMinutes, TimespanFiveMinutes,
	TimespanFifteenMinutes, TimespanThirtyMinutes, TimespanOneHour, TimespanTwoHours,
	TimespanFourHours, TimespanSixHours, TimespanEightHours, TimespanTwelveHours,
	TimespanOneDay, TimespanThreeDays, TimespanOneWeek, TimespanOneMonth,
}

// timespanTag is the validator tag accepting SupportedTimespans.
const timespanTag = "timespan"

// ParseTimespan returns s as a Timespan when it is supported.
func ParseTimespan(s string) (Timespan, error) {
	t := Timespan(s)
	if !t.IsSupported() {
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %q", s)
	}

	return t, nil
}

// IsSupported reports whether t is one of SupportedTimespans.
func (t Timespan) IsSupported() bool {
	return slices.Contains(SupportedTimespans, t)
}

// Parse splits t into the multiplier and unit used by the providers.
func (t Timespan) Parse() (int, models.Timespan, error) {
	return interval.Parse(string(t))
}

// Multiplier returns the bar count of the interval, 1 when it cannot be parsed.
func (t Timespan) Multiplier() int {
	multiplier, _, err := t.Parse()
	if err != nil {
		return 1
	}

	return multiplier
}

// Timespan returns the unit of the interval, a day when it cannot be parsed.
func (t Timespan) Timespan() models.Timespan {
	_, timespan, err := t.Parse()
	if err != nil {
		return models.Day
	}

	return timespan
}

// Duration returns the nominal length of one bar.
func (t Timespan) Duration() (time.Duration, error) {
	multiplier, timespan, err := t.Parse()
	if err != nil {
		return 0, err
	}

	return interval.Duration(multiplier, timespan)
}

// newValidator returns a validator that also understands the timespan tag.
func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation(timespanTag, func(fl validator.FieldLevel) bool {
		return Timespan(fl.Field().String()).IsSupported()
	})

	return validate
}
