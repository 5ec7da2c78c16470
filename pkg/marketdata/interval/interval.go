// Package interval parses bar intervals such as "15m" or "1d".
package interval

import (
	"strconv"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Parse splits an interval such as "15m" or "1d" into a
// multiplier and timespan. "M" is a month, "m" a minute.
func Parse(interval string) (int, models.Timespan, error) {
	if len(interval) < 2 {
		return 0, "", errors.Newf(errors.ErrCodeInvalidInterval, "invalid interval %q", interval)
	}

	multiplier, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || multiplier < 1 {
		return 0, "", errors.Newf(errors.ErrCodeInvalidInterval, "invalid interval multiplier in %q", interval)
	}

	var timespan models.Timespan

	switch interval[len(interval)-1] {
	case 's':
		timespan = models.Second
	case 'm':
		timespan = models.Minute
	case 'h':
		timespan = models.Hour
	case 'd':
		timespan = models.Day
	case 'w':
		timespan = models.Week
	case 'M':
		timespan = models.Month
	default:
		return 0, "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval unit in %q", interval)
	}

	return multiplier, timespan, nil
}

// Duration returns the nominal length of one bar. Months count as
// 30 days.
func Duration(multiplier int, timespan models.Timespan) (time.Duration, error) {
	var unit time.Duration

	switch timespan {
	case models.Second:
		unit = time.Second
	case models.Minute:
		unit = time.Minute
	case models.Hour:
		unit = time.Hour
	case models.Day:
		unit = 24 * time.Hour
	case models.Week:
		unit = 7 * 24 * time.Hour
	case models.Month:
		unit = 30 * 24 * time.Hour
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported timespan %s", timespan)
	}

	return time.Duration(multiplier) * unit, nil
}
