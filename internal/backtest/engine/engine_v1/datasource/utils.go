package datasource

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/interval"
)

// Minutes returns the bucket width of the interval.
func (i Interval) Minutes() (int, error) {
	multiplier, timespan, err := interval.Parse(string(i))
	if err != nil {
		return 0, err
	}

	if timespan == models.Second || timespan == models.Month {
		return 0, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported resampling interval: %s", i)
	}

	duration, err := interval.Duration(multiplier, timespan)
	if err != nil {
		return 0, err
	}

	return int(duration / time.Minute), nil
}

// readFunction returns the DuckDB table function that reads path.
func readFunction(path string) string {
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return fmt.Sprintf("read_csv_auto(%s)", quoted)
	default:
		return fmt.Sprintf("read_parquet(%s)", quoted)
	}
}
