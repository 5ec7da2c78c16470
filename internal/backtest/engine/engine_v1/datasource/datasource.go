package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Interval is a resampling bucket such as "4h" or "1d". Sub-minute and
// monthly buckets are not supported.
type Interval string

// SQLResult is one row returned by ExecuteSQL, keyed by column name.
type SQLResult struct {
	Values map[string]any
}

// Query selects the bars LoadSeries returns. Unset fields do not filter.
type Query struct {
	Symbol optional.Option[string]
	Start  optional.Option[time.Time]
	End    optional.Option[time.Time]
	// Interval resamples the stored bars into buckets of this size.
	Interval optional.Option[Interval]
}

// DataSource reads bar history from Parquet or CSV files.
type DataSource interface {
	// Initialize loads market data from a parquet or csv file. The path may be a glob.
	Initialize(path string) error
	// LoadSeries reads an ordered series for one symbol.
	LoadSeries(query Query) (types.Series, error)
	Symbols() ([]string, error)
	ExecuteSQL(query string, params ...any) ([]SQLResult, error)
	// Count returns the number of stored bars in the optional time range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	Close() error
}
