package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// The path parameter specifies the DuckDB database file location, ":memory:" for an in-memory database.
// This is distinct from Initialize() which loads market data into the database.
func NewDataSource(path string, log *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open DuckDB", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	_, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// Squirrel doesn't support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM %s;
	`, readFunction(path))

	if _, err = d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to load market data from %s", path)
	}

	return nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, args, err := d.sq.
		Select("COUNT(*)").
		From("market_data").
		Where(timeRange(start, end)).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	query, args, err := d.sq.
		Select("DISTINCT symbol").
		From("market_data").
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return symbols, nil
}

// LoadSeries implements DataSource. Without a symbol the data source must
// hold exactly one. An empty result is reported as ErrCodeDataUnavailable.
func (d *DuckDBDataSource) LoadSeries(q Query) (types.Series, error) {
	symbol, err := d.resolveSymbol(q.Symbol)
	if err != nil {
		return types.Series{}, err
	}

	builder, err := d.buildSeriesQuery(symbol, q)
	if err != nil {
		return types.Series{}, err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return types.Series{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	d.logger.Debug("Loading series",
		zap.String("symbol", symbol),
		zap.String("query", query),
	)

	stmt, err := d.db.Prepare(query)
	if err != nil {
		return types.Series{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare query", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(args...)
	if err != nil {
		return types.Series{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	bars := make([]types.Bar, 0, 1000)

	for rows.Next() {
		var (
			timestamp                      time.Time
			open, high, low, close, volume float64
			symbolResult                   string
		)

		if err := rows.Scan(&timestamp, &symbolResult, &open, &high, &low, &close, &volume); err != nil {
			return types.Series{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		bars = append(bars, types.Bar{
			Time:   timestamp,
			Symbol: symbolResult,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		})
	}

	if err := rows.Err(); err != nil {
		return types.Series{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	if len(bars) == 0 {
		return types.Series{}, errors.Newf(errors.ErrCodeDataUnavailable, "no bars for %s in the requested range", symbol)
	}

	interval := ""
	if q.Interval.IsSome() {
		interval = string(q.Interval.Unwrap())
	}

	series := types.NewSeries(interval, bars)
	series.Symbol = symbol

	return series, nil
}

func (d *DuckDBDataSource) resolveSymbol(symbol optional.Option[string]) (string, error) {
	if symbol.IsSome() {
		return symbol.Unwrap(), nil
	}

	symbols, err := d.Symbols()
	if err != nil {
		return "", err
	}

	switch len(symbols) {
	case 0:
		return "", errors.New(errors.ErrCodeDataUnavailable, "data source holds no bars")
	case 1:
		return symbols[0], nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "data source holds %d symbols %v, choose one", len(symbols), symbols)
	}
}

func (d *DuckDBDataSource) buildSeriesQuery(symbol string, q Query) (squirrel.SelectBuilder, error) {
	where := squirrel.And{squirrel.Eq{"symbol": symbol}, timeRange(q.Start, q.End)}

	if q.Interval.IsNone() {
		return d.sq.
			Select("time", "symbol", "open", "high", "low", "close", "volume").
			From("market_data").
			Where(where).
			OrderBy("time ASC"), nil
	}

	minutes, err := q.Interval.Unwrap().Minutes()
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}

	bucket := fmt.Sprintf("time_bucket(INTERVAL '%d minutes', time)", minutes)

	return d.sq.
		Select(
			bucket+" AS bucket_time",
			"symbol",
			"arg_min(open, time) AS open",
			"MAX(high) AS high",
			"MIN(low) AS low",
			"arg_max(close, time) AS close",
			"CAST(SUM(volume) AS DOUBLE) AS volume",
		).
		From("market_data").
		Where(where).
		GroupBy(bucket, "symbol").
		OrderBy("bucket_time ASC"), nil
}

// ExecuteSQL implements DataSource.
func (d *DuckDBDataSource) ExecuteSQL(query string, params ...any) ([]SQLResult, error) {
	d.logger.Debug("Executing SQL query", zap.String("query", query))

	stmt, err := d.db.Prepare(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare query", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(params...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to get columns", err)
	}

	result := make([]SQLResult, 0)

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		rowMap := make(map[string]any)
		for i, col := range columns {
			rowMap[col] = values[i]
		}

		result = append(result, SQLResult{Values: rowMap})
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return result, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

func timeRange(start, end optional.Option[time.Time]) squirrel.And {
	conditions := squirrel.And{}

	if start.IsSome() {
		conditions = append(conditions, squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		conditions = append(conditions, squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return conditions
}
