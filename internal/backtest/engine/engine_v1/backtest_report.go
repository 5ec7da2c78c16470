package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EquityFileName = "equity.parquet"
	TradesFileName = "trades.parquet"
	SweepFileName  = "sweep_results.parquet"
	StatsFileName  = "stats.yaml"
)

// BacktestReport collects simulation outcomes and sweep results in an
// in-memory DuckDB database and exports them as Parquet and YAML. Numbers
// are rounded to the configured decimal precision on the way in.
type BacktestReport struct {
	db        *sql.DB
	logger    *logger.Logger
	sq        squirrel.StatementBuilderType
	precision int32
	records   []types.RunRecord
	hasSweep  bool
}

// NewBacktestReport creates an empty report rounding to precision decimals.
func NewBacktestReport(precision int, log *logger.Logger) (*BacktestReport, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		log.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to connect to database", err)
	}

	report := &BacktestReport{
		db:        db,
		logger:    log,
		sq:        squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		precision: int32(precision),
		records:   nil,
		hasSweep:  false,
	}

	if err := report.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return report, nil
}

func (r *BacktestReport) round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(r.precision).InexactFloat64()
}

// RecordOutcome stores the trace, trades and summary of one run.
func (r *BacktestReport) RecordOutcome(outcome engine.Outcome) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("backtest report or database is nil")
	}

	runID := outcome.RunID

	if len(outcome.Trace) > 0 {
		insert := r.sq.Insert("equity").Columns("run_id", "time", "capital", "cumulative_return", "position")
		for _, point := range outcome.Trace {
			insert = insert.Values(runID, point.Time, r.round(point.Capital), r.round(point.CumulativeReturn), string(point.Position))
		}

		if _, err := insert.RunWith(r.db).Exec(); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to insert equity trace", err)
		}
	}

	if len(outcome.Trades) > 0 {
		insert := r.sq.Insert("trades").Columns("run_id", "entry_time", "exit_time", "entry_price", "exit_price", "trade_return", "forced")
		for _, trade := range outcome.Trades {
			insert = insert.Values(runID, trade.EntryTime, trade.ExitTime, r.round(trade.EntryPrice), r.round(trade.ExitPrice), r.round(trade.Return), trade.Forced)
		}

		if _, err := insert.RunWith(r.db).Exec(); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to insert trades", err)
		}
	}

	record := outcome.Record()
	record.SimulationResult = r.roundResult(record.SimulationResult)
	r.records = append(r.records, record)

	return nil
}

// RecordSweep stores ranked sweep results. Rank starts at 1.
func (r *BacktestReport) RecordSweep(results []types.OptimizationResult) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("backtest report or database is nil")
	}

	r.hasSweep = true

	if len(results) == 0 {
		return nil
	}

	insert := r.sq.Insert("sweep_results").Columns(
		"rank", "short_window", "long_window", "breakout_k", "rsi_period", "rsi_threshold",
		"final_capital", "total_return_pct", "mdd_pct", "sharpe_ratio", "number_of_trades", "error",
	)

	for i, result := range results {
		insert = insert.Values(
			i+1,
			result.Params.ShortWindow,
			result.Params.LongWindow,
			result.Params.BreakoutK,
			result.Params.RSIPeriod,
			result.Params.RSIThreshold,
			r.round(result.FinalCapital),
			r.round(result.TotalReturnPct),
			r.round(result.MDDPct),
			r.round(result.SharpeRatio),
			result.NumberOfTrades,
			result.Error,
		)
	}

	if _, err := insert.RunWith(r.db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to insert sweep results", err)
	}

	return nil
}

// Records returns the recorded run summaries, rounded.
func (r *BacktestReport) Records() []types.RunRecord {
	return r.records
}

// Count returns the number of rows in one of the report tables.
func (r *BacktestReport) Count(table string) (int, error) {
	query, args, err := r.sq.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count %s", table)
	}

	return count, nil
}

// Write exports the report to path. Sweep results are only written when
// a sweep was recorded.
func (r *BacktestReport) Write(path string) error {
	if r == nil || r.db == nil || r.logger == nil {
		return fmt.Errorf("backtest report, database, or logger is nil")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create directory", err)
	}

	exports := map[string]string{
		"equity": filepath.Join(path, EquityFileName),
		"trades": filepath.Join(path, TradesFileName),
	}

	if r.hasSweep {
		exports["sweep_results"] = filepath.Join(path, SweepFileName)
	}

	for table, file := range exports {
		_, err := r.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, strings.ReplaceAll(file, "'", "''")))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to export %s to Parquet", table)
		}
	}

	if len(r.records) > 0 {
		statsPath := filepath.Join(path, StatsFileName)
		if err := types.WriteRunRecords(statsPath, r.records); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write stats", err)
		}
	}

	r.logger.Info("Successfully exported backtest report",
		zap.String("path", path),
		zap.Int("runs", len(r.records)),
		zap.Bool("sweep", r.hasSweep),
	)

	return nil
}

// Cleanup drops everything recorded so far.
func (r *BacktestReport) Cleanup() error {
	if r == nil || r.db == nil {
		return fmt.Errorf("backtest report or database is nil")
	}

	_, err := r.db.Exec(`
		DROP TABLE IF EXISTS equity;
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS sweep_results;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to cleanup report tables", err)
	}

	r.records = nil
	r.hasSweep = false

	return r.initialize()
}

// Close closes the database connection.
func (r *BacktestReport) Close() error {
	if r == nil || r.db == nil {
		return nil
	}

	return r.db.Close()
}

func (r *BacktestReport) roundResult(result types.SimulationResult) types.SimulationResult {
	result.InitialCapital = r.round(result.InitialCapital)
	result.FinalCapital = r.round(result.FinalCapital)
	result.TotalReturnPct = r.round(result.TotalReturnPct)
	result.BuyAndHoldPct = r.round(result.BuyAndHoldPct)
	result.MDDPct = r.round(result.MDDPct)
	result.SharpeRatio = r.round(result.SharpeRatio)
	result.TradeResult.WinRate = r.round(result.TradeResult.WinRate)

	return result
}

func (r *BacktestReport) initialize() error {
	if r == nil || r.db == nil {
		return fmt.Errorf("backtest report or database is nil")
	}

	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			run_id TEXT,
			time TIMESTAMP,
			capital DOUBLE,
			cumulative_return DOUBLE,
			position TEXT
		);
		CREATE TABLE IF NOT EXISTS trades (
			run_id TEXT,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			entry_price DOUBLE,
			exit_price DOUBLE,
			trade_return DOUBLE,
			forced BOOLEAN
		);
		CREATE TABLE IF NOT EXISTS sweep_results (
			rank INTEGER,
			short_window INTEGER,
			long_window INTEGER,
			breakout_k DOUBLE,
			rsi_period INTEGER,
			rsi_threshold DOUBLE,
			final_capital DOUBLE,
			total_return_pct DOUBLE,
			mdd_pct DOUBLE,
			sharpe_ratio DOUBLE,
			number_of_trades INTEGER,
			error TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create report tables", err)
	}

	return nil
}
