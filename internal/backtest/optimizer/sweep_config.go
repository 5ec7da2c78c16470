package optimizer

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// maxRangeValues caps how many values one Range may expand to.
const maxRangeValues = 10000

// Range describes the values of one knob, either as an explicit list or
// as an inclusive min..max walk by step. An all-zero Range leaves the
// knob unset.
type Range struct {
	Min    float64   `yaml:"min" json:"min,omitempty" jsonschema:"title=Min,description=First value of the range"`
	Max    float64   `yaml:"max" json:"max,omitempty" jsonschema:"title=Max,description=Last value of the range (inclusive)"`
	Step   float64   `yaml:"step" json:"step,omitempty" jsonschema:"title=Step,description=Increment between values,minimum=0"`
	Values []float64 `yaml:"values" json:"values,omitempty" jsonschema:"title=Values,description=Explicit values; overrides min/max/step"`
}

// IsZero reports whether the range is unset.
func (r Range) IsZero() bool {
	return len(r.Values) == 0 && r.Min == 0 && r.Max == 0 && r.Step == 0
}

// Expand returns the values of the range. The walk is done in decimal
// so that steps such as 0.1 land exactly on max.
func (r Range) Expand() ([]float64, error) {
	if len(r.Values) > 0 {
		return append([]float64(nil), r.Values...), nil
	}

	if r.IsZero() {
		return nil, nil
	}

	if r.Step <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "range step must be positive, got %v", r.Step)
	}

	if r.Max < r.Min {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "range max %v is below min %v", r.Max, r.Min)
	}

	current := decimal.NewFromFloat(r.Min)
	stop := decimal.NewFromFloat(r.Max)
	step := decimal.NewFromFloat(r.Step)

	var values []float64
	for current.LessThanOrEqual(stop) {
		if len(values) == maxRangeValues {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "range %v..%v by %v expands to more than %d values", r.Min, r.Max, r.Step, maxRangeValues)
		}

		values = append(values, current.InexactFloat64())
		current = current.Add(step)
	}

	return values, nil
}

// ExpandInts is Expand for integer knobs. Every value must be integral.
func (r Range) ExpandInts() ([]int, error) {
	values, err := r.Expand()
	if err != nil {
		return nil, err
	}

	ints := make([]int, 0, len(values))

	for _, v := range values {
		d := decimal.NewFromFloat(v)
		if !d.IsInteger() {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "value %v is not an integer", v)
		}

		ints = append(ints, int(d.IntPart()))
	}

	return ints, nil
}

// GridConfig is the serialized form of a ParameterGrid.
type GridConfig struct {
	ShortWindow  Range `yaml:"short_window" json:"short_window" jsonschema:"title=Short Window,description=Short moving average windows"`
	LongWindow   Range `yaml:"long_window" json:"long_window" jsonschema:"title=Long Window,description=Long moving average windows"`
	BreakoutK    Range `yaml:"breakout_k" json:"breakout_k" jsonschema:"title=Breakout K,description=Breakout range multipliers"`
	RSIPeriod    Range `yaml:"rsi_period" json:"rsi_period" jsonschema:"title=RSI Period,description=RSI centre of mass values"`
	RSIThreshold Range `yaml:"rsi_threshold" json:"rsi_threshold" jsonschema:"title=RSI Threshold,description=RSI entry thresholds"`
}

// ParameterGrid expands every range.
func (g GridConfig) ParameterGrid() (ParameterGrid, error) {
	var (
		grid ParameterGrid
		err  error
	)

	if grid.ShortWindows, err = g.ShortWindow.ExpandInts(); err != nil {
		return ParameterGrid{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid short_window range", err)
	}

	if grid.LongWindows, err = g.LongWindow.ExpandInts(); err != nil {
		return ParameterGrid{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid long_window range", err)
	}

	if grid.BreakoutKs, err = g.BreakoutK.Expand(); err != nil {
		return ParameterGrid{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid breakout_k range", err)
	}

	if grid.RSIPeriods, err = g.RSIPeriod.ExpandInts(); err != nil {
		return ParameterGrid{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid rsi_period range", err)
	}

	if grid.RSIThresholds, err = g.RSIThreshold.Expand(); err != nil {
		return ParameterGrid{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid rsi_threshold range", err)
	}

	return grid, nil
}

// SweepConfig is a backtest config plus the grid to sweep. The strategy
// params of the backtest config are ignored.
type SweepConfig struct {
	Backtest    engine.BacktestEngineV1Config `yaml:"backtest" json:"backtest" jsonschema:"title=Backtest,description=Base backtest configuration"`
	Grid        GridConfig                    `yaml:"grid" json:"grid" jsonschema:"title=Grid,description=Parameter ranges to sweep"`
	Objective   Objective                     `yaml:"objective" json:"objective,omitempty" validate:"omitempty,oneof=final_capital total_return mdd sharpe" jsonschema:"title=Objective,description=Metric results are ranked by"`
	Parallelism int                           `yaml:"parallelism" json:"parallelism,omitempty" validate:"gte=0,lte=256" jsonschema:"title=Parallelism,description=Concurrent simulations (default 1),minimum=0,maximum=256"`
}

// Validate checks the base config, the sweep options and the grid ranges.
func (c SweepConfig) Validate() error {
	if err := c.Backtest.ValidateBase(); err != nil {
		return err
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid sweep config", err)
	}

	grid, err := c.Grid.ParameterGrid()
	if err != nil {
		return err
	}

	return grid.Validate()
}

// OptimizerConfig returns the optimizer options described by the config.
func (c SweepConfig) OptimizerConfig() Config {
	config := DefaultConfig()
	if c.Objective != "" {
		config.Objective = c.Objective
	}

	if c.Parallelism > 0 {
		config.Parallelism = c.Parallelism
	}

	return config
}

// LoadSweepConfig parses a YAML sweep config and validates it.
func LoadSweepConfig(data []byte) (SweepConfig, error) {
	config := SweepConfig{
		Backtest:    engine.EmptyConfig(),
		Grid:        GridConfig{},
		Objective:   ObjectiveFinalCapital,
		Parallelism: 1,
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return SweepConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse sweep config", err)
	}

	if err := config.Validate(); err != nil {
		return SweepConfig{}, err
	}

	return config, nil
}

// GenerateSchemaJSON returns the JSON schema of SweepConfig.
func (c *SweepConfig) GenerateSchemaJSON() (string, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch {
			case t == reflect.TypeOf(Objective("")):
				return &jsonschema.Schema{Type: "string", Enum: AllObjectives}
			case strings.Contains(t.String(), "optional.Option[time.Time]"):
				return &jsonschema.Schema{Type: "string", Format: "date-time"}
			case strings.Contains(t.String(), "commission_fee.Broker"):
				return &jsonschema.Schema{Type: "string", Enum: commission_fee.AllBrokers}
			case strings.Contains(t.String(), "types.StrategyType"):
				return &jsonschema.Schema{Type: "string", Enum: types.AllStrategyTypes}
			}

			return nil
		},
	}

	return utils.MarshalSchema(reflector.Reflect(c), "sweep-config", "Configuration schema for a parameter sweep")
}

// RunSweep builds an engine from config and sweeps its grid over series.
// onDone may be nil.
func RunSweep(ctx context.Context, series types.Series, config SweepConfig, log *logger.Logger, onDone OnCombinationDoneCallback) ([]types.OptimizationResult, time.Duration, error) {
	if err := config.Validate(); err != nil {
		return nil, 0, err
	}

	grid, err := config.Grid.ParameterGrid()
	if err != nil {
		return nil, 0, err
	}

	eng, err := engine.NewBacktestEngineV1(config.Backtest, log)
	if err != nil {
		return nil, 0, err
	}

	optimizerConfig := config.OptimizerConfig()
	optimizerConfig.OnCombinationDone = onDone

	started := time.Now()

	results, err := NewOptimizer(eng, config.Backtest.Strategy.Type, optimizerConfig, log).Sweep(ctx, series, grid)
	if err != nil {
		return nil, 0, err
	}

	if log != nil {
		stats := eng.CacheStats()
		log.Debug("Indicator cache usage",
			zap.Int64("hits", stats.Hits),
			zap.Int64("misses", stats.Misses),
			zap.Int("columns", stats.Entries),
		)
	}

	return results, time.Since(started), nil
}
