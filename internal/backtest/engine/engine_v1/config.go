package engine

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/utils"
	"gopkg.in/yaml.v3"
)

const defaultDecimalPrecision = 4

// StrategyConfig selects the strategy variant and its parameters.
type StrategyConfig struct {
	Type   types.StrategyType   `yaml:"type" json:"type" validate:"required" jsonschema:"title=Strategy Type,description=Strategy variant to simulate"`
	Params types.StrategyParams `yaml:"params" json:"params" jsonschema:"title=Parameters,description=Strategy parameter combination"`
}

type BacktestEngineV1Config struct {
	InitialCapital   float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the simulation,minimum=0"`
	FeeRate          float64                    `yaml:"fee_rate" json:"fee_rate" validate:"gte=0,lt=1" jsonschema:"title=Fee Rate,description=Fraction of notional charged on each side of a trade,minimum=0,maximum=1"`
	Broker           commission_fee.Broker      `yaml:"broker" json:"broker" validate:"omitempty,oneof=proportional zero_commission" jsonschema:"title=Broker,description=The fee model to use"`
	Strategy         StrategyConfig             `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=Strategy variant and parameters"`
	StartTime        optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time of the simulated window"`
	EndTime          optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time of the simulated window"`
	DecimalPrecision int                        `yaml:"decimal_precision" json:"decimal_precision" validate:"gte=0,lte=12" jsonschema:"title=Decimal Precision,description=Decimal places kept in exported results,minimum=0,maximum=12"`
	MinEngineVersion string                     `yaml:"min_engine_version" json:"min_engine_version,omitempty" jsonschema:"title=Minimum Engine Version,description=Oldest engine version this config is written for"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type Config struct {
		InitialCapital   float64               `yaml:"initial_capital"`
		FeeRate          float64               `yaml:"fee_rate"`
		Broker           commission_fee.Broker `yaml:"broker"`
		Strategy         StrategyConfig        `yaml:"strategy"`
		StartTime        *time.Time            `yaml:"start_time"`
		EndTime          *time.Time            `yaml:"end_time"`
		DecimalPrecision *int                  `yaml:"decimal_precision"`
		MinEngineVersion string                `yaml:"min_engine_version"`
	}

	var config Config
	if err := value.Decode(&config); err != nil {
		return err
	}

	*c = EmptyConfig()
	c.InitialCapital = config.InitialCapital
	c.FeeRate = config.FeeRate
	c.Broker = config.Broker
	c.Strategy = config.Strategy
	c.MinEngineVersion = config.MinEngineVersion

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	if config.DecimalPrecision != nil {
		c.DecimalPrecision = *config.DecimalPrecision
	}

	return nil
}

// Validate checks field constraints, the time window, the parameter
// combination and the minimum engine version.
func (c BacktestEngineV1Config) Validate() error {
	if err := c.ValidateBase(); err != nil {
		return err
	}

	return c.Strategy.Params.Validate(c.Strategy.Type)
}

// ValidateBase is Validate without the parameter combination check. It is
// used when the parameters come from elsewhere, such as a sweep grid.
func (c BacktestEngineV1Config) ValidateBase() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.EndTime.Unwrap().After(c.StartTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "end time %s must be after start time %s",
			c.EndTime.Unwrap().Format(time.RFC3339), c.StartTime.Unwrap().Format(time.RFC3339))
	}

	if err := version.CheckMinimumVersion(version.GetVersion(), c.MinEngineVersion); err != nil {
		return errors.Wrap(errors.ErrCodeVersionMismatch, "config requires a newer engine", err)
	}

	return nil
}

// Commission returns the fee model described by the config.
func (c BacktestEngineV1Config) Commission() commission_fee.CommissionFee {
	return commission_fee.GetCommissionFeeHandler(c.Broker, c.FeeRate)
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			if strings.Contains(t.String(), "types.StrategyType") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: types.AllStrategyTypes,
				}
			}

			return nil
		},
	}

	return reflector.Reflect(c), nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	return utils.MarshalSchema(schema, "backtest-engine-v1-config", "Configuration schema for BacktestEngineV1")
}

// LoadConfig parses a YAML config and validates it.
func LoadConfig(data []byte) (BacktestEngineV1Config, error) {
	var config BacktestEngineV1Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return BacktestEngineV1Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	if err := config.Validate(); err != nil {
		return BacktestEngineV1Config{}, err
	}

	return config, nil
}

func TestConfig(strategyType types.StrategyType, params types.StrategyParams) BacktestEngineV1Config {
	config := EmptyConfig()
	config.InitialCapital = 10000
	config.FeeRate = 0.0005
	config.Strategy = StrategyConfig{Type: strategyType, Params: params}

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   0,
		FeeRate:          0,
		Broker:           commission_fee.BrokerProportional,
		Strategy:         StrategyConfig{Type: "", Params: types.StrategyParams{}},
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		DecimalPrecision: defaultDecimalPrecision,
		MinEngineVersion: "",
	}
}
