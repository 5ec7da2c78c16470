package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(0.0, config.InitialCapital)
	suite.Equal(commission_fee.BrokerProportional, config.Broker)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.Equal(4, config.DecimalPrecision)
}

func (suite *ConfigTestSuite) TestTestConfig() {
	config := TestConfig(types.StrategyGoldenCross, types.StrategyParams{ShortWindow: 5, LongWindow: 20})

	suite.Equal(10000.0, config.InitialCapital)
	suite.Equal(0.0005, config.FeeRate)
	suite.Equal(types.StrategyGoldenCross, config.Strategy.Type)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.Require().NotNil(schema)
	suite.NotNil(schema.Properties)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	var result map[string]interface{}
	err = json.Unmarshal([]byte(schemaJSON), &result)
	suite.NoError(err)

	suite.Contains(result, "title")
	suite.Equal("backtest-engine-v1-config", result["title"])
	suite.Contains(schemaJSON, "zero_commission")
	suite.Contains(schemaJSON, "trend_rsi")
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLComplete() {
	yamlData := `
initial_capital: 50000
fee_rate: 0.001
broker: proportional
strategy:
  type: trend_rsi
  params:
    short_window: 5
    long_window: 20
    rsi_period: 14
    rsi_threshold: 30
start_time: 2023-01-01T00:00:00Z
end_time: 2023-12-31T00:00:00Z
decimal_precision: 2
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.Equal(50000.0, config.InitialCapital)
	suite.Equal(0.001, config.FeeRate)
	suite.Equal(commission_fee.BrokerProportional, config.Broker)
	suite.Equal(types.StrategyTrendRSI, config.Strategy.Type)
	suite.Equal(14, config.Strategy.Params.RSIPeriod)
	suite.Equal(30.0, config.Strategy.Params.RSIThreshold)
	suite.True(config.StartTime.IsSome())
	suite.True(config.EndTime.IsSome())
	suite.Equal(2, config.DecimalPrecision)

	startTime := config.StartTime.Unwrap()
	suite.Equal(2023, startTime.Year())
	suite.Equal(time.January, startTime.Month())
	suite.Equal(1, startTime.Day())

	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLDefaults() {
	yamlData := `
initial_capital: 25000
strategy:
  type: breakout
  params:
    breakout_k: 0.5
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.Equal(commission_fee.Broker(""), config.Broker)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.Equal(4, config.DecimalPrecision)
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLInvalid() {
	yamlData := `
initial_capital: not_a_number
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestLoadConfig() {
	_, err := LoadConfig([]byte("initial_capital: ["))
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))

	_, err = LoadConfig([]byte(`
initial_capital: 1000
fee_rate: 1.5
strategy:
  type: breakout
  params:
    breakout_k: 0.5
`))
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))

	_, err = LoadConfig([]byte(`
initial_capital: 1000
strategy:
  type: golden_cross
  params:
    short_window: 20
    long_window: 5
`))
	suite.Equal(errors.ErrCodeInvalidParameterCombination, errors.GetCode(err))

	config, err := LoadConfig([]byte(`
initial_capital: 1000
broker: zero_commission
strategy:
  type: golden_cross
  params:
    short_window: 5
    long_window: 20
`))
	suite.NoError(err)
	suite.Equal(1.0, config.Commission().EntryFactor())
}

func (suite *ConfigTestSuite) TestValidateRejectsUnknownBroker() {
	config := TestConfig(types.StrategyBreakout, types.StrategyParams{BreakoutK: 0.5})
	config.Broker = "interactive_broker"

	suite.True(errors.HasCode(config.Validate(), errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestMinEngineVersion() {
	original := version.Version
	defer func() { version.Version = original }()

	version.Version = "v1.2.0"

	config := TestConfig(types.StrategyBreakout, types.StrategyParams{BreakoutK: 0.5})
	config.MinEngineVersion = "1.1.0"
	suite.NoError(config.Validate())

	config.MinEngineVersion = "2.0.0"
	suite.Equal(errors.ErrCodeVersionMismatch, errors.GetCode(config.Validate()))
}
