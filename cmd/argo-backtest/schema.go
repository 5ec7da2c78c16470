package main

import (
	"context"
	"fmt"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/optimizer"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print the JSON schema of a config file",
		ArgsUsage: "backtest | sweep | download-polygon | download-binance",
		Action: func(_ context.Context, cmd *cli.Command) error {
			schema, err := configSchema(cmd.Args().First())
			if err != nil {
				return err
			}

			fmt.Println(schema)

			return nil
		},
	}
}

func configSchema(kind string) (string, error) {
	switch kind {
	case "", "backtest":
		config := engine.EmptyConfig()

		return config.GenerateSchemaJSON()
	case "sweep":
		config := optimizer.SweepConfig{}

		return config.GenerateSchemaJSON()
	case "download-polygon":
		return marketdata.GetDownloadConfigSchema(string(marketdata.ProviderPolygon))
	case "download-binance":
		return marketdata.GetDownloadConfigSchema(string(marketdata.ProviderBinance))
	default:
		return "", fmt.Errorf("unknown schema %q", kind)
	}
}
