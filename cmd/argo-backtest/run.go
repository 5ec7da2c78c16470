package main

import (
	"context"
	"fmt"
	"os"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Simulate one configured strategy over a series",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Backtest config YAML file",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Draw a progress bar while simulating",
			},
		}, dataFlags()...),
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	data, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config, err := engine.LoadConfig(data)
	if err != nil {
		return err
	}

	series, err := loadSeries(cmd, log)
	if err != nil {
		return err
	}

	eng, err := engine.NewBacktestEngineV1(config, log)
	if err != nil {
		return err
	}

	if cmd.Bool("progress") {
		eng.SetCallbacks(simulationProgress())
	}

	outcome, err := eng.Run(ctx, series)
	if err != nil {
		return err
	}

	report, err := engine.NewBacktestReport(config.DecimalPrecision, log)
	if err != nil {
		return err
	}
	defer report.Close()

	if err := report.RecordOutcome(outcome); err != nil {
		return err
	}

	folder := engine.GetResultFolder(cmd.String("results"), string(config.Strategy.Type), series.Symbol, config.StartTime, config.EndTime)
	if err := report.Write(folder); err != nil {
		return err
	}

	log.Info("Backtest finished",
		zap.String("run_id", outcome.RunID),
		zap.String("results", folder),
	)

	fmt.Println(RenderSimulationResult(report.Records()[0].SimulationResult))
	fmt.Println(HelpStyle.Render("Results written to " + folder))

	return nil
}
