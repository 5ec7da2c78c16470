package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/optimizer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Simulate every parameter combination of a grid and rank them",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Sweep config YAML file",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of ranked results to print (0 prints all)",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Draw a progress bar while sweeping",
			},
		}, dataFlags()...),
		Action: sweepAction,
	}
}

func sweepAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	data, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config, err := optimizer.LoadSweepConfig(data)
	if err != nil {
		return err
	}

	series, err := loadSeries(cmd, log)
	if err != nil {
		return err
	}

	var onDone optimizer.OnCombinationDoneCallback

	if cmd.Bool("progress") {
		var (
			once sync.Once
			bar  *progressbar.ProgressBar
		)

		onDone = func(done int, total int) {
			once.Do(func() { bar = newProgressBar(total, "Sweeping") })
			_ = bar.Set(done)
		}
	}

	results, elapsed, err := optimizer.RunSweep(ctx, series, config, log, onDone)
	if err != nil {
		return err
	}

	report, err := engine.NewBacktestReport(config.Backtest.DecimalPrecision, log)
	if err != nil {
		return err
	}
	defer report.Close()

	if err := report.RecordSweep(results); err != nil {
		return err
	}

	// the best combination is re-run so its trace and trades are kept
	best, err := optimizer.Best(results)
	if err == nil {
		eng, err := engine.NewBacktestEngineV1(config.Backtest, log)
		if err != nil {
			return err
		}

		outcome, err := eng.Simulate(ctx, series, config.Backtest.Strategy.Type, best.Params)
		if err != nil {
			return err
		}

		if err := report.RecordOutcome(outcome); err != nil {
			return err
		}
	}

	folder := engine.GetResultFolder(cmd.String("results"), string(config.Backtest.Strategy.Type)+"_sweep", series.Symbol, config.Backtest.StartTime, config.Backtest.EndTime)
	if err := report.Write(folder); err != nil {
		return err
	}

	objective := config.OptimizerConfig().Objective

	log.Info("Sweep finished",
		zap.Int("combinations", len(results)),
		zap.Duration("elapsed", elapsed),
		zap.String("objective", string(objective)),
		zap.String("results", folder),
	)

	fmt.Println(TitleStyle.Render(fmt.Sprintf("%d combinations ranked by %s in %s", len(results), objective, elapsed.Round(time.Millisecond))))
	fmt.Println(RenderSweepResults(results, objective, int(cmd.Int("top"))))
	fmt.Println(HelpStyle.Render("Results written to " + folder))

	return nil
}
