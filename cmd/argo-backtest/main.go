package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"
)

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level := zapcore.InfoLevel
	if cmd.Bool("debug") {
		level = zapcore.DebugLevel
	}

	return logger.NewLoggerWithLevel(level)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "argo-backtest",
		Usage:   "Simulate long-only strategies over historical bars and sweep their parameters",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			sweepCommand(),
			downloadCommand(),
			fetchCommand(),
			inspectCommand(),
			schemaCommand(),
			serveCommand(),
			{
				Name:  "version",
				Usage: "Print the engine version",
				Action: func(_ context.Context, _ *cli.Command) error {
					fmt.Println(version.GetVersion())

					return nil
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
