package main

import (
	"io"
	"os"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/schollz/progressbar/v3"
)

// progressOutput is where progress bars are drawn.
var progressOutput io.Writer = os.Stderr

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(progressOutput),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// simulationProgress draws one bar per simulated run.
func simulationProgress() engine.LifecycleCallbacks {
	var bar *progressbar.ProgressBar

	onStart := engine.OnRunStartCallback(func(_ string, strategyName string, totalBars int) error {
		bar = newProgressBar(totalBars, "Simulating "+strategyName)

		return nil
	})

	onData := engine.OnProcessDataCallback(func(current int, _ int) error {
		if bar == nil {
			return nil
		}

		return bar.Set(current)
	})

	onEnd := engine.OnRunEndCallback(func(string, types.SimulationResult) {
		if bar != nil {
			_ = bar.Finish()
		}
	})

	return engine.LifecycleCallbacks{
		OnRunStart:    &onStart,
		OnRunEnd:      &onEnd,
		OnProcessData: &onData,
	}
}

// downloadProgress adapts a progress bar to provider download callbacks.
func downloadProgress(description string) (func(current float64, total float64, message string), func()) {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(progressOutput),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	)

	onProgress := func(current float64, total float64, message string) {
		if total > 0 {
			bar.ChangeMax64(int64(total))
		}

		if message != "" {
			bar.Describe(message)
		}

		_ = bar.Set64(int64(current))
	}

	return onProgress, func() { _ = bar.Finish() }
}
