package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/optimizer"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// FormatPct formats a percentage with a sign, colored by direction.
func FormatPct(value float64) string {
	text := fmt.Sprintf("%+.2f%%", value)

	switch {
	case value > 0:
		return gainStyle.Render(text)
	case value < 0:
		return lossStyle.Render(text)
	default:
		return text
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.Padding(0, 1)
			}

			return cellStyle
		}).
		Headers(headers...)
}

// RenderSimulationResult renders one run as a metric/value table.
func RenderSimulationResult(result types.SimulationResult) string {
	t := newTable("Metric", "Value").Rows(
		[]string{"Symbol", result.Symbol},
		[]string{"Strategy", string(result.Strategy)},
		[]string{"Params", result.Params.String()},
		[]string{"Period", result.StartTime.Format("2006-01-02 15:04") + " to " + result.EndTime.Format("2006-01-02 15:04")},
		[]string{"Warm-up bars", strconv.Itoa(result.WarmupBars)},
		[]string{"Initial capital", fmt.Sprintf("%.2f", result.InitialCapital)},
		[]string{"Final capital", fmt.Sprintf("%.2f", result.FinalCapital)},
		[]string{"Total return", FormatPct(result.TotalReturnPct)},
		[]string{"Buy and hold", FormatPct(result.BuyAndHoldPct)},
		[]string{"Max drawdown", FormatPct(result.MDDPct)},
		[]string{"Sharpe", fmt.Sprintf("%.4f", result.SharpeRatio)},
		[]string{"Trades", strconv.Itoa(result.TradeResult.NumberOfTrades)},
		[]string{"Win rate", fmt.Sprintf("%.2f%%", result.TradeResult.WinRate*100)},
	)

	return t.String()
}

// RenderSweepResults renders the first top ranked results. top <= 0 renders all.
func RenderSweepResults(results []types.OptimizationResult, objective optimizer.Objective, top int) string {
	if top <= 0 || top > len(results) {
		top = len(results)
	}

	t := newTable("#", "Params", "Final capital", "Return", "MDD", "Sharpe", "Trades", string(objective))

	for i, result := range results[:top] {
		if result.Failed() {
			t.Row(strconv.Itoa(i+1), result.Params.String(), "-", "-", "-", "-", "-", ErrorStyle.Render(result.Error))

			continue
		}

		t.Row(
			strconv.Itoa(i+1),
			result.Params.String(),
			fmt.Sprintf("%.2f", result.FinalCapital),
			FormatPct(result.TotalReturnPct),
			FormatPct(result.MDDPct),
			fmt.Sprintf("%.4f", result.SharpeRatio),
			strconv.Itoa(result.NumberOfTrades),
			fmt.Sprintf("%.4f", objective.Value(result)),
		)
	}

	return t.String()
}
