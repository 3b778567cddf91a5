// Package notify renders engine output for humans: backtest reports and
// trade summaries on the console.
package notify

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"simtrader/internal/domain"
)

// Console writes formatted reports to a writer.
type Console struct {
	out io.Writer
}

// NewConsole creates a reporter that writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a reporter for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// BacktestReport prints the stats block and the trade table for a run.
func (c *Console) BacktestReport(r domain.BacktestResult) {
	s := r.Stats
	fmt.Fprintf(c.out, "\n[%s] backtest %s — %d trades\n",
		time.Now().Format("15:04:05"), r.Symbol, s.TotalTrades)

	summary := tablewriter.NewWriter(c.out)
	summary.Header("Metric", "Value")
	summary.Append("Total trades", fmt.Sprintf("%d (%d W / %d L)", s.TotalTrades, s.WinningTrades, s.LosingTrades))
	summary.Append("Win rate", fmt.Sprintf("%.2f%%", s.WinRate))
	summary.Append("Total profit", fmt.Sprintf("$%.2f", s.TotalProfit))
	summary.Append("Profit factor", profitFactorLabel(s.ProfitFactor))
	summary.Append("Max drawdown", fmt.Sprintf("%.2f%%", s.MaxDrawdown))
	summary.Append("Sharpe ratio", fmt.Sprintf("%.2f", s.SharpeRatio))
	summary.Append("Avg win / loss", fmt.Sprintf("$%.2f / $%.2f", s.AvgWin, s.AvgLoss))
	summary.Append("Best / worst", fmt.Sprintf("$%.2f / $%.2f", s.BestTrade, s.WorstTrade))
	summary.Append("Final balance", fmt.Sprintf("$%.2f", s.FinalBalance))
	summary.Render()

	if len(r.Trades) > 0 {
		c.tradeTable(r.Trades)
	}
}

// TradeReport prints a session's closed trades with their aggregate stats.
func (c *Console) TradeReport(trades []domain.Trade, stats domain.TradeStats) {
	if len(trades) == 0 {
		fmt.Fprintf(c.out, "[%s] no closed trades\n", time.Now().Format("15:04:05"))
		return
	}

	fmt.Fprintf(c.out, "\n[%s] %d trades — win rate %.2f%% — total P&L $%.2f\n",
		time.Now().Format("15:04:05"), stats.TotalTrades, stats.WinRate, stats.TotalPnL)
	c.tradeTable(trades)

	fmt.Fprintf(c.out, "  exits:")
	for _, reason := range []domain.ExitReason{
		domain.ExitTakeProfit, domain.ExitStopLoss, domain.ExitStrategy, domain.ExitAlgoStopped,
	} {
		if n := stats.ExitReasons[reason]; n > 0 {
			fmt.Fprintf(c.out, " %s:%d", reason, n)
		}
	}
	fmt.Fprintln(c.out)
}

func (c *Console) tradeTable(trades []domain.Trade) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Dir", "Entry", "Exit", "Bars", "Pips", "Net", "Reason")

	for i, t := range trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(t.Direction),
			fmt.Sprintf("%.5f", t.EntryPrice),
			fmt.Sprintf("%.5f", t.ExitPrice),
			fmt.Sprintf("%d", t.BarsHeld),
			fmt.Sprintf("%.1f", t.PnLPips),
			fmt.Sprintf("$%.2f", t.NetProfit),
			string(t.ExitReason),
		)
	}
	table.Render()
}

// profitFactorLabel renders the no-losses sentinel as INF instead of the
// raw placeholder number.
func profitFactorLabel(pf float64) string {
	if pf >= domain.ProfitFactorSentinel {
		return "INF (no losing trades)"
	}
	return fmt.Sprintf("%.2f", pf)
}
