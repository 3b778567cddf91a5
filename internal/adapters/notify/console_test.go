package notify_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"simtrader/internal/adapters/notify"
	"simtrader/internal/domain"
)

func sampleTrades() []domain.Trade {
	now := time.Now().UTC()
	return []domain.Trade{
		{
			ID: "t1", Symbol: "EURUSDm", Direction: domain.DirectionBuy,
			EntryPrice: 1.0850, ExitPrice: 1.0862,
			EntryTime: now.Add(-10 * time.Minute), ExitTime: now,
			ExitReason: domain.ExitTakeProfit, BarsHeld: 9,
			PnLPips: 12, NetProfit: 11.93,
		},
		{
			ID: "t2", Symbol: "EURUSDm", Direction: domain.DirectionSell,
			EntryPrice: 1.0860, ExitPrice: 1.0868,
			EntryTime: now.Add(-5 * time.Minute), ExitTime: now,
			ExitReason: domain.ExitStopLoss, BarsHeld: 4,
			PnLPips: -8, NetProfit: -8.07,
		},
	}
}

func TestConsole_TradeReport(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	trades := sampleTrades()
	c.TradeReport(trades, domain.ComputeTradeStats(trades))

	out := buf.String()
	assert.Contains(t, out, "2 trades")
	assert.Contains(t, out, "take_profit")
	assert.Contains(t, out, "stop_loss")
	assert.Contains(t, out, "$11.93")
}

func TestConsole_TradeReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.TradeReport(nil, domain.TradeStats{})
	assert.Contains(t, buf.String(), "no closed trades")
}

func TestConsole_BacktestReportSentinel(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.BacktestReport(domain.BacktestResult{
		Symbol: "EURUSDm",
		Trades: sampleTrades()[:1],
		Stats: domain.BacktestStats{
			TotalTrades:   1,
			WinningTrades: 1,
			WinRate:       100,
			ProfitFactor:  domain.ProfitFactorSentinel,
			FinalBalance:  10011.93,
		},
		EquityCurve: []float64{10000, 10011.93},
	})

	out := buf.String()
	assert.Contains(t, out, "INF (no losing trades)")
	assert.Contains(t, out, "$10011.93")
}
