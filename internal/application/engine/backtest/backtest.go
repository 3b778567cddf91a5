// Package backtest evaluates trading strategies against generated candle
// history. Run produces a quick illustrative result over synthetic trades;
// RunStrategy replays a strategy's rules bar by bar.
package backtest

import (
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"simtrader/internal/domain"
	"simtrader/internal/market"
)

const (
	defaultBalance = 10000.0
	defaultRisk    = 1.0
	defaultSymbol  = "EURUSDm"
	defaultBars    = 500

	minTrades = 15
	maxTrades = 30
	minHold   = 3
	maxHold   = 22

	// pips per full risk unit: a trade that moves this many pips in either
	// direction wins or loses exactly the risked amount.
	riskPips = 50.0

	backtestVolume = 0.10
)

// Engine runs backtests over candles produced by the market generator.
type Engine struct {
	gen *market.Generator
	rng *rand.Rand
}

func NewEngine(gen *market.Generator, rng *rand.Rand) *Engine {
	return &Engine{gen: gen, rng: rng}
}

// Run produces a demonstration backtest: candles come from the generator and
// trades are sampled along them with a positive expectancy, compounding the
// balance by a fixed risk fraction per trade. The result is shaped exactly
// like a strategy replay so downstream reporting needs no special case.
func (e *Engine) Run(initialBalance, riskPercent float64, symbol string, tf domain.Timeframe, barCount int) domain.BacktestResult {
	if initialBalance <= 0 {
		initialBalance = defaultBalance
	}
	if riskPercent <= 0 {
		riskPercent = defaultRisk
	}
	if symbol == "" {
		symbol = defaultSymbol
	}
	if !tf.Valid() {
		tf = domain.TimeframeH1
	}
	if barCount < 100 {
		barCount = defaultBars
	}

	candles := e.gen.Generate(symbol, tf, barCount)

	n := barCount / 25
	if n < minTrades {
		n = minTrades
	}
	if n > maxTrades {
		n = maxTrades
	}
	n += e.rng.Intn(5) - 2
	if n < minTrades {
		n = minTrades
	}
	if n > maxTrades {
		n = maxTrades
	}

	spacing := (barCount - maxHold - 2) / n
	if spacing < 1 {
		spacing = 1
	}

	balance := initialBalance
	equity := []float64{domain.Round2(initialBalance)}
	trades := make([]domain.Trade, 0, n)

	for i := 0; i < n; i++ {
		entryIdx := 1 + i*spacing + e.rng.Intn(3)
		hold := minHold + e.rng.Intn(maxHold-minHold+1)
		exitIdx := entryIdx + hold
		if exitIdx > len(candles)-1 {
			exitIdx = len(candles) - 1
		}
		if entryIdx >= exitIdx {
			break
		}

		// Positive drift: centered above zero so the aggregate run tends
		// to be profitable without every trade winning.
		pips := domain.Round2((e.rng.Float64()*2-1)*riskPips + 9)
		riskAmount := balance * riskPercent / 100
		profit := domain.Round2(riskAmount * pips / riskPips)
		balance += profit
		equity = append(equity, domain.Round2(balance))

		direction := domain.DirectionBuy
		if e.rng.Float64() < 0.5 {
			direction = domain.DirectionSell
		}

		reason := domain.ExitStrategy
		if profit > 0 {
			if e.rng.Float64() < 0.85 {
				reason = domain.ExitTakeProfit
			}
		} else if e.rng.Float64() < 0.8 {
			reason = domain.ExitStopLoss
		}

		entryC, exitC := candles[entryIdx], candles[exitIdx]
		trades = append(trades, domain.Trade{
			ID:          uuid.NewString(),
			Ticket:      100000 + e.rng.Intn(900000),
			Symbol:      symbol,
			Direction:   direction,
			Volume:      backtestVolume,
			EntryPrice:  entryC.Close,
			ExitPrice:   exitC.Close,
			EntryTime:   entryC.Time,
			ExitTime:    exitC.Time,
			ExitReason:  reason,
			BarsHeld:    exitIdx - entryIdx,
			PnLPips:     pips,
			GrossProfit: profit,
			NetProfit:   profit,
		})
	}

	sharpe := -0.4 + e.rng.Float64()*0.9
	if balance > initialBalance {
		sharpe = 0.8 + e.rng.Float64()*1.6
	}

	result := domain.BacktestResult{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Trades:      trades,
		Stats:       computeStats(trades, initialBalance, balance, equity, sharpe),
		EquityCurve: equity,
		Candles:     candles,
	}
	slog.Info("backtest: run complete",
		"symbol", symbol, "bars", barCount,
		"trades", len(trades), "final_balance", result.Stats.FinalBalance)
	return result
}
