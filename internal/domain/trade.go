package domain

import (
	"math"
	"time"
)

// ExitReason explains why a position was closed.
type ExitReason string

const (
	ExitStrategy    ExitReason = "strategy_exit"
	ExitStopLoss    ExitReason = "stop_loss"
	ExitTakeProfit  ExitReason = "take_profit"
	ExitAlgoStopped ExitReason = "algo_stopped"
)

// Trade is a closed position record. Append-only; created when a position
// closes (or is force-closed on session stop).
type Trade struct {
	ID        string    `json:"id"`
	Ticket    int       `json:"ticket,omitempty"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Volume    float64   `json:"volume"`

	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`

	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
	ATRAtEntry float64 `json:"atr_at_entry,omitempty"`
	SLATRMult  float64 `json:"sl_atr_multiplier,omitempty"`
	TPATRMult  float64 `json:"tp_atr_multiplier,omitempty"`

	EntryConditions   []Condition        `json:"entry_conditions,omitempty"`
	IndicatorsAtEntry map[string]float64 `json:"indicators_at_entry,omitempty"`
	IndicatorsAtExit  map[string]float64 `json:"indicators_at_exit,omitempty"`

	ExitReason ExitReason `json:"exit_reason"`
	BarsHeld   int        `json:"bars_held"`
	PnLPips    float64    `json:"pnl_pips,omitempty"`
	RuleIndex  int        `json:"rule_index,omitempty"`

	GrossProfit float64 `json:"gross_profit"`
	Commission  float64 `json:"commission"`
	Swap        float64 `json:"swap"`
	NetProfit   float64 `json:"net_profit"`
}

// TradeStats aggregates a list of closed trades.
type TradeStats struct {
	TotalTrades   int                `json:"total_trades"`
	WinningTrades int                `json:"winning_trades"`
	LosingTrades  int                `json:"losing_trades"`
	WinRate       float64            `json:"win_rate"`
	TotalPnL      float64            `json:"total_pnl"`
	AvgPnL        float64            `json:"avg_pnl"`
	AvgBarsHeld   float64            `json:"avg_bars_held"`
	BestTrade     float64            `json:"best_trade"`
	WorstTrade    float64            `json:"worst_trade"`
	ExitReasons   map[ExitReason]int `json:"exit_reasons"`
}

// ComputeTradeStats builds the aggregate view over closed trades.
// Invariants: TotalTrades == WinningTrades + LosingTrades and
// TotalPnL == Σ NetProfit (up to 2-decimal rounding).
func ComputeTradeStats(trades []Trade) TradeStats {
	stats := TradeStats{ExitReasons: make(map[ExitReason]int)}
	if len(trades) == 0 {
		return stats
	}

	totalPnL := 0.0
	totalBars := 0
	best := math.Inf(-1)
	worst := math.Inf(1)
	for _, t := range trades {
		stats.TotalTrades++
		if t.NetProfit > 0 {
			stats.WinningTrades++
		} else {
			stats.LosingTrades++
		}
		totalPnL += t.NetProfit
		totalBars += t.BarsHeld
		best = math.Max(best, t.NetProfit)
		worst = math.Min(worst, t.NetProfit)
		stats.ExitReasons[t.ExitReason]++
	}

	stats.WinRate = Round2(float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100)
	stats.TotalPnL = Round2(totalPnL)
	stats.AvgPnL = Round2(totalPnL / float64(stats.TotalTrades))
	stats.AvgBarsHeld = Round2(float64(totalBars) / float64(stats.TotalTrades))
	stats.BestTrade = Round2(best)
	stats.WorstTrade = Round2(worst)
	return stats
}

// Round2 rounds to 2 decimals, the convention for monetary figures.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundTo rounds v to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
