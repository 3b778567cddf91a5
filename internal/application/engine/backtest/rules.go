package backtest

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"simtrader/internal/domain"
	"simtrader/internal/market"
)

const fallbackStopPips = 50.0

// RunStrategy replays a strategy's rules over the given candles: enter at the
// close of the first bar where every entry condition of a rule holds, exit on
// stop-loss, take-profit or (after the rule's minimum hold) its exit
// conditions. Position sizing risks a fixed percentage of the running balance
// per trade, scaled by the stop distance.
func (e *Engine) RunStrategy(strat domain.Strategy, candles []domain.Candle, initialBalance, riskPercent float64) domain.BacktestResult {
	if initialBalance <= 0 {
		initialBalance = defaultBalance
	}
	if riskPercent <= 0 {
		riskPercent = defaultRisk
	}
	symbol := strat.Symbol
	if symbol == "" {
		symbol = defaultSymbol
	}
	pipSize := market.MetaFor(symbol).PipSize

	balance := initialBalance
	equity := []float64{domain.Round2(initialBalance)}
	var trades []domain.Trade

	inPos := false
	var (
		ruleIdx    int
		rule       domain.Rule
		entryIdx   int
		entryPrice float64
		slPips     float64
		tpPips     float64
		riskAmount float64
	)

	closeTrade := func(i int, pnlPips float64, reason domain.ExitReason) {
		profit := domain.Round2(riskAmount * pnlPips / slPips)
		balance += profit
		equity = append(equity, domain.Round2(balance))
		trades = append(trades, domain.Trade{
			ID:                uuid.NewString(),
			Symbol:            symbol,
			Direction:         rule.Direction,
			Volume:            backtestVolume,
			EntryPrice:        entryPrice,
			ExitPrice:         candles[i].Close,
			EntryTime:         candles[entryIdx].Time,
			ExitTime:          candles[i].Time,
			IndicatorsAtEntry: candles[entryIdx].Indicators,
			IndicatorsAtExit:  candles[i].Indicators,
			ExitReason:        reason,
			BarsHeld:          i - entryIdx,
			PnLPips:           domain.Round2(pnlPips),
			RuleIndex:         ruleIdx,
			GrossProfit:       profit,
			NetProfit:         profit,
		})
		inPos = false
	}

	for i := 1; i < len(candles); i++ {
		cur, prev := candles[i], candles[i-1]

		if !inPos {
			for ri, r := range strat.Rules {
				if len(r.EntryConditions) == 0 {
					continue
				}
				if !allConditionsHold(r.EntryConditions, cur, prev) {
					continue
				}
				ruleIdx, rule = ri, r
				entryIdx = i
				entryPrice = cur.Close
				slPips, tpPips = ruleStopPips(r, cur, pipSize)
				riskAmount = balance * riskPercent / 100
				inPos = true
				break
			}
			continue
		}

		pnlPips := (cur.Close - entryPrice) / pipSize
		if rule.Direction == domain.DirectionSell {
			pnlPips = -pnlPips
		}

		switch {
		case pnlPips <= -slPips:
			closeTrade(i, -slPips, domain.ExitStopLoss)
		case pnlPips >= tpPips:
			closeTrade(i, tpPips, domain.ExitTakeProfit)
		case i-entryIdx >= rule.MinBarsInTrade &&
			len(rule.ExitConditions) > 0 &&
			allConditionsHold(rule.ExitConditions, cur, prev):
			closeTrade(i, pnlPips, domain.ExitStrategy)
		}
	}

	if inPos {
		last := len(candles) - 1
		pnlPips := (candles[last].Close - entryPrice) / pipSize
		if rule.Direction == domain.DirectionSell {
			pnlPips = -pnlPips
		}
		closeTrade(last, pnlPips, domain.ExitStrategy)
	}

	result := domain.BacktestResult{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Trades:      trades,
		Stats:       computeStats(trades, initialBalance, balance, equity, equitySharpe(equity)),
		EquityCurve: equity,
		Candles:     candles,
	}
	slog.Info("backtest: strategy replay complete",
		"strategy", strat.Name, "symbol", symbol,
		"bars", len(candles), "trades", len(trades),
		"final_balance", result.Stats.FinalBalance)
	return result
}

// ruleStopPips converts a rule's risk settings into pip distances. ATR
// multiples win over fixed pips when the bar carries an ATR value.
func ruleStopPips(r domain.Rule, c domain.Candle, pipSize float64) (sl, tp float64) {
	atr := c.Indicators["ATR_14"]
	if r.StopLossATR > 0 && atr > 0 {
		sl = atr * r.StopLossATR / pipSize
	} else if r.StopLossPips > 0 {
		sl = r.StopLossPips
	} else {
		sl = fallbackStopPips
	}
	if r.TakeProfitATR > 0 && atr > 0 {
		tp = atr * r.TakeProfitATR / pipSize
	} else if r.TakeProfitPips > 0 {
		tp = r.TakeProfitPips
	} else {
		tp = sl * 2
	}
	return sl, tp
}

func allConditionsHold(conds []domain.Condition, cur, prev domain.Candle) bool {
	for _, c := range conds {
		if !evaluateCondition(c, cur, prev) {
			return false
		}
	}
	return true
}

// evaluateCondition tests one condition against the current bar. Crossing
// operators additionally look at the previous bar: a cross happens only when
// the relation did not hold there.
func evaluateCondition(cond domain.Condition, cur, prev domain.Candle) bool {
	key := resolveKey(cond.Indicator, cond.Parameter)
	val, ok := seriesValue(cur, key)
	if !ok {
		return false
	}

	target := cond.Value
	prevTarget := cond.Value
	if cond.Ref != "" {
		refKey := resolveKey(cond.Ref, "value")
		t, ok := seriesValue(cur, refKey)
		if !ok {
			return false
		}
		target = t
		if pt, ok := seriesValue(prev, refKey); ok {
			prevTarget = pt
		} else {
			prevTarget = t
		}
	}

	switch cond.Operator {
	case domain.OpGreater:
		return val > target
	case domain.OpLess:
		return val < target
	case domain.OpEquals:
		return val == target
	case domain.OpGreaterEq:
		return val >= target
	case domain.OpLessEq:
		return val <= target
	case domain.OpCrossesAbove:
		pv, ok := seriesValue(prev, key)
		return ok && pv <= prevTarget && val > target
	case domain.OpCrossesBelow:
		pv, ok := seriesValue(prev, key)
		return ok && pv >= prevTarget && val < target
	}
	return false
}

// resolveKey maps a condition's indicator/parameter pair onto the snapshot
// key naming. Names that already carry a period suffix pass through.
func resolveKey(indicator, parameter string) string {
	if strings.Contains(indicator, "_") {
		return indicator
	}
	switch strings.ToLower(indicator) {
	case "rsi":
		return "RSI_14"
	case "sma":
		return "SMA_20"
	case "ema":
		return "EMA_50"
	case "atr":
		return "ATR_14"
	case "macd":
		switch strings.ToLower(parameter) {
		case "signal":
			return "MACD_signal"
		case "histogram", "hist":
			return "MACD_histogram"
		default:
			return "MACD_line"
		}
	case "bollinger", "bb":
		switch strings.ToLower(parameter) {
		case "upper":
			return "BB_upper"
		case "lower":
			return "BB_lower"
		default:
			return "BB_middle"
		}
	case "close", "open", "high", "low", "volume", "price":
		return strings.ToLower(indicator)
	}
	return indicator
}

func seriesValue(c domain.Candle, key string) (float64, bool) {
	switch key {
	case "close", "price":
		return c.Close, true
	case "open":
		return c.Open, true
	case "high":
		return c.High, true
	case "low":
		return c.Low, true
	case "volume":
		return c.Volume, true
	}
	v, ok := c.Indicators[key]
	return v, ok
}
