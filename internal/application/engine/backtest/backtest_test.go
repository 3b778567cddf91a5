package backtest_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simtrader/internal/application/engine/backtest"
	"simtrader/internal/domain"
	"simtrader/internal/market"
)

func newEngine(seed int64) *backtest.Engine {
	rng := rand.New(rand.NewSource(seed))
	feed := market.NewFeed(rng)
	return backtest.NewEngine(market.NewGenerator(feed, rng), rng)
}

func TestRun_EquityCurveInvariants(t *testing.T) {
	e := newEngine(1)
	r := e.Run(10000, 1.0, "EURUSDm", domain.TimeframeH1, 500)

	require.NotEmpty(t, r.Trades)
	require.Len(t, r.EquityCurve, len(r.Trades)+1)
	assert.InDelta(t, 10000, r.EquityCurve[0], 1e-9)
	assert.InDelta(t, r.EquityCurve[len(r.EquityCurve)-1], r.Stats.FinalBalance, 0.011)
	assert.Len(t, r.Candles, 500)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "EURUSDm", r.Symbol)
}

func TestRun_TradeShape(t *testing.T) {
	e := newEngine(2)
	r := e.Run(10000, 1.0, "GBPUSDm", domain.TimeframeH1, 500)

	assert.GreaterOrEqual(t, len(r.Trades), 15)
	assert.LessOrEqual(t, len(r.Trades), 30)

	for i, tr := range r.Trades {
		assert.NotEmpty(t, tr.ID, "trade %d", i)
		assert.Equal(t, "GBPUSDm", tr.Symbol, "trade %d", i)
		assert.GreaterOrEqual(t, tr.BarsHeld, 1, "trade %d", i)
		assert.LessOrEqual(t, tr.BarsHeld, 22, "trade %d", i)
		assert.True(t, tr.ExitTime.After(tr.EntryTime), "trade %d", i)
		assert.Contains(t, []domain.ExitReason{
			domain.ExitStrategy, domain.ExitStopLoss, domain.ExitTakeProfit,
		}, tr.ExitReason, "trade %d", i)

		if tr.NetProfit > 0 {
			assert.NotEqual(t, domain.ExitStopLoss, tr.ExitReason, "trade %d", i)
		} else {
			assert.NotEqual(t, domain.ExitTakeProfit, tr.ExitReason, "trade %d", i)
		}
	}
}

func TestRun_StatsConsistency(t *testing.T) {
	e := newEngine(3)
	r := e.Run(10000, 1.0, "EURUSDm", domain.TimeframeH1, 500)

	s := r.Stats
	assert.Equal(t, len(r.Trades), s.TotalTrades)
	assert.Equal(t, s.TotalTrades, s.WinningTrades+s.LosingTrades)
	assert.GreaterOrEqual(t, s.WinRate, 0.0)
	assert.LessOrEqual(t, s.WinRate, 100.0)
	assert.GreaterOrEqual(t, s.MaxDrawdown, 0.0)
	assert.InDelta(t, s.FinalBalance-10000, s.TotalProfit, 0.011)

	if s.LosingTrades == 0 {
		assert.InDelta(t, domain.ProfitFactorSentinel, s.ProfitFactor, 1e-9)
	} else {
		assert.Greater(t, s.ProfitFactor, 0.0)
	}
	assert.GreaterOrEqual(t, s.BestTrade, s.WorstTrade)
}

func TestRun_Defaults(t *testing.T) {
	e := newEngine(4)
	r := e.Run(0, 0, "", "", 0)

	assert.Equal(t, "EURUSDm", r.Symbol)
	assert.InDelta(t, 10000, r.EquityCurve[0], 1e-9)
	assert.Len(t, r.Candles, 500)
}

// rigged builds a candle series with hand-set indicator values so rule
// evaluation is fully deterministic.
func rigged(closes []float64, rsi []float64) []domain.Candle {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  c, High: c, Low: c, Close: c,
			Indicators: map[string]float64{"RSI_14": rsi[i]},
		}
	}
	return out
}

func alwaysRule(minBars int) domain.Rule {
	return domain.Rule{
		Name:      "always in",
		Timeframe: domain.TimeframeM1,
		Direction: domain.DirectionBuy,
		EntryConditions: []domain.Condition{
			{Indicator: "RSI", Parameter: "value", Operator: domain.OpGreater, Value: 0},
		},
		ExitConditions: []domain.Condition{
			{Indicator: "RSI", Parameter: "value", Operator: domain.OpLess, Value: 1000},
		},
		StopLossPips:   1000,
		TakeProfitPips: 2000,
		MinBarsInTrade: minBars,
		RiskPercent:    1.0,
	}
}

func TestRunStrategy_MinBarsGatesStrategyExit(t *testing.T) {
	e := newEngine(5)

	closes := []float64{1.0, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0}
	rsi := []float64{50, 50, 50, 50, 50, 50, 50, 50}
	strat := domain.Strategy{
		Name: "test", Symbol: "EURUSDm",
		Rules: []domain.Rule{alwaysRule(3)},
	}

	r := e.RunStrategy(strat, rigged(closes, rsi), 10000, 1.0)

	require.NotEmpty(t, r.Trades)
	first := r.Trades[0]
	assert.Equal(t, domain.ExitStrategy, first.ExitReason)
	// exit conditions hold from the start but the minimum hold delays them
	assert.GreaterOrEqual(t, first.BarsHeld, 3)
	require.Len(t, r.EquityCurve, len(r.Trades)+1)
}

func TestRunStrategy_StopLossCapsPips(t *testing.T) {
	e := newEngine(6)

	// entry at bar 1 (close 1.0000), crash far past the 50-pip stop
	closes := []float64{1.0000, 1.0000, 0.9900, 0.9900}
	rsi := []float64{50, 50, 50, 50}
	rule := alwaysRule(10)
	rule.StopLossPips = 50
	rule.TakeProfitPips = 100
	strat := domain.Strategy{Name: "sl", Symbol: "EURUSDm", Rules: []domain.Rule{rule}}

	r := e.RunStrategy(strat, rigged(closes, rsi), 10000, 1.0)

	require.NotEmpty(t, r.Trades)
	tr := r.Trades[0]
	assert.Equal(t, domain.ExitStopLoss, tr.ExitReason)
	assert.InDelta(t, -50, tr.PnLPips, 1e-9)
	// 1% risk over the full stop distance loses exactly the risk amount
	assert.InDelta(t, -100, tr.NetProfit, 1e-9)
}

func TestRunStrategy_CrossesAbove(t *testing.T) {
	e := newEngine(7)

	closes := []float64{1.0, 1.0, 1.0, 1.0, 1.0}
	rsi := []float64{40, 45, 60, 60, 60}
	strat := domain.Strategy{
		Name: "cross", Symbol: "EURUSDm",
		Rules: []domain.Rule{{
			Name:      "rsi cross",
			Timeframe: domain.TimeframeM1,
			Direction: domain.DirectionBuy,
			EntryConditions: []domain.Condition{
				{Indicator: "RSI", Parameter: "value", Operator: domain.OpCrossesAbove, Value: 50},
			},
			StopLossPips:   1000,
			TakeProfitPips: 2000,
			RiskPercent:    1.0,
		}},
	}

	r := e.RunStrategy(strat, rigged(closes, rsi), 10000, 1.0)

	// the cross only happens at index 2 (45 -> 60 across the 50 line)
	require.NotEmpty(t, r.Trades)
	assert.Equal(t, rigged(closes, rsi)[2].Time, r.Trades[0].EntryTime)
}

func TestRunStrategy_NoSignalsNoTrades(t *testing.T) {
	e := newEngine(8)

	closes := []float64{1.0, 1.0, 1.0}
	rsi := []float64{50, 50, 50}
	strat := domain.Strategy{
		Name: "never", Symbol: "EURUSDm",
		Rules: []domain.Rule{{
			Name:      "never in",
			Timeframe: domain.TimeframeM1,
			Direction: domain.DirectionBuy,
			EntryConditions: []domain.Condition{
				{Indicator: "RSI", Parameter: "value", Operator: domain.OpGreater, Value: 1000},
			},
		}},
	}

	r := e.RunStrategy(strat, rigged(closes, rsi), 10000, 1.0)

	assert.Empty(t, r.Trades)
	assert.Equal(t, []float64{10000}, r.EquityCurve)
	assert.InDelta(t, 10000, r.Stats.FinalBalance, 1e-9)
}
