package storage

import (
	"time"

	"simtrader/internal/domain"
)

// StockStrategies is the built-in M1 scalping library seeded into a fresh
// database. Stable ids so API clients can reference them across restarts.
func StockStrategies() []domain.Strategy {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	return []domain.Strategy{
		{
			ID:     "stock-ema-macd",
			Name:   "EMA Cross + MACD Momentum",
			Symbol: "EURUSDm",
			RawDescription: "Buy when the fast EMA is above the slow EMA, MACD histogram " +
				"turns positive, and RSI is above 30 but below 70. Exit when the MACD " +
				"histogram turns negative. 1.5x ATR stop loss, 2.5x ATR take profit on M1.",
			CreatedAt: created,
			Rules: []domain.Rule{
				{
					Name:        "EMA Cross + MACD Momentum",
					Timeframe:   domain.TimeframeM1,
					Direction:   domain.DirectionBuy,
					Description: "EMA crossover confirmed by MACD momentum and RSI filter",
					EntryConditions: []domain.Condition{
						{Indicator: "EMA_20", Parameter: "value", Operator: domain.OpGreater, Ref: "EMA_50",
							Description: "fast EMA above slow EMA (bullish crossover)"},
						{Indicator: "MACD", Parameter: "histogram", Operator: domain.OpGreater, Value: 0,
							Description: "MACD histogram positive (bullish momentum)"},
						{Indicator: "RSI", Parameter: "value", Operator: domain.OpGreater, Value: 30,
							Description: "RSI above 30 (not oversold)"},
						{Indicator: "RSI", Parameter: "value", Operator: domain.OpLess, Value: 70,
							Description: "RSI below 70 (not overbought)"},
					},
					ExitConditions: []domain.Condition{
						{Indicator: "MACD", Parameter: "histogram", Operator: domain.OpLess, Value: 0,
							Description: "MACD histogram turns negative (momentum fading)"},
					},
					StopLossATR:    1.5,
					TakeProfitATR:  2.5,
					MinBarsInTrade: 3,
					RiskPercent:    1.0,
				},
			},
		},
		{
			ID:     "stock-bb-reversion",
			Name:   "BB Mean Reversion + RSI",
			Symbol: "EURUSDm",
			RawDescription: "Buy when price closes below the lower Bollinger Band and RSI " +
				"crosses above 20. Exit when price reaches the middle band. 1.5x ATR stop " +
				"loss, 2x ATR take profit on M1.",
			CreatedAt: created,
			Rules: []domain.Rule{
				{
					Name:        "BB Mean Reversion + RSI",
					Timeframe:   domain.TimeframeM1,
					Direction:   domain.DirectionBuy,
					Description: "buy at lower BB with RSI oversold recovery",
					EntryConditions: []domain.Condition{
						{Indicator: "close", Parameter: "value", Operator: domain.OpLess, Ref: "BB_lower",
							Description: "price below lower Bollinger Band"},
						{Indicator: "RSI", Parameter: "value", Operator: domain.OpCrossesAbove, Value: 20,
							Description: "RSI crosses above 20 (exiting oversold)"},
					},
					ExitConditions: []domain.Condition{
						{Indicator: "close", Parameter: "value", Operator: domain.OpGreater, Ref: "BB_middle",
							Description: "price reaches middle Bollinger Band"},
					},
					StopLossATR:    1.5,
					TakeProfitATR:  2.0,
					MinBarsInTrade: 2,
					RiskPercent:    0.5,
				},
			},
		},
		{
			ID:     "stock-rsi-divergence",
			Name:   "RSI Divergence Scalper",
			Symbol: "EURUSDm",
			RawDescription: "Buy when RSI crosses above 30 from oversold with positive MACD " +
				"histogram. Exit when RSI passes 60. 1.5x ATR stop loss, 2.5x ATR take " +
				"profit on M1.",
			CreatedAt: created,
			Rules: []domain.Rule{
				{
					Name:        "RSI Divergence Scalper",
					Timeframe:   domain.TimeframeM1,
					Direction:   domain.DirectionBuy,
					Description: "counter-trend entry on RSI oversold recovery",
					EntryConditions: []domain.Condition{
						{Indicator: "RSI", Parameter: "value", Operator: domain.OpCrossesAbove, Value: 30,
							Description: "RSI crosses above 30 (recovering from oversold)"},
						{Indicator: "MACD", Parameter: "histogram", Operator: domain.OpGreater, Value: 0,
							Description: "MACD histogram positive (bearish momentum faded)"},
					},
					ExitConditions: []domain.Condition{
						{Indicator: "RSI", Parameter: "value", Operator: domain.OpGreater, Value: 60,
							Description: "RSI above 60 (mean reversion target reached)"},
					},
					StopLossATR:    1.5,
					TakeProfitATR:  2.5,
					MinBarsInTrade: 2,
					RiskPercent:    0.5,
				},
			},
		},
		{
			ID:     "stock-bb-breakout",
			Name:   "BB Squeeze Breakout",
			Symbol: "GBPUSDm",
			RawDescription: "Buy when price breaks above the upper Bollinger Band with price " +
				"above EMA 50 and RSI above 50. Exit when price closes back below the " +
				"middle band. 2x ATR stop loss, 3x ATR take profit on M1.",
			CreatedAt: created,
			Rules: []domain.Rule{
				{
					Name:        "BB Squeeze Breakout",
					Timeframe:   domain.TimeframeM1,
					Direction:   domain.DirectionBuy,
					Description: "breakout above upper BB with trend and momentum confirmation",
					EntryConditions: []domain.Condition{
						{Indicator: "close", Parameter: "value", Operator: domain.OpGreater, Ref: "BB_upper",
							Description: "price breaks above upper Bollinger Band"},
						{Indicator: "close", Parameter: "value", Operator: domain.OpGreater, Ref: "EMA_50",
							Description: "price above EMA 50 (bullish trend bias)"},
						{Indicator: "RSI", Parameter: "value", Operator: domain.OpGreater, Value: 50,
							Description: "RSI above 50 (bullish momentum)"},
					},
					ExitConditions: []domain.Condition{
						{Indicator: "close", Parameter: "value", Operator: domain.OpLess, Ref: "BB_middle",
							Description: "price falls back to middle Bollinger Band"},
					},
					StopLossATR:    2.0,
					TakeProfitATR:  3.0,
					MinBarsInTrade: 2,
					RiskPercent:    1.0,
				},
			},
		},
	}
}
