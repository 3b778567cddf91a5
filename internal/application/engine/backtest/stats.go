package backtest

import (
	"math"

	"simtrader/internal/domain"
)

// computeStats aggregates trades + equity curve into the standard stats
// block. A run with no losing trades reports the profit-factor sentinel
// instead of +Inf.
func computeStats(trades []domain.Trade, initial, final float64, equity []float64, sharpe float64) domain.BacktestStats {
	if len(trades) == 0 {
		return domain.BacktestStats{FinalBalance: domain.Round2(initial)}
	}

	var grossWin, grossLoss float64
	var wins, losses int
	best := math.Inf(-1)
	worst := math.Inf(1)
	for _, t := range trades {
		p := t.NetProfit
		if p > 0 {
			wins++
			grossWin += p
		} else {
			losses++
			grossLoss += -p
		}
		best = math.Max(best, p)
		worst = math.Min(worst, p)
	}

	profitFactor := domain.ProfitFactorSentinel
	if losses > 0 && grossLoss > 0 {
		profitFactor = domain.Round2(grossWin / grossLoss)
	}

	avgWin := 0.0
	if wins > 0 {
		avgWin = domain.Round2(grossWin / float64(wins))
	}
	avgLoss := 0.0
	if losses > 0 {
		avgLoss = domain.Round2(-grossLoss / float64(losses))
	}

	return domain.BacktestStats{
		TotalTrades:   len(trades),
		WinningTrades: wins,
		LosingTrades:  losses,
		WinRate:       domain.Round2(float64(wins) / float64(len(trades)) * 100),
		TotalProfit:   domain.Round2(final - initial),
		ProfitFactor:  profitFactor,
		MaxDrawdown:   maxDrawdown(equity, initial),
		SharpeRatio:   domain.Round2(sharpe),
		AvgWin:        avgWin,
		AvgLoss:       avgLoss,
		BestTrade:     domain.Round2(best),
		WorstTrade:    domain.Round2(worst),
		FinalBalance:  domain.Round2(final),
	}
}

// maxDrawdown is the worst peak-to-trough percentage over the equity curve.
func maxDrawdown(equity []float64, initial float64) float64 {
	peak := initial
	maxDD := 0.0
	for _, eq := range equity {
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			dd := (peak - eq) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return domain.Round2(maxDD)
}

// equitySharpe is a simplified annualized Sharpe figure over per-step equity
// returns. Zero when the curve has no variance.
func equitySharpe(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] != 0 {
			returns = append(returns, (equity[i]-equity[i-1])/equity[i-1])
		}
	}
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(252)
}
