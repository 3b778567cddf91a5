package ports

import (
	"context"

	"simtrader/internal/domain"
)

// TradeRecorder persists closed trades and backtest runs. Persistence is
// best-effort: the engine logs failures and keeps going.
type TradeRecorder interface {
	SaveTrade(ctx context.Context, t domain.Trade) error
	SaveBacktest(ctx context.Context, r domain.BacktestResult) error
}
