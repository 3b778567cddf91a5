package domain

// ProfitFactorSentinel is reported instead of +Inf when a backtest has no
// losing trades.
const ProfitFactorSentinel = 999.99

// BacktestStats summarises a backtest run. Monetary figures are rounded to
// 2 decimals; win rate and drawdown are percentages.
type BacktestStats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalProfit   float64 `json:"total_profit"`
	ProfitFactor  float64 `json:"profit_factor"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
	FinalBalance  float64 `json:"final_balance"`
}

// BacktestResult is produced atomically by the backtest engine and immutable
// once returned. EquityCurve[0] is the initial balance and its length is
// always len(Trades)+1.
type BacktestResult struct {
	ID          string        `json:"id"`
	Symbol      string        `json:"symbol"`
	Trades      []Trade       `json:"trades"`
	Stats       BacktestStats `json:"stats"`
	EquityCurve []float64     `json:"equity_curve"`
	Candles     []Candle      `json:"candles,omitempty"`
}
