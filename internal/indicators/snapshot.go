package indicators

import "simtrader/internal/domain"

// Snapshot computes the full indicator set over a close-price history (plus
// high/low history for ATR) and returns it keyed by the conventional column
// names. Price-level outputs are rounded to the instrument's display
// decimals, RSI to 2 and the MACD family to 4.
func Snapshot(closes, highs, lows []float64, priceDecimals int) map[string]float64 {
	if len(closes) == 0 {
		return map[string]float64{}
	}

	rp := func(v float64) float64 { return domain.RoundTo(v, priceDecimals) }

	upper, middle, lower := Bollinger(closes, BBPeriod, BBStdDevs)
	line, signal, hist := MACD(closes, EMAFast, EMASlow, MACDSignal)

	return map[string]float64{
		"RSI_14":         domain.RoundTo(RSI(closes, RSIPeriod), 2),
		"SMA_20":         rp(SMA(closes, SMAPeriod)),
		"EMA_20":         rp(EMA(closes, EMAFast)),
		"EMA_50":         rp(EMA(closes, EMASlow)),
		"BB_upper":       rp(upper),
		"BB_middle":      rp(middle),
		"BB_lower":       rp(lower),
		"MACD_line":      domain.RoundTo(line, 4),
		"MACD_signal":    domain.RoundTo(signal, 4),
		"MACD_histogram": domain.RoundTo(hist, 4),
		"ATR_14":         rp(TrueATR(highs, lows, closes, ATRPeriod)),
	}
}
