package market

import (
	"math"
	"math/rand"
	"time"

	"simtrader/internal/domain"
	"simtrader/internal/indicators"
)

// Generator synthesizes historical OHLCV series for an instrument/timeframe
// pair. Deterministic under a seeded random source.
type Generator struct {
	feed *Feed
	rng  *rand.Rand
}

// NewGenerator builds a candle generator that hands its final close back to
// the price feed.
func NewGenerator(feed *Feed, rng *rand.Rand) *Generator {
	return &Generator{feed: feed, rng: rng}
}

// barVolatility scales the per-tick volatility up to a bar of the given
// timeframe (square-root-of-time rule).
func barVolatility(m SymbolMeta, tf domain.Timeframe) float64 {
	minutes := tf.Duration().Minutes()
	return m.Volatility * 6 * math.Sqrt(minutes)
}

// Generate returns exactly count candles in strictly increasing time order,
// ending one interval before now. Each bar's indicator values are computed
// only from the closes up to and including that bar, with no lookahead. After
// generation the feed's current price for the symbol is reset to the final
// close so a live session continues from history.
func (g *Generator) Generate(symbol string, tf domain.Timeframe, count int) []domain.Candle {
	if count <= 0 {
		return nil
	}

	m := MetaFor(symbol)
	interval := tf.Duration()
	vol := barVolatility(m, tf)
	start := time.Now().UTC().Truncate(interval).Add(-time.Duration(count) * interval)

	closes := make([]float64, 0, count)
	highs := make([]float64, 0, count)
	lows := make([]float64, 0, count)
	candles := make([]domain.Candle, 0, count)

	price := m.Base
	for i := 0; i < count; i++ {
		open := price
		move := (g.rng.Float64()*2 - 1) * vol
		clse := open + move + (m.Base-open)*meanReversionK
		high := math.Max(open, clse) + g.rng.Float64()*vol*0.5
		low := math.Min(open, clse) - g.rng.Float64()*vol*0.5
		volume := 100 + g.rng.Float64()*9900

		open = domain.RoundTo(open, m.Decimals)
		clse = domain.RoundTo(clse, m.Decimals)
		high = domain.RoundTo(high, m.Decimals)
		low = domain.RoundTo(low, m.Decimals)

		closes = append(closes, clse)
		highs = append(highs, high)
		lows = append(lows, low)

		candles = append(candles, domain.Candle{
			Time:       start.Add(time.Duration(i) * interval),
			Open:       open,
			High:       high,
			Low:        low,
			Close:      clse,
			Volume:     math.Round(volume),
			Indicators: indicators.Snapshot(closes, highs, lows, m.Decimals),
		})
		price = clse
	}

	g.feed.SetPrice(symbol, closes[len(closes)-1])
	return candles
}
