package indicators_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simtrader/internal/indicators"
)

func constantSeries(v float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func randomWalk(rng *rand.Rand, start float64, n int) []float64 {
	s := make([]float64, n)
	p := start
	for i := range s {
		p += (rng.Float64()*2 - 1) * 0.001
		s[i] = p
	}
	return s
}

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	assert.InDelta(t, 4.0, indicators.SMA(closes, 3), 1e-9) // (3+4+5)/3
	assert.InDelta(t, 3.0, indicators.SMA(closes, 10), 1e-9)
	assert.Equal(t, 0.0, indicators.SMA(nil, 3))
}

func TestEMA_ConvergesToConstant(t *testing.T) {
	closes := constantSeries(1.0850, 100)
	assert.InDelta(t, 1.0850, indicators.EMA(closes, 20), 1e-9)

	// shorter than the period: fall back to the last close
	assert.InDelta(t, 1.0850, indicators.EMA(closes[:5], 20), 1e-9)
}

func TestEMA_TracksTrend(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 1.0 + float64(i)*0.001
	}
	fast := indicators.EMA(closes, 20)
	slow := indicators.EMA(closes, 50)

	// in a steady uptrend the fast EMA sits above the slow one
	assert.Greater(t, fast, slow)
	assert.Less(t, fast, closes[len(closes)-1])
}

func TestRSI_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		closes := randomWalk(rng, 1.0850, 80)
		rsi := indicators.RSI(closes, 14)
		assert.GreaterOrEqual(t, rsi, 0.0)
		assert.LessOrEqual(t, rsi, 100.0)
	}
}

func TestRSI_Degenerate(t *testing.T) {
	// short history: neutral
	assert.Equal(t, 50.0, indicators.RSI([]float64{1, 2, 3}, 14))

	// monotone rise: no losses, capped at 100
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 1.0 + float64(i)*0.01
	}
	assert.Equal(t, 100.0, indicators.RSI(closes, 14))
}

func TestBollinger_ConstantSeries(t *testing.T) {
	closes := constantSeries(2035.0, 40)
	upper, middle, lower := indicators.Bollinger(closes, 20, 2)

	assert.InDelta(t, 2035.0, middle, 1e-9)
	assert.InDelta(t, upper, lower, 1e-9) // zero deviation collapses the bands
}

func TestBollinger_Ordering(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	closes := randomWalk(rng, 1.2650, 60)
	upper, middle, lower := indicators.Bollinger(closes, 20, 2)

	assert.Greater(t, upper, middle)
	assert.Less(t, lower, middle)
}

func TestMACD_FlatSeriesIsZero(t *testing.T) {
	line, signal, hist := indicators.MACD(constantSeries(1.0850, 100), 20, 50, 9)
	assert.InDelta(t, 0.0, line, 1e-9)
	assert.InDelta(t, 0.0, signal, 1e-9)
	assert.InDelta(t, 0.0, hist, 1e-9)
}

func TestMACD_UptrendPositive(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 1.0 + float64(i)*0.002
	}
	line, _, _ := indicators.MACD(closes, 20, 50, 9)
	assert.Greater(t, line, 0.0)
}

func TestTrueATR(t *testing.T) {
	highs := []float64{0, 1.0860, 1.0872, 1.0865}
	lows := []float64{0, 1.0840, 1.0850, 1.0845}
	closes := []float64{1.0850, 1.0855, 1.0860, 1.0850}

	atr := indicators.TrueATR(highs, lows, closes, 14)
	require.Greater(t, atr, 0.0)

	// fewer TRs than the period: plain mean of the three true ranges
	tr1 := 1.0860 - 1.0840
	tr2 := 1.0872 - 1.0850
	tr3 := 1.0865 - 1.0845
	assert.InDelta(t, (tr1+tr2+tr3)/3, atr, 1e-9)
}

func TestTrueATR_ShortHistory(t *testing.T) {
	assert.Equal(t, 0.0, indicators.TrueATR([]float64{1}, []float64{1}, []float64{1}, 14))
	assert.Equal(t, 0.0, indicators.TrueATR(nil, nil, nil, 14))
}

func TestSnapshot_KeysAndRounding(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	closes := randomWalk(rng, 1.0850, 120)
	snap := indicators.Snapshot(closes, closes, closes, 5)

	for _, key := range []string{
		"RSI_14", "SMA_20", "EMA_20", "EMA_50",
		"BB_upper", "BB_middle", "BB_lower",
		"MACD_line", "MACD_signal", "MACD_histogram", "ATR_14",
	} {
		_, ok := snap[key]
		assert.True(t, ok, "missing key %s", key)
	}

	assert.GreaterOrEqual(t, snap["RSI_14"], 0.0)
	assert.LessOrEqual(t, snap["RSI_14"], 100.0)
	assert.GreaterOrEqual(t, snap["BB_upper"], snap["BB_lower"])
}

func TestSnapshot_Empty(t *testing.T) {
	assert.Empty(t, indicators.Snapshot(nil, nil, nil, 5))
}
