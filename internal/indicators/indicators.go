package indicators

// Pure indicator math over finite, time-ordered price slices. The newest
// value is always the last element. None of these functions mutate their
// inputs and all of them degrade to a sensible value on short histories
// instead of erroring.

import "math"

// Default periods used by the snapshot and the condition evaluator.
const (
	RSIPeriod    = 14
	SMAPeriod    = 20
	EMAFast      = 20
	EMASlow      = 50
	MACDSignal   = 9
	BBPeriod     = 20
	BBStdDevs    = 2.0
	ATRPeriod    = 14
)

// SMA is the arithmetic mean of the trailing period closes, or of the whole
// series when fewer are available.
func SMA(closes []float64, period int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if period <= 0 || period > len(closes) {
		period = len(closes)
	}
	sum := 0.0
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period)
}

// EMA applies exponential smoothing with alpha = 2/(period+1), seeded at the
// first close. Histories shorter than the period return the last close.
func EMA(closes []float64, period int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if period <= 0 || len(closes) < period {
		return closes[len(closes)-1]
	}
	alpha := 2.0 / (float64(period) + 1)
	ema := closes[0]
	for _, c := range closes[1:] {
		ema = alpha*c + (1-alpha)*ema
	}
	return ema
}

// StdDev is the population standard deviation of the trailing window.
func StdDev(closes []float64, period int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if period <= 0 || period > len(closes) {
		period = len(closes)
	}
	window := closes[len(closes)-period:]
	mean := 0.0
	for _, c := range window {
		mean += c
	}
	mean /= float64(len(window))

	variance := 0.0
	for _, c := range window {
		d := c - mean
		variance += d * d
	}
	variance /= float64(len(window))
	return math.Sqrt(variance)
}

// Bollinger returns the upper, middle and lower band: SMA(period) ± k·stddev.
func Bollinger(closes []float64, period int, k float64) (upper, middle, lower float64) {
	middle = SMA(closes, period)
	dev := StdDev(closes, period) * k
	return middle + dev, middle, middle - dev
}

// RSI is a Wilder-style relative strength index over the trailing window.
// Returns the neutral 50 when history is shorter than period+1, and caps at
// 100 when the window contains no losses (never a division by zero).
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}
	gain := 0.0
	loss := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

// MACD derives the line from the spread between a fast and slow EMA,
// normalized against the slow EMA so magnitudes stay comparable across
// instrument classes, with an EMA(signalPeriod) of the line series as signal.
// Histogram is line − signal.
func MACD(closes []float64, fast, slow, signalPeriod int) (line, signal, histogram float64) {
	if len(closes) == 0 {
		return 0, 0, 0
	}

	alphaFast := 2.0 / (float64(fast) + 1)
	alphaSlow := 2.0 / (float64(slow) + 1)
	alphaSig := 2.0 / (float64(signalPeriod) + 1)

	emaFast := closes[0]
	emaSlow := closes[0]
	lineSeries := 0.0
	signal = 0.0
	for i, c := range closes {
		if i > 0 {
			emaFast = alphaFast*c + (1-alphaFast)*emaFast
			emaSlow = alphaSlow*c + (1-alphaSlow)*emaSlow
		}
		lineSeries = 0.0
		if emaSlow != 0 {
			lineSeries = (emaFast - emaSlow) / emaSlow * 100
		}
		if i == 0 {
			signal = lineSeries
		} else {
			signal = alphaSig*lineSeries + (1-alphaSig)*signal
		}
	}
	line = lineSeries
	return line, signal, line - signal
}

// TrueATR is the Wilder average true range over high/low/close history.
// Returns 0 when fewer than two bars are available.
func TrueATR(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if n < 2 || len(highs) != n || len(lows) != n || period <= 0 {
		return 0
	}

	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		tr := highs[i] - lows[i]
		tr = math.Max(tr, math.Abs(highs[i]-closes[i-1]))
		tr = math.Max(tr, math.Abs(lows[i]-closes[i-1]))
		trs = append(trs, tr)
	}

	if len(trs) <= period {
		sum := 0.0
		for _, tr := range trs {
			sum += tr
		}
		return sum / float64(len(trs))
	}

	atr := 0.0
	for _, tr := range trs[:period] {
		atr += tr
	}
	atr /= float64(period)
	for _, tr := range trs[period:] {
		atr = (atr*float64(period-1) + tr) / float64(period)
	}
	return atr
}
