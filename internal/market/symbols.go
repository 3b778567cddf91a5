package market

import "strings"

// Class groups instruments with similar price magnitudes and tick behavior.
type Class string

const (
	ClassFXMajor Class = "fx_major"
	ClassFXJPY   Class = "fx_jpy"
	ClassMetal   Class = "metal"
	ClassCrypto  Class = "crypto"
	ClassIndex   Class = "index"
)

// SymbolMeta is the per-instrument configuration the price process and
// candle generator work from. Decimals is the display precision used for
// indicator rounding: 2 for "big" instruments (JPY pairs, metals, crypto,
// indices), 5 for everything else.
type SymbolMeta struct {
	Symbol     string
	Class      Class
	Base       float64 // long-run reference price the feed reverts toward
	Spread     float64
	PipSize    float64
	Volatility float64 // per-tick move scale, in price units
	Decimals   int
}

// ATRProxy is the volatility scalar reported as ATR when no candle history
// exists: a bar-scale multiple of the configured tick volatility.
func (m SymbolMeta) ATRProxy() float64 {
	return m.Volatility * 12
}

var symbolTable = map[string]SymbolMeta{
	"EURUSDm": {Symbol: "EURUSDm", Class: ClassFXMajor, Base: 1.0850, Spread: 0.00012, PipSize: 0.0001, Volatility: 0.00009, Decimals: 5},
	"GBPUSDm": {Symbol: "GBPUSDm", Class: ClassFXMajor, Base: 1.2650, Spread: 0.00018, PipSize: 0.0001, Volatility: 0.00011, Decimals: 5},
	"AUDUSDm": {Symbol: "AUDUSDm", Class: ClassFXMajor, Base: 0.6550, Spread: 0.00014, PipSize: 0.0001, Volatility: 0.00008, Decimals: 5},
	"USDJPYm": {Symbol: "USDJPYm", Class: ClassFXJPY, Base: 149.50, Spread: 0.016, PipSize: 0.01, Volatility: 0.011, Decimals: 2},
	"XAUUSDm": {Symbol: "XAUUSDm", Class: ClassMetal, Base: 2035.0, Spread: 0.35, PipSize: 0.1, Volatility: 0.22, Decimals: 2},
	"XAGUSDm": {Symbol: "XAGUSDm", Class: ClassMetal, Base: 24.80, Spread: 0.03, PipSize: 0.01, Volatility: 0.012, Decimals: 2},
	"BTCUSDm": {Symbol: "BTCUSDm", Class: ClassCrypto, Base: 67500, Spread: 24.0, PipSize: 1.0, Volatility: 21.0, Decimals: 2},
	"ETHUSDm": {Symbol: "ETHUSDm", Class: ClassCrypto, Base: 3250, Spread: 2.4, PipSize: 0.1, Volatility: 1.6, Decimals: 2},
	"US30m":   {Symbol: "US30m", Class: ClassIndex, Base: 38750, Spread: 3.5, PipSize: 1.0, Volatility: 2.8, Decimals: 2},
	"NAS100m": {Symbol: "NAS100m", Class: ClassIndex, Base: 17650, Spread: 2.8, PipSize: 1.0, Volatility: 2.4, Decimals: 2},
}

// MetaFor resolves instrument metadata for a symbol. Unknown symbols get a
// class inferred from the name so the feed never fails on a new instrument.
func MetaFor(symbol string) SymbolMeta {
	if m, ok := symbolTable[symbol]; ok {
		return m
	}

	upper := strings.ToUpper(symbol)
	m := SymbolMeta{Symbol: symbol}
	switch {
	case strings.Contains(upper, "JPY"):
		m.Class, m.Base, m.Spread, m.PipSize, m.Volatility, m.Decimals =
			ClassFXJPY, 150.0, 0.02, 0.01, 0.012, 2
	case strings.Contains(upper, "XAU") || strings.Contains(upper, "XAG"):
		m.Class, m.Base, m.Spread, m.PipSize, m.Volatility, m.Decimals =
			ClassMetal, 2000.0, 0.4, 0.1, 0.25, 2
	case strings.Contains(upper, "BTC") || strings.Contains(upper, "ETH"):
		m.Class, m.Base, m.Spread, m.PipSize, m.Volatility, m.Decimals =
			ClassCrypto, 50000.0, 20.0, 1.0, 18.0, 2
	case strings.HasSuffix(upper, "30M") || strings.Contains(upper, "100") || strings.Contains(upper, "500"):
		m.Class, m.Base, m.Spread, m.PipSize, m.Volatility, m.Decimals =
			ClassIndex, 20000.0, 3.0, 1.0, 2.5, 2
	default:
		m.Class, m.Base, m.Spread, m.PipSize, m.Volatility, m.Decimals =
			ClassFXMajor, 1.1000, 0.00015, 0.0001, 0.0001, 5
	}
	return m
}

// Symbols lists the configured instruments.
func Symbols() []string {
	out := make([]string, 0, len(symbolTable))
	for s := range symbolTable {
		out = append(out, s)
	}
	return out
}
