package market

import (
	"math/rand"

	"simtrader/internal/domain"
)

// meanReversionK pulls the bid back toward the symbol base price a little on
// every tick, keeping long sessions bounded.
const meanReversionK = 0.002

type quote struct {
	bid  float64
	meta SymbolMeta
}

// Feed is the synthetic per-instrument price process. One quote per symbol,
// lazily seeded from the symbol base price on first reference, mutated only
// by Tick and SetPrice. Not safe for concurrent use; callers serialize.
type Feed struct {
	rng    *rand.Rand
	quotes map[string]*quote
}

// NewFeed creates a price feed driven by the given random source.
func NewFeed(rng *rand.Rand) *Feed {
	return &Feed{rng: rng, quotes: make(map[string]*quote)}
}

func (f *Feed) quoteFor(symbol string) *quote {
	q, ok := f.quotes[symbol]
	if !ok {
		m := MetaFor(symbol)
		q = &quote{bid: m.Base, meta: m}
		f.quotes[symbol] = q
	}
	return q
}

// Tick advances the symbol's price by one bounded random step with mean
// reversion toward the base price, and returns the new bid/ask. The ask is
// always bid + spread, so it can never invert. Total function: always
// succeeds, unknown symbols are seeded from inferred metadata.
func (f *Feed) Tick(symbol string) (bid, ask float64) {
	q := f.quoteFor(symbol)
	step := (f.rng.Float64()*2 - 1) * q.meta.Volatility
	q.bid += step + (q.meta.Base-q.bid)*meanReversionK
	q.bid = domain.RoundTo(q.bid, q.meta.Decimals)
	return q.bid, domain.RoundTo(q.bid+q.meta.Spread, q.meta.Decimals)
}

// Price returns the current bid/ask without advancing the process.
func (f *Feed) Price(symbol string) (bid, ask float64) {
	q := f.quoteFor(symbol)
	return q.bid, domain.RoundTo(q.bid+q.meta.Spread, q.meta.Decimals)
}

// SetPrice pins the symbol's bid, so a live session can continue seamlessly
// from the final close of a generated candle series.
func (f *Feed) SetPrice(symbol string, bid float64) {
	q := f.quoteFor(symbol)
	q.bid = domain.RoundTo(bid, q.meta.Decimals)
}

// Meta exposes the instrument metadata the feed quotes from.
func (f *Feed) Meta(symbol string) SymbolMeta {
	return f.quoteFor(symbol).meta
}
