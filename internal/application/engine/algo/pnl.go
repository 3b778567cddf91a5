package algo

import "simtrader/internal/domain"

// PnLFunc converts a price move on a position into money. Injectable so the
// pricing convention can be swapped without touching the state machine.
type PnLFunc func(direction domain.Direction, entry, current, volume float64) float64

// FixedPipValue is the default synthetic convention: Δprice × 100000 × lots,
// inverted for sells. Not true contract-size math, but conserved and
// symmetric, which is all the simulation needs.
func FixedPipValue(direction domain.Direction, entry, current, volume float64) float64 {
	diff := current - entry
	if direction == domain.DirectionSell {
		diff = -diff
	}
	return diff * 100000 * volume
}
