package ports

import (
	"context"
	"errors"

	"simtrader/internal/domain"
)

// ErrStrategyNotFound is returned by stores when an id resolves to nothing.
// The engine treats it as a signal to fall back to the default strategy.
var ErrStrategyNotFound = errors.New("strategy not found")

// StrategyStore supplies strategy records to the engine.
type StrategyStore interface {
	// GetStrategy returns the strategy with the given id, or
	// ErrStrategyNotFound.
	GetStrategy(ctx context.Context, id string) (domain.Strategy, error)

	// ListStrategies returns all stored strategies, newest first.
	ListStrategies(ctx context.Context) ([]domain.Strategy, error)

	// SaveStrategy inserts or replaces a strategy record.
	SaveStrategy(ctx context.Context, s domain.Strategy) error
}
