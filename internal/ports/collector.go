package ports

import (
	"context"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// CollectMethod selects how a market identifier is interpreted.
type CollectMethod string

const (
	MethodSearch CollectMethod = "search"
	MethodSlug   CollectMethod = "slug"
	MethodID     CollectMethod = "id"
)

// Collector produces fresh market snapshots from an external source.
// Failures wrap domain.ErrCollection.
type Collector interface {
	// Collect resolves one market by identifier and returns its current
	// snapshot.
	Collect(ctx context.Context, identifier string, method CollectMethod) (domain.MarketSnapshot, error)

	// Trending returns up to limit currently active markets, highest
	// volume first.
	Trending(ctx context.Context, limit int) ([]domain.MarketSnapshot, error)
}
