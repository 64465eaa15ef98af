package ports

import (
	"context"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// DecisionStore is the audit log of collected snapshots and collective
// decisions. It replaces the in-memory lists the serving layer would
// otherwise accumulate; opened at process start, closed at shutdown.
type DecisionStore interface {
	// SaveSnapshot records an observed market snapshot.
	SaveSnapshot(ctx context.Context, snapshot domain.MarketSnapshot) error

	// SaveDecision records a collective decision as an audit row.
	SaveDecision(ctx context.Context, d domain.CollectiveDecision) error

	// ListDecisions returns up to limit decisions, newest first.
	ListDecisions(ctx context.Context, limit int) ([]domain.CollectiveDecision, error)

	// ListMarkets returns the most recent snapshot per market, newest
	// observation first, up to limit.
	ListMarkets(ctx context.Context, limit int) ([]domain.MarketSnapshot, error)

	// Close releases the underlying database cleanly.
	Close() error
}
