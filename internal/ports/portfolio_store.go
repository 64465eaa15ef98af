package ports

import (
	"context"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// PortfolioStore persists the ledger and the append-only trade history.
// Only the owning trading loop writes; readers must tolerate observing
// the previous snapshot during a write. Failures wrap
// domain.ErrPersistence.
type PortfolioStore interface {
	// Load reads the persisted portfolio, or returns (nil, nil) when no
	// state exists yet.
	Load(ctx context.Context) (*domain.Portfolio, error)

	// Save writes the full portfolio snapshot durably.
	Save(ctx context.Context, p *domain.Portfolio) error

	// AppendTrade adds one execution to the trade history.
	AppendTrade(ctx context.Context, trade domain.TradeExecution) error

	// History returns the recorded trade history, oldest first.
	History(ctx context.Context) ([]domain.TradeExecution, error)
}
