package ports

import (
	"context"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// Notifier presents decisions and portfolio state to the user.
// The console implementation prints formatted tables.
type Notifier interface {
	NotifyDecision(ctx context.Context, d domain.CollectiveDecision) error
	NotifyPortfolio(ctx context.Context, p domain.Portfolio) error
}
