package polymarket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
)

// Fixture is a deterministic offline collector for --dry-run and
// tests. Every identifier resolves to an active binary market at
// 65/35 with healthy volume and liquidity.
type Fixture struct {
	// Now is injected so tests get stable timestamps; nil means
	// time.Now.
	Now func() time.Time
}

// NewFixture returns the offline collector.
func NewFixture() *Fixture {
	return &Fixture{}
}

// Collect returns the canned snapshot for the identifier.
func (f *Fixture) Collect(_ context.Context, identifier string, _ ports.CollectMethod) (domain.MarketSnapshot, error) {
	return f.snapshot(identifier), nil
}

// Trending returns limit canned markets with distinct identifiers.
func (f *Fixture) Trending(_ context.Context, limit int) ([]domain.MarketSnapshot, error) {
	if limit <= 0 {
		limit = trendingDefault
	}
	out := make([]domain.MarketSnapshot, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, f.snapshot(fmt.Sprintf("fixture market %d", i+1)))
	}
	return out, nil
}

func (f *Fixture) snapshot(identifier string) domain.MarketSnapshot {
	now := time.Now().UTC()
	if f.Now != nil {
		now = f.Now()
	}
	id := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(identifier)), " ", "-")
	return domain.MarketSnapshot{
		MarketID:   id,
		Title:      identifier,
		URL:        marketURLBase + id,
		Outcomes:   []string{"Yes", "No"},
		Prices:     map[string]float64{"Yes": 0.65, "No": 0.35},
		Volume:     1_000_000,
		Liquidity:  500_000,
		Status:     domain.StatusActive,
		ObservedAt: now,
	}
}
