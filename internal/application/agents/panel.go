package agents

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
)

// Panel is the fixed, statically-registered set of scorers consulted
// for every market. Scorers run concurrently; the vote order in the
// result always matches registration order so aggregation stays
// deterministic.
type Panel struct {
	scorers []ports.Scorer
}

// NewPanel registers the given scorers.
func NewPanel(scorers ...ports.Scorer) *Panel {
	return &Panel{scorers: scorers}
}

// Names returns the registered scorer names in order.
func (p *Panel) Names() []string {
	names := make([]string, len(p.scorers))
	for i, s := range p.scorers {
		names[i] = s.Name()
	}
	return names
}

// Gather collects one vote per scorer for the snapshot. A failing
// scorer is logged and skipped; the panel only fails when every scorer
// fails, wrapping domain.ErrAnalysis.
func (p *Panel) Gather(ctx context.Context, snapshot domain.MarketSnapshot) ([]domain.AgentVote, error) {
	if len(p.scorers) == 0 {
		return nil, fmt.Errorf("agents.Gather: no scorers registered: %w", domain.ErrAnalysis)
	}

	results := make([]*domain.AgentVote, len(p.scorers))

	g, gctx := errgroup.WithContext(ctx)
	for i, scorer := range p.scorers {
		i, scorer := i, scorer
		g.Go(func() error {
			vote, err := scorer.Score(gctx, snapshot)
			if err != nil {
				slog.Warn("scorer failed",
					"scorer", scorer.Name(),
					"market_id", snapshot.MarketID,
					"err", err,
				)
				return nil
			}
			results[i] = &vote
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("agents.Gather: %w", err)
	}

	votes := make([]domain.AgentVote, 0, len(results))
	for _, v := range results {
		if v != nil {
			votes = append(votes, *v)
		}
	}
	if len(votes) == 0 {
		return nil, fmt.Errorf("agents.Gather: all %d scorers failed for %s: %w", len(p.scorers), snapshot.MarketID, domain.ErrAnalysis)
	}
	return votes, nil
}
