package ports

import (
	"context"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// Scorer is one independent vote producer. Implementations are
// stateless from the caller's perspective and may perform network
// calls internally; failures wrap domain.ErrAnalysis.
type Scorer interface {
	Name() string
	Score(ctx context.Context, snapshot domain.MarketSnapshot) (domain.AgentVote, error)
}

// FallbackStrategy decides what a scorer votes when its external
// source is unavailable. Injectable so tests can pin the behavior
// deterministically.
type FallbackStrategy interface {
	// Vote produces the substitute vote for the named scorer. cause is
	// the failure that triggered the fallback.
	Vote(source string, snapshot domain.MarketSnapshot, cause error) domain.AgentVote
}
