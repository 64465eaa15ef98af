package agents

import (
	"fmt"
	"math/rand"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// HoldFallback abstains when a scorer's external source is down. This
// is the default: a failed analysis surfaces as a zero-weight HOLD
// instead of an invented opinion.
type HoldFallback struct{}

// Vote returns a deterministic HOLD carrying the failure cause.
func (HoldFallback) Vote(source string, _ domain.MarketSnapshot, cause error) domain.AgentVote {
	return domain.AgentVote{
		SourceName:     source,
		Recommendation: domain.RecommendHold,
		Confidence:     0,
		Rationale:      fmt.Sprintf("%s unavailable: %v", source, cause),
		Signals:        []string{"Fallback analysis mode"},
	}
}

// RandomFallback guesses YES or NO with fixed confidence when the
// source is down. This preserves the legacy "make an informed guess"
// behavior as an opt-in policy; the generator is injected so tests can
// seed it.
type RandomFallback struct {
	Rand       *rand.Rand
	Confidence float64
}

// NewRandomFallback builds the guessing fallback with the legacy 0.65
// confidence.
func NewRandomFallback(rng *rand.Rand) *RandomFallback {
	return &RandomFallback{Rand: rng, Confidence: 0.65}
}

// Vote flips the injected coin between YES and NO.
func (f *RandomFallback) Vote(source string, _ domain.MarketSnapshot, _ error) domain.AgentVote {
	rec := domain.RecommendYes
	if f.Rand.Intn(2) == 1 {
		rec = domain.RecommendNo
	}
	return domain.AgentVote{
		SourceName:     source,
		Recommendation: rec,
		Confidence:     domain.ClampConfidence(f.Confidence),
		Rationale:      fmt.Sprintf("%s unavailable, making informed guess: %s", source, rec),
		Signals:        []string{"Fallback analysis mode"},
	}
}
