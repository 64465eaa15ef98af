package agents

import (
	"context"
	"fmt"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
)

var (
	researchPositive = []string{"likely", "probable", "increasing", "strong", "support", "good", "favor", "bullish", "winning", "leading"}
	researchNegative = []string{"unlikely", "declining", "weak", "against", "doubt", "bad", "bearish", "losing", "trailing"}
)

// Research scores news/expert-opinion summaries about the market
// topic, fetched from the research service.
type Research struct {
	research ports.Researcher
	fallback ports.FallbackStrategy
}

// NewResearch wires the research scorer to a research client and a
// fallback strategy.
func NewResearch(research ports.Researcher, fallback ports.FallbackStrategy) *Research {
	return &Research{research: research, fallback: fallback}
}

func (s *Research) Name() string { return "research" }

// Score fetches a research summary and tilts YES or NO by indicator
// counts, biased toward YES on ties. Fetch failures go through the
// injected fallback strategy.
func (s *Research) Score(ctx context.Context, m domain.MarketSnapshot) (domain.AgentVote, error) {
	summary, err := s.research.Summarize(ctx, m.Title)
	if err != nil {
		return s.fallback.Vote(s.Name(), m, err), nil
	}

	pos := countKeywords(summary, researchPositive)
	neg := countKeywords(summary, researchNegative)

	rec := domain.RecommendYes
	confidence := 0.70 + float64(pos)*0.05
	if neg > pos {
		rec = domain.RecommendNo
		confidence = 0.70 + float64(neg)*0.05
	}
	confidence = min(confidence, 0.95)

	return domain.AgentVote{
		SourceName:     s.Name(),
		Recommendation: rec,
		Confidence:     domain.ClampConfidence(confidence),
		Rationale:      truncate(summary, 200),
		Signals: []string{
			fmt.Sprintf("Found %d positive indicators", pos),
			fmt.Sprintf("Found %d negative indicators", neg),
			fmt.Sprintf("Decisive %s call", rec),
		},
	}, nil
}
