package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
)

var (
	positiveSignals = []string{"positive", "bullish", "optimistic", "good", "strong", "confident", "winning", "up"}
	negativeSignals = []string{"negative", "bearish", "pessimistic", "bad", "weak", "worried", "losing", "down"}
)

// Sentiment scores public-opinion summaries fetched from the research
// service. Always decisive: any tilt, including a tie, picks a side.
type Sentiment struct {
	research ports.Researcher
	fallback ports.FallbackStrategy
}

// NewSentiment wires the sentiment scorer to a research client and a
// fallback strategy for when the client is unavailable.
func NewSentiment(research ports.Researcher, fallback ports.FallbackStrategy) *Sentiment {
	return &Sentiment{research: research, fallback: fallback}
}

func (s *Sentiment) Name() string { return "sentiment" }

// Score fetches a sentiment summary for the market title and counts
// positive vs negative keywords. On fetch failure the injected
// fallback strategy decides the vote instead of surfacing the error:
// one scorer's outage must not sink the whole analysis.
func (s *Sentiment) Score(ctx context.Context, m domain.MarketSnapshot) (domain.AgentVote, error) {
	summary, err := s.research.Summarize(ctx, m.Title)
	if err != nil {
		return s.fallback.Vote(s.Name(), m, err), nil
	}

	pos := countKeywords(summary, positiveSignals)
	neg := countKeywords(summary, negativeSignals)

	rec := domain.RecommendYes
	confidence := 0.70 + float64(pos)*0.04
	if neg > pos {
		rec = domain.RecommendNo
		confidence = 0.70 + float64(neg)*0.04
	}
	confidence = min(confidence, 0.92)

	return domain.AgentVote{
		SourceName:     s.Name(),
		Recommendation: rec,
		Confidence:     domain.ClampConfidence(confidence),
		Rationale:      truncate(summary, 200),
		Signals: []string{
			fmt.Sprintf("Sentiment analysis: %s with %d positive vs %d negative signals", rec, pos, neg),
		},
	}, nil
}

// countKeywords counts how many of the given keywords occur in text,
// case-insensitively. Each keyword counts at most once.
func countKeywords(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
