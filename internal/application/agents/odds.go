package agents

import (
	"context"
	"fmt"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// Price bands for the odds analysis.
const (
	undervalued   = 0.2
	veryConfident = 0.8
	tossUpLow     = 0.45
	tossUpHigh    = 0.55
	strongYes     = 0.35
	strongNo      = 0.65
	highVig       = 0.05
	oddsConfCap   = 0.95
)

// OddsAnalyzer looks for value in the implied probabilities: extreme
// prices, market margin, and the distance of the first outcome from
// the 0.5 midpoint.
type OddsAnalyzer struct{}

// NewOddsAnalyzer returns the odds scorer.
func NewOddsAnalyzer() *OddsAnalyzer {
	return &OddsAnalyzer{}
}

func (s *OddsAnalyzer) Name() string { return "odds_analyzer" }

// Score flags extreme odds and vig, then recommends from the first
// outcome's price: the cheaper it trades, the stronger the YES call,
// and symmetrically for NO. No prices means a zero-confidence HOLD.
func (s *OddsAnalyzer) Score(_ context.Context, m domain.MarketSnapshot) (domain.AgentVote, error) {
	if !m.HasPrices() {
		return domain.AgentVote{
			SourceName:     s.Name(),
			Recommendation: domain.RecommendHold,
			Confidence:     0,
			Rationale:      "No price data available",
		}, nil
	}

	var signals []string
	for _, outcome := range m.Outcomes {
		price, ok := m.Prices[outcome]
		if !ok {
			continue
		}
		switch {
		case price < undervalued:
			signals = append(signals, fmt.Sprintf("%s trading at %.1f%% - potential undervalued", outcome, price*100))
		case price > veryConfident:
			signals = append(signals, fmt.Sprintf("%s trading at %.1f%% - market very confident", outcome, price*100))
		case price >= tossUpLow && price <= tossUpHigh:
			signals = append(signals, fmt.Sprintf("%s at %.1f%% - toss-up, high uncertainty", outcome, price*100))
		}
	}

	vig := m.Vig()
	if vig > highVig {
		signals = append(signals, fmt.Sprintf("High market margin: %.1f%% - expensive to trade", vig*100))
	}

	_, price, _ := m.FirstOutcome()

	var (
		rec        domain.Recommendation
		confidence float64
	)
	switch {
	case price < strongYes:
		rec = domain.RecommendYes
		confidence = 0.75 + (strongYes - price)
	case price > strongNo:
		rec = domain.RecommendNo
		confidence = 0.70 + (price - strongNo)
	case price < 0.5:
		rec = domain.RecommendYes
		confidence = 0.65
	default:
		rec = domain.RecommendNo
		confidence = 0.65
	}
	confidence = min(confidence, oddsConfCap)

	return domain.AgentVote{
		SourceName:     s.Name(),
		Recommendation: rec,
		Confidence:     domain.ClampConfidence(confidence),
		Rationale:      fmt.Sprintf("Market showing %.1f%% vig, first outcome at %.1f%% - recommending %s", vig*100, price*100, rec),
		Signals:        signals,
	}, nil
}
