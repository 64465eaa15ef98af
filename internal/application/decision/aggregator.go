// Package decision combines independent agent votes about a market into
// one collective trading decision.
package decision

import (
	"fmt"
	"time"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// Params are the aggregation tunables. Every constant that shapes the
// outcome lives here so tests can pin both boosted and neutral behavior.
type Params struct {
	// SizingThreshold is the minimum edge (confidence − price) required
	// to act. At or below it the decision is forced to HOLD.
	SizingThreshold float64

	// MaxBetPercent caps the suggested position size, in percent of
	// bankroll.
	MaxBetPercent float64

	// ConfidenceBoost multiplies the aggregate confidence before the
	// [0,1] clamp. 1.0 is neutral; values above 1 favor action over
	// caution. Kept as an explicit parameter, never an inline constant.
	ConfidenceBoost float64

	// KellyDivisor converts edge into a bet fraction (conservative
	// Kelly: edge / divisor).
	KellyDivisor float64
}

// DefaultParams returns the neutral defaults: 5% minimum edge, 20%
// bankroll cap, no confidence boost, half-Kelly sizing.
func DefaultParams() Params {
	return Params{
		SizingThreshold: 0.05,
		MaxBetPercent:   20,
		ConfidenceBoost: 1.0,
		KellyDivisor:    2,
	}
}

// Aggregate combines votes about a market snapshot into a single
// CollectiveDecision. Pure function of its inputs: same votes and
// snapshot always produce an identical decision.
//
// Majority rule with confidence as tie-break, YES preferred on exact
// ties (documented, arbitrary, deterministic). Position size derives
// from edge = confidence − market price: no edge, no bet.
func Aggregate(votes []domain.AgentVote, market domain.MarketSnapshot, params Params) (domain.CollectiveDecision, error) {
	if len(votes) == 0 {
		return domain.CollectiveDecision{}, fmt.Errorf("decision.Aggregate: no votes for %s: %w", market.MarketID, domain.ErrInsufficientData)
	}
	if !market.HasPrices() {
		return domain.CollectiveDecision{}, fmt.Errorf("decision.Aggregate: %s has no price data: %w", market.MarketID, domain.ErrInsufficientData)
	}

	var (
		counts   = map[domain.Recommendation]int{}
		confSums = map[domain.Recommendation]float64{}
	)
	for _, v := range votes {
		counts[v.Recommendation]++
		confSums[v.Recommendation] += domain.ClampConfidence(v.Confidence)
	}

	// YES wins ties: the default must be deterministic, and the system
	// favors action on the cheap side of a binary market.
	winner := domain.RecommendYes
	if confSums[domain.RecommendNo] > confSums[domain.RecommendYes] {
		winner = domain.RecommendNo
	}

	confidence := confSums[winner] / float64(max(counts[winner], 1))
	confidence = domain.ClampConfidence(confidence * params.ConfidenceBoost)

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	consensus := float64(maxCount) / float64(len(votes))

	outcome, price, err := tradedSide(market, winner)
	if err != nil {
		return domain.CollectiveDecision{}, err
	}

	d := domain.CollectiveDecision{
		MarketID:            market.MarketID,
		MarketTitle:         market.Title,
		Recommendation:      winner,
		RecommendedOutcome:  outcome,
		AggregateConfidence: confidence,
		ConsensusLevel:      consensus,
		Votes:               votes,
		DecidedAt:           time.Now().UTC(),
	}

	edge := confidence - price
	if edge <= params.SizingThreshold {
		d.Recommendation = domain.RecommendHold
		d.RecommendedOutcome = ""
		d.SuggestedSize = 0
	} else {
		size := edge / params.KellyDivisor * 100
		if size > params.MaxBetPercent {
			size = params.MaxBetPercent
		}
		d.SuggestedSize = size
	}

	d.SupportingFactors, d.RiskFactors = collectFactors(votes, winner)
	return d, nil
}

// tradedSide resolves which outcome token a recommendation trades and
// the price the edge is measured against. YES trades the first quoted
// outcome; NO targets the complementary side, using its quote when the
// market carries one (prices need not sum to 1) and the complement of
// the first price otherwise.
func tradedSide(market domain.MarketSnapshot, rec domain.Recommendation) (string, float64, error) {
	first, firstPrice, ok := market.FirstOutcome()
	if !ok {
		return "", 0, fmt.Errorf("decision.tradedSide: %s has outcomes without quotes: %w", market.MarketID, domain.ErrInsufficientData)
	}
	if rec == domain.RecommendYes {
		return first, firstPrice, nil
	}
	for _, name := range market.Outcomes {
		if name == first {
			continue
		}
		if p, ok := market.Prices[name]; ok {
			return name, p, nil
		}
	}
	return first, 1 - firstPrice, nil
}

// collectFactors splits vote signals into supporting (agreeing with the
// winner) and risk (dissenting) lists, preserving vote order, bounded
// to MaxFactors each.
func collectFactors(votes []domain.AgentVote, winner domain.Recommendation) (supporting, risk []string) {
	for _, v := range votes {
		if v.Recommendation == winner {
			supporting = append(supporting, v.Signals...)
		} else {
			risk = append(risk, v.Signals...)
		}
	}
	if len(supporting) > domain.MaxFactors {
		supporting = supporting[:domain.MaxFactors]
	}
	if len(risk) > domain.MaxFactors {
		risk = risk[:domain.MaxFactors]
	}
	return supporting, risk
}
