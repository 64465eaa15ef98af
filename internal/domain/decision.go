package domain

import "time"

// MaxFactors bounds the supporting/risk factor lists on a decision.
const MaxFactors = 5

// CollectiveDecision is the aggregated verdict over a set of votes for
// one market. Derived once per cycle, immutable, persisted as an audit
// record.
type CollectiveDecision struct {
	MarketID            string
	MarketTitle         string
	Recommendation      Recommendation
	RecommendedOutcome  string  // outcome to trade; empty on HOLD
	AggregateConfidence float64 // [0,1]
	ConsensusLevel      float64 // fraction of votes agreeing with the majority
	SuggestedSize       float64 // percent of bankroll, 0 on HOLD
	SupportingFactors   []string
	RiskFactors         []string
	Votes               []AgentVote
	DecidedAt           time.Time
}

// IsActionable reports whether the decision recommends taking a position.
func (d CollectiveDecision) IsActionable() bool {
	return d.Recommendation != RecommendHold && d.SuggestedSize > 0
}

// VotesBySource returns a source → recommendation map, the audit form
// stored alongside executed trades.
func (d CollectiveDecision) VotesBySource() map[string]string {
	out := make(map[string]string, len(d.Votes))
	for _, v := range d.Votes {
		out[v.SourceName] = string(v.Recommendation)
	}
	return out
}
