package domain

// Recommendation is the advisory call a scorer makes about a market.
type Recommendation string

const (
	RecommendYes  Recommendation = "YES"
	RecommendNo   Recommendation = "NO"
	RecommendHold Recommendation = "HOLD"
)

// AgentVote is one scorer's independent opinion about a market snapshot.
// Votes are produced per cycle, consumed immediately by the aggregator
// and never mutated or persisted individually.
type AgentVote struct {
	SourceName     string
	Recommendation Recommendation
	Confidence     float64 // [0,1], clamped by the producer
	Rationale      string
	Signals        []string // short supporting/risk factor strings
}

// ClampConfidence bounds a raw confidence value to [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
