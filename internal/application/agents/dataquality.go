// Package agents contains the vote producers: independent, stateless
// scoring functions that each form an opinion about a market snapshot.
package agents

import (
	"context"
	"fmt"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// Volume and liquidity bands for the quality check, in USD.
const (
	highVolume   = 100_000
	lowVolume    = 10_000
	lowLiquidity = 5_000
)

// DataQuality validates completeness of a snapshot and makes a simple
// buy-low / sell-high call from the first outcome's price.
type DataQuality struct{}

// NewDataQuality returns the data quality scorer.
func NewDataQuality() *DataQuality {
	return &DataQuality{}
}

func (s *DataQuality) Name() string { return "data_quality" }

// Score checks prices/volume/liquidity presence and recommends from the
// price band: cheap YES side → YES, expensive → NO, middle decided by
// volume. A snapshot without prices is a HOLD at rock-bottom confidence.
func (s *DataQuality) Score(_ context.Context, m domain.MarketSnapshot) (domain.AgentVote, error) {
	var signals []string

	if m.Volume > 0 {
		if m.Volume > highVolume {
			signals = append(signals, fmt.Sprintf("High trading volume: $%.0f", m.Volume))
		} else if m.Volume < lowVolume {
			signals = append(signals, fmt.Sprintf("Low trading volume: $%.0f - risky", m.Volume))
		}
	}
	if m.Liquidity > 0 && m.Liquidity < lowLiquidity {
		signals = append(signals, "Low liquidity - high slippage risk")
	}

	confidence := 0.4
	if m.HasPrices() && m.Volume > 0 && m.Liquidity > 0 {
		confidence = 0.8
	}

	_, price, ok := m.FirstOutcome()
	if !ok {
		return domain.AgentVote{
			SourceName:     s.Name(),
			Recommendation: domain.RecommendHold,
			Confidence:     0.3,
			Rationale:      "Insufficient data",
			Signals:        signals,
		}, nil
	}

	var rec domain.Recommendation
	switch {
	case price < 0.4:
		rec = domain.RecommendYes
		confidence = min(0.85, confidence+0.1)
	case price > 0.6:
		rec = domain.RecommendNo
		confidence = min(0.85, confidence+0.1)
	case m.Volume > highVolume:
		// Middle range with real volume behind it: lean by the midpoint.
		if price < 0.5 {
			rec = domain.RecommendYes
		} else {
			rec = domain.RecommendNo
		}
		confidence = 0.70
	default:
		rec = domain.RecommendYes
		confidence = 0.60
	}

	return domain.AgentVote{
		SourceName:     s.Name(),
		Recommendation: rec,
		Confidence:     domain.ClampConfidence(confidence),
		Rationale:      fmt.Sprintf("Data quality check: %d factors analyzed, market at %.0f%%", len(signals), price*100),
		Signals:        signals,
	}, nil
}
