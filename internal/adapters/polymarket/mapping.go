package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

const marketURLBase = "https://polymarket.com/event/"

// mapGammaMarket converts a Gamma DTO into a domain snapshot. The
// outcome names and prices arrive as double-encoded JSON arrays and
// are zipped positionally; a market whose arrays disagree in length
// keeps only the paired prefix.
func mapGammaMarket(gm gammaMarket, observedAt time.Time) (domain.MarketSnapshot, error) {
	outcomes, err := decodeStringArray(gm.Outcomes)
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("outcomes for %s: %w", gm.ConditionID, err)
	}
	rawPrices, err := decodeStringArray(gm.OutcomePrices)
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("outcome prices for %s: %w", gm.ConditionID, err)
	}

	prices := make(map[string]float64, len(outcomes))
	for i, name := range outcomes {
		if i >= len(rawPrices) {
			break
		}
		p, err := strconv.ParseFloat(rawPrices[i], 64)
		if err != nil {
			continue
		}
		prices[name] = p
	}

	m := domain.MarketSnapshot{
		MarketID:   gm.ConditionID,
		Title:      gm.Question,
		URL:        marketURLBase + gm.Slug,
		Outcomes:   outcomes,
		Prices:     prices,
		Status:     mapStatus(gm),
		ObservedAt: observedAt,
	}
	if m.MarketID == "" {
		m.MarketID = gm.Slug
	}

	if v, err := gm.VolumeNum.Float64(); err == nil {
		m.Volume = v
	}
	if l, err := gm.LiquidityNum.Float64(); err == nil {
		m.Liquidity = l
	}
	if gm.EndDateISO != "" {
		if t, err := time.Parse("2006-01-02", gm.EndDateISO); err == nil {
			m.EndDate = t
		} else if t, err := time.Parse(time.RFC3339, gm.EndDateISO); err == nil {
			m.EndDate = t
		}
	}

	return m, nil
}

// mapStatus derives the lifecycle state from Gamma's flags. A closed
// market with a UMA resolution is resolved; closed without one is
// merely closed for trading.
func mapStatus(gm gammaMarket) domain.MarketStatus {
	switch {
	case gm.Closed && gm.UMAResolution == "resolved":
		return domain.StatusResolved
	case gm.Closed || !gm.Active:
		return domain.StatusClosed
	default:
		return domain.StatusActive
	}
}

// decodeStringArray parses Gamma's double-encoded arrays: the field is
// a JSON string whose content is itself a JSON array of strings.
func decodeStringArray(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode %q: %w", raw, err)
	}
	return out, nil
}
