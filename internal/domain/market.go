package domain

import "time"

// MarketStatus is the lifecycle state of a prediction market.
type MarketStatus string

const (
	StatusActive   MarketStatus = "active"
	StatusResolved MarketStatus = "resolved"
	StatusClosed   MarketStatus = "closed"
)

// MarketSnapshot is a point-in-time observation of a Polymarket market.
// It is produced fresh by a collector on every cycle and never mutated.
type MarketSnapshot struct {
	MarketID   string
	Title      string
	URL        string
	Outcomes   []string           // ordered, ["Yes", "No"] for binary markets
	Prices     map[string]float64 // outcome → implied probability in [0,1]
	Volume     float64            // total volume in USD, 0 if unknown
	Liquidity  float64            // pool liquidity in USD, 0 if unknown
	EndDate    time.Time          // resolution date, zero if unknown
	Status     MarketStatus
	ObservedAt time.Time
}

// HasPrices reports whether the snapshot carries at least one outcome price.
func (m MarketSnapshot) HasPrices() bool {
	return len(m.Prices) > 0
}

// FirstOutcome returns the first outcome with a price, following the
// declared outcome order. Binary markets list YES first, so this is the
// YES side in practice.
func (m MarketSnapshot) FirstOutcome() (string, float64, bool) {
	for _, name := range m.Outcomes {
		if p, ok := m.Prices[name]; ok {
			return name, p, true
		}
	}
	return "", 0, false
}

// PriceOf returns the price for the given outcome, or 0 if the outcome
// has no quote in this snapshot.
func (m MarketSnapshot) PriceOf(outcome string) float64 {
	return m.Prices[outcome]
}

// Vig returns the market margin: how far outcome prices deviate from
// summing to 1. Prices are NOT guaranteed to sum to 1; consumers must
// never normalize them.
func (m MarketSnapshot) Vig() float64 {
	total := 0.0
	for _, p := range m.Prices {
		total += p
	}
	if total > 1 {
		return total - 1
	}
	return 1 - total
}

// HoursToResolution returns the hours until the market resolves,
// or 0 if EndDate is unknown or already past.
func (m MarketSnapshot) HoursToResolution() float64 {
	if m.EndDate.IsZero() {
		return 0
	}
	h := time.Until(m.EndDate).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// TruncateTitle returns the market title truncated to maxLen characters,
// falling back to the market ID when the title is empty.
func TruncateTitle(title, marketID string, maxLen int) string {
	t := title
	if t == "" {
		if len(marketID) > 20 {
			t = marketID[:20] + "..."
		} else {
			t = marketID
		}
	}
	if len(t) > maxLen {
		t = t[:maxLen-3] + "..."
	}
	return t
}
