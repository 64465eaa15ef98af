package polymarket

import "encoding/json"

// Raw DTOs from the Gamma API. Only used inside this package; the
// conversion to domain entities lives in mapping.go.

// gammaMarketsResponse is the response of GET /markets.
type gammaMarketsResponse []gammaMarket

// gammaMarket is one market as Gamma returns it. Several numeric
// fields arrive as JSON strings, and the outcome/price arrays arrive
// double-encoded (a JSON string containing a JSON array).
type gammaMarket struct {
	ID            string      `json:"id"`
	ConditionID   string      `json:"conditionId"`
	Question      string      `json:"question"`
	Slug          string      `json:"slug"`
	EndDateISO    string      `json:"endDateIso"`
	Outcomes      string      `json:"outcomes"`      // e.g. `["Yes","No"]`
	OutcomePrices string      `json:"outcomePrices"` // e.g. `["0.65","0.35"]`
	VolumeNum     json.Number `json:"volumeNum"`
	LiquidityNum  json.Number `json:"liquidityNum"`
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
	UMAResolution string      `json:"umaResolutionStatus"`
}
