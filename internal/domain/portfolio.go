package domain

import (
	"fmt"
	"time"
)

// TradeAction is the direction of an executed trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// TradeStatus tracks the lifecycle of a position: open → closed, terminal.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "open"
	TradeClosed TradeStatus = "closed"
)

// TradeExecution is a simulated position in the paper portfolio.
// PnL and ResolvedOutcome stay nil while the position is open and are
// set together exactly once when it closes.
type TradeExecution struct {
	TradeID     string      `json:"trade_id"`
	MarketID    string      `json:"market_id"`
	MarketTitle string      `json:"market_title"`
	Action      TradeAction `json:"action"`
	Outcome     string      `json:"outcome"`

	EntryPrice float64 `json:"price"`  // (0,1]
	Size       float64 `json:"size"`   // USD committed
	Shares     float64 `json:"shares"` // Size / EntryPrice

	// Decision context carried for audit.
	Confidence float64           `json:"confidence"`
	Consensus  float64           `json:"consensus"`
	AgentVotes map[string]string `json:"agent_votes,omitempty"`

	ExecutedAt    time.Time  `json:"executed_at"`
	MarketEndDate *time.Time `json:"market_end_date,omitempty"`

	Status          TradeStatus `json:"status"`
	PnL             *float64    `json:"pnl,omitempty"`
	ResolvedOutcome *string     `json:"resolved_outcome,omitempty"`
}

// NewTrade builds an open TradeExecution, deriving shares from size and
// entry price. An entry price of zero is rejected: shares would divide
// by zero.
func NewTrade(id, marketID, title string, action TradeAction, outcome string, entryPrice, size float64) (TradeExecution, error) {
	if entryPrice <= 0 || entryPrice > 1 {
		return TradeExecution{}, fmt.Errorf("domain.NewTrade: entry price %.4f out of (0,1]: %w", entryPrice, ErrInsufficientData)
	}
	if size <= 0 {
		return TradeExecution{}, fmt.Errorf("domain.NewTrade: size %.2f must be positive: %w", size, ErrInsufficientData)
	}
	return TradeExecution{
		TradeID:     id,
		MarketID:    marketID,
		MarketTitle: title,
		Action:      action,
		Outcome:     outcome,
		EntryPrice:  entryPrice,
		Size:        size,
		Shares:      size / entryPrice,
		ExecutedAt:  time.Now().UTC(),
		Status:      TradeOpen,
	}, nil
}

// SettlePnL applies the resolution payout rule:
//   - bought the resolved outcome  → (1 − entry) × shares, the bet won
//   - sold an outcome that lost    → entry × shares, correctly sold
//   - anything else                → −size, the full stake is lost
func (t TradeExecution) SettlePnL(resolvedOutcome string) float64 {
	switch {
	case t.Action == ActionBuy && t.Outcome == resolvedOutcome:
		return (1 - t.EntryPrice) * t.Shares
	case t.Action == ActionSell && t.Outcome != resolvedOutcome:
		return t.EntryPrice * t.Shares
	default:
		return -t.Size
	}
}

// Portfolio is the mutable ledger of cash and simulated positions.
// All mutations must be serialized by the owning service; the ledger
// itself does no locking.
type Portfolio struct {
	TotalValue      float64          `json:"total_value"`
	Cash            float64          `json:"cash"`
	ActivePositions []TradeExecution `json:"active_positions"`
	ClosedPositions []TradeExecution `json:"closed_positions"`

	TotalPnL      float64 `json:"total_pnl"`
	WinRate       float64 `json:"win_rate"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`

	LastUpdated time.Time `json:"last_updated"`
}

// NewPortfolio creates a ledger with the given starting cash.
func NewPortfolio(initialCash float64) *Portfolio {
	now := time.Now().UTC()
	return &Portfolio{
		TotalValue:  initialCash,
		Cash:        initialCash,
		LastUpdated: now,
	}
}

// AddTrade opens a position: cash decreases by the stake, the trade
// joins the active set. Fails with ErrInsufficientFunds when the stake
// exceeds available cash, leaving the ledger untouched.
func (p *Portfolio) AddTrade(trade TradeExecution) error {
	if trade.Status != TradeOpen {
		return fmt.Errorf("domain.AddTrade: trade %s is %s, not open: %w", trade.TradeID, trade.Status, ErrUnknownTrade)
	}
	if trade.Size > p.Cash {
		return fmt.Errorf("domain.AddTrade: size $%.2f exceeds cash $%.2f: %w", trade.Size, p.Cash, ErrInsufficientFunds)
	}
	p.Cash -= trade.Size
	p.ActivePositions = append(p.ActivePositions, trade)
	p.TotalTrades++
	p.touch()
	return nil
}

// CloseTrade settles an open position against the resolved outcome.
// The position moves from active to closed atomically with the status
// transition; closing the same trade twice fails with ErrUnknownTrade
// and leaves the ledger identical to a single successful close.
func (p *Portfolio) CloseTrade(tradeID string, finalPrice float64, resolvedOutcome string) (TradeExecution, error) {
	idx := -1
	for i := range p.ActivePositions {
		if p.ActivePositions[i].TradeID == tradeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return TradeExecution{}, fmt.Errorf("domain.CloseTrade: trade %s not in active positions: %w", tradeID, ErrUnknownTrade)
	}

	trade := p.ActivePositions[idx]
	pnl := trade.SettlePnL(resolvedOutcome)

	trade.Status = TradeClosed
	trade.PnL = &pnl
	trade.ResolvedOutcome = &resolvedOutcome

	p.Cash += trade.Size + pnl
	p.TotalPnL += pnl
	if pnl > 0 {
		p.WinningTrades++
	}
	if p.TotalTrades > 0 {
		p.WinRate = float64(p.WinningTrades) / float64(p.TotalTrades)
	}

	p.ActivePositions = append(p.ActivePositions[:idx], p.ActivePositions[idx+1:]...)
	p.ClosedPositions = append(p.ClosedPositions, trade)
	p.touch()
	return trade, nil
}

// PositionValue is the cost-basis value of open positions. Positions
// are deliberately NOT marked to current market price; unrealized PnL
// only materializes at close.
func (p *Portfolio) PositionValue() float64 {
	total := 0.0
	for _, t := range p.ActivePositions {
		total += t.Size
	}
	return total
}

// RefreshTotalValue recomputes cash + position value.
func (p *Portfolio) RefreshTotalValue() {
	p.TotalValue = p.Cash + p.PositionValue()
	p.touch()
}

// FindActive returns the open position with the given trade ID.
func (p *Portfolio) FindActive(tradeID string) (TradeExecution, bool) {
	for _, t := range p.ActivePositions {
		if t.TradeID == tradeID {
			return t, true
		}
	}
	return TradeExecution{}, false
}

func (p *Portfolio) touch() {
	p.LastUpdated = time.Now().UTC()
}
