package trader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carlo-scr/HalloweenHack/internal/application/decision"
	"github.com/carlo-scr/HalloweenHack/internal/domain"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
)

// CheckMarket runs one market end to end: collect a snapshot, gather
// votes, aggregate, record the audit trail and execute when the
// decision clears the thresholds. Used by the loop and by the
// on-demand HTTP path.
func (a *Agent) CheckMarket(ctx context.Context, identifier string) (domain.CollectiveDecision, error) {
	snapshot, err := a.collector.Collect(ctx, identifier, methodFor(identifier))
	if err != nil {
		return domain.CollectiveDecision{}, fmt.Errorf("trader.CheckMarket %q: %w", identifier, err)
	}
	return a.Decide(ctx, snapshot)
}

// Decide analyzes an already-collected snapshot, persists the audit
// records and executes the resulting decision.
func (a *Agent) Decide(ctx context.Context, snapshot domain.MarketSnapshot) (domain.CollectiveDecision, error) {
	if a.decisions != nil {
		if err := a.decisions.SaveSnapshot(ctx, snapshot); err != nil {
			slog.Warn("snapshot audit write failed", "market_id", snapshot.MarketID, "err", err)
		}
	}

	if snapshot.Status != domain.StatusActive {
		return domain.CollectiveDecision{}, fmt.Errorf("trader.Decide: market %s is %s: %w",
			snapshot.MarketID, snapshot.Status, domain.ErrInsufficientData)
	}

	votes, err := a.panel.Gather(ctx, snapshot)
	if err != nil {
		return domain.CollectiveDecision{}, err
	}

	d, err := decision.Aggregate(votes, snapshot, a.cfg.Aggregation)
	if err != nil {
		return domain.CollectiveDecision{}, err
	}

	if a.decisions != nil {
		if err := a.decisions.SaveDecision(ctx, d); err != nil {
			slog.Warn("decision audit write failed", "market_id", d.MarketID, "err", err)
		}
	}
	if a.notifier != nil {
		if err := a.notifier.NotifyDecision(ctx, d); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	if _, err := a.executeDecision(ctx, d, snapshot); err != nil {
		return d, err
	}
	return d, nil
}

// executeDecision applies the threshold gate and opens a position when
// every check passes. Skips are logged with their reason and are not
// errors; only unexpected failures propagate.
func (a *Agent) executeDecision(ctx context.Context, d domain.CollectiveDecision, snapshot domain.MarketSnapshot) (*domain.TradeExecution, error) {
	logSkip := func(reason string, extra ...any) {
		args := append([]any{"market_id", d.MarketID, "reason", reason}, extra...)
		slog.Info("trade skipped", args...)
	}

	if d.Recommendation == domain.RecommendHold {
		logSkip("hold")
		return nil, nil
	}
	if d.AggregateConfidence < a.cfg.MinConfidence {
		logSkip("confidence too low", "confidence", d.AggregateConfidence, "min", a.cfg.MinConfidence)
		return nil, nil
	}
	if d.ConsensusLevel < a.cfg.MinConsensus {
		logSkip("consensus too low", "consensus", d.ConsensusLevel, "min", a.cfg.MinConsensus)
		return nil, nil
	}

	action, outcome, entryPrice := tradeSide(d, snapshot)
	if entryPrice <= 0 {
		logSkip("no entry price", "outcome", outcome)
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// SuggestedSize is percent of bankroll; convert to dollars and cap.
	bankroll := a.portfolio.Cash + a.portfolio.PositionValue()
	size := d.SuggestedSize / 100 * bankroll
	if size > a.cfg.MaxPositionSize {
		size = a.cfg.MaxPositionSize
	}
	if size > a.portfolio.Cash {
		logSkip("insufficient cash", "cash", a.portfolio.Cash, "size", size)
		return nil, nil
	}

	trade, err := domain.NewTrade(uuid.NewString(), d.MarketID, d.MarketTitle, action, outcome, entryPrice, size)
	if err != nil {
		return nil, fmt.Errorf("trader.executeDecision: %w", err)
	}
	trade.Confidence = d.AggregateConfidence
	trade.Consensus = d.ConsensusLevel
	trade.AgentVotes = d.VotesBySource()
	if !snapshot.EndDate.IsZero() {
		end := snapshot.EndDate
		trade.MarketEndDate = &end
	}

	if err := a.portfolio.AddTrade(trade); err != nil {
		return nil, fmt.Errorf("trader.executeDecision: %w", err)
	}
	a.portfolio.RefreshTotalValue()
	a.persistLocked(ctx, &trade)

	slog.Info("trade executed",
		"trade_id", trade.TradeID,
		"market", domain.TruncateTitle(trade.MarketTitle, trade.MarketID, 60),
		"action", trade.Action,
		"outcome", trade.Outcome,
		"size", fmt.Sprintf("$%.2f", trade.Size),
		"shares", fmt.Sprintf("%.2f", trade.Shares),
		"entry", trade.EntryPrice,
		"cash", fmt.Sprintf("$%.2f", a.portfolio.Cash),
	)
	return &trade, nil
}

// ResolveMarket settles an open position against the market's resolved
// outcome, updating and persisting the ledger.
func (a *Agent) ResolveMarket(ctx context.Context, tradeID string, finalPrice float64, resolvedOutcome string) (domain.TradeExecution, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	closed, err := a.portfolio.CloseTrade(tradeID, finalPrice, resolvedOutcome)
	if err != nil {
		return domain.TradeExecution{}, fmt.Errorf("trader.ResolveMarket: %w", err)
	}
	a.portfolio.RefreshTotalValue()
	a.persistLocked(ctx, nil)

	slog.Info("trade closed",
		"trade_id", closed.TradeID,
		"resolved", resolvedOutcome,
		"pnl", fmt.Sprintf("$%.2f", *closed.PnL),
		"cash", fmt.Sprintf("$%.2f", a.portfolio.Cash),
	)
	return closed, nil
}

// PortfolioSnapshot returns a copy of the ledger safe for readers.
func (a *Agent) PortfolioSnapshot() domain.Portfolio {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := *a.portfolio
	snap.ActivePositions = append([]domain.TradeExecution(nil), a.portfolio.ActivePositions...)
	snap.ClosedPositions = append([]domain.TradeExecution(nil), a.portfolio.ClosedPositions...)
	return snap
}

// TradeHistory returns the persisted execution history, oldest first.
func (a *Agent) TradeHistory(ctx context.Context) ([]domain.TradeExecution, error) {
	return a.store.History(ctx)
}

// persistPortfolio refreshes the total value and saves the ledger.
func (a *Agent) persistPortfolio(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.portfolio.RefreshTotalValue()
	a.persistLocked(ctx, nil)
}

// persistLocked writes the ledger (and optionally one history entry)
// while holding the portfolio mutex. Write failures are logged; the
// in-memory state stays authoritative until the next successful save.
func (a *Agent) persistLocked(ctx context.Context, trade *domain.TradeExecution) {
	if err := a.store.Save(ctx, a.portfolio); err != nil {
		slog.Error("portfolio save failed", "err", err)
	}
	if trade != nil {
		if err := a.store.AppendTrade(ctx, *trade); err != nil {
			slog.Error("trade history append failed", "trade_id", trade.TradeID, "err", err)
		}
	}
}

func (a *Agent) logPortfolio() {
	p := a.PortfolioSnapshot()
	slog.Info("portfolio",
		"total_value", fmt.Sprintf("$%.2f", p.TotalValue),
		"cash", fmt.Sprintf("$%.2f", p.Cash),
		"active", len(p.ActivePositions),
		"total_pnl", fmt.Sprintf("$%.2f", p.TotalPnL),
		"win_rate", fmt.Sprintf("%.1f%%", p.WinRate*100),
	)
	if a.notifier != nil {
		if err := a.notifier.NotifyPortfolio(context.Background(), p); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
}

// tradeSide maps a recommendation onto a ledger action: YES buys the
// recommended outcome at its price; NO shorts the market's first
// outcome (sells exposure it doesn't hold, settled by the PnL rule).
func tradeSide(d domain.CollectiveDecision, snapshot domain.MarketSnapshot) (domain.TradeAction, string, float64) {
	if d.Recommendation == domain.RecommendNo {
		outcome, price, _ := snapshot.FirstOutcome()
		return domain.ActionSell, outcome, price
	}
	return domain.ActionBuy, d.RecommendedOutcome, snapshot.PriceOf(d.RecommendedOutcome)
}

// methodFor guesses how an identifier should be resolved: condition
// IDs are hex strings, slugs are dashed and spaceless, anything else
// is a search query.
func methodFor(identifier string) ports.CollectMethod {
	if strings.HasPrefix(identifier, "0x") {
		return ports.MethodID
	}
	if !strings.Contains(identifier, " ") && strings.Contains(identifier, "-") {
		return ports.MethodSlug
	}
	return ports.MethodSearch
}
