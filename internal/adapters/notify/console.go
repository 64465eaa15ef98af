// Package notify prints decisions and portfolio state to the console.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// Console implements ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout. table enables
// the full table output; off prints compact one-liners.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, table: true}
}

// NotifyDecision prints one collective decision.
func (c *Console) NotifyDecision(_ context.Context, d domain.CollectiveDecision) error {
	now := time.Now().Format("15:04:05")
	title := domain.TruncateTitle(d.MarketTitle, d.MarketID, 50)

	if !c.table {
		fmt.Fprintf(c.out, "[%s] %s → %s conf=%.0f%% consensus=%.0f%% size=%.1f%%\n",
			now, title, d.Recommendation,
			d.AggregateConfidence*100, d.ConsensusLevel*100, d.SuggestedSize)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] DECISION: %s\n", now, title)
	fmt.Fprintf(c.out, "  Recommendation: %s", d.Recommendation)
	if d.RecommendedOutcome != "" {
		fmt.Fprintf(c.out, " (%s)", d.RecommendedOutcome)
	}
	fmt.Fprintf(c.out, "\n  Confidence: %.1f%%  Consensus: %.1f%%  Suggested size: %.1f%% of bankroll\n",
		d.AggregateConfidence*100, d.ConsensusLevel*100, d.SuggestedSize)

	if len(d.Votes) > 0 {
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Scorer", "Vote", "Conf", "Rationale")
		for _, v := range d.Votes {
			tbl.Append(
				v.SourceName,
				string(v.Recommendation),
				fmt.Sprintf("%.0f%%", v.Confidence*100),
				truncate(v.Rationale, 60),
			)
		}
		tbl.Render()
	}

	if len(d.SupportingFactors) > 0 {
		fmt.Fprintf(c.out, "  Supporting: %s\n", strings.Join(d.SupportingFactors, "; "))
	}
	if len(d.RiskFactors) > 0 {
		fmt.Fprintf(c.out, "  Risks: %s\n", strings.Join(d.RiskFactors, "; "))
	}
	return nil
}

// NotifyPortfolio prints the ledger summary and open positions.
func (c *Console) NotifyPortfolio(_ context.Context, p domain.Portfolio) error {
	if !c.table {
		fmt.Fprintf(c.out, "[%s] portfolio $%.2f (cash $%.2f) | open %d | pnl $%.2f | win %.0f%%\n",
			time.Now().Format("15:04:05"),
			p.TotalValue, p.Cash, len(p.ActivePositions), p.TotalPnL, p.WinRate*100)
		return nil
	}

	fmt.Fprintf(c.out, "\nPORTFOLIO  total $%.2f | cash $%.2f | pnl $%.2f | trades %d | win rate %.1f%%\n",
		p.TotalValue, p.Cash, p.TotalPnL, p.TotalTrades, p.WinRate*100)

	if len(p.ActivePositions) == 0 {
		fmt.Fprintf(c.out, "  no open positions\n")
		return nil
	}

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Trade", "Market", "Action", "Outcome", "Entry", "Size", "Shares")
	for _, t := range p.ActivePositions {
		tbl.Append(
			shortID(t.TradeID),
			domain.TruncateTitle(t.MarketTitle, t.MarketID, 40),
			string(t.Action),
			t.Outcome,
			fmt.Sprintf("%.2f", t.EntryPrice),
			fmt.Sprintf("$%.2f", t.Size),
			fmt.Sprintf("%.2f", t.Shares),
		)
	}
	tbl.Render()
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
