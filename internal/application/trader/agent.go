// Package trader runs the autonomous paper-trading loop: discover
// markets, gather agent votes, aggregate a decision, execute against
// the simulated portfolio, persist, sleep, repeat.
package trader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/carlo-scr/HalloweenHack/internal/application/agents"
	"github.com/carlo-scr/HalloweenHack/internal/application/decision"
	"github.com/carlo-scr/HalloweenHack/internal/domain"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
)

// Defaults for the loop tunables.
const (
	DefaultCheckInterval   = 5 * time.Minute
	DefaultMarketDelay     = 10 * time.Second
	DefaultErrorBackoff    = time.Minute
	DefaultMinConfidence   = 0.7
	DefaultMinConsensus    = 0.6
	DefaultMaxPositionSize = 500
	DefaultInitialCash     = 10_000
	DefaultTrendingLimit   = 5
)

// Config holds the trading loop settings.
type Config struct {
	// Markets are the identifiers to monitor each cycle. Empty means
	// discover trending markets instead.
	Markets []string

	CheckInterval time.Duration // wait between cycles
	MarketDelay   time.Duration // wait between markets within a cycle
	ErrorBackoff  time.Duration // wait after an unexpected cycle error

	MinConfidence   float64 // decision gate
	MinConsensus    float64 // decision gate
	MaxPositionSize float64 // hard USD cap per trade
	InitialCash     float64 // starting bankroll for a fresh portfolio
	TrendingLimit   int     // markets pulled when Markets is empty

	Aggregation decision.Params
}

func (c *Config) setDefaults() {
	if c.CheckInterval <= 0 {
		c.CheckInterval = DefaultCheckInterval
	}
	if c.MarketDelay <= 0 {
		c.MarketDelay = DefaultMarketDelay
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = DefaultErrorBackoff
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.MinConsensus <= 0 {
		c.MinConsensus = DefaultMinConsensus
	}
	if c.MaxPositionSize <= 0 {
		c.MaxPositionSize = DefaultMaxPositionSize
	}
	if c.InitialCash <= 0 {
		c.InitialCash = DefaultInitialCash
	}
	if c.TrendingLimit <= 0 {
		c.TrendingLimit = DefaultTrendingLimit
	}
	if c.Aggregation == (decision.Params{}) {
		c.Aggregation = decision.DefaultParams()
	}
}

// Agent is the single-writer owner of the portfolio. All ledger
// mutations go through its mutex; the loop, the HTTP endpoints and
// anything else share that one path.
type Agent struct {
	cfg       Config
	collector ports.Collector
	panel     *agents.Panel
	store     ports.PortfolioStore
	decisions ports.DecisionStore // may be nil
	notifier  ports.Notifier      // may be nil

	mu        sync.Mutex // guards portfolio
	portfolio *domain.Portfolio

	stateMu   sync.Mutex // guards the status fields below
	running   bool
	cycles    int
	lastCycle time.Time
}

// New builds the agent and loads persisted portfolio state. A corrupt
// portfolio file is logged and replaced with a fresh ledger rather
// than aborting startup.
func New(
	cfg Config,
	collector ports.Collector,
	panel *agents.Panel,
	store ports.PortfolioStore,
	decisions ports.DecisionStore,
	notifier ports.Notifier,
) (*Agent, error) {
	cfg.setDefaults()
	if collector == nil {
		return nil, fmt.Errorf("trader.New: collector is required")
	}
	if panel == nil {
		return nil, fmt.Errorf("trader.New: scorer panel is required")
	}
	if store == nil {
		return nil, fmt.Errorf("trader.New: portfolio store is required")
	}

	a := &Agent{
		cfg:       cfg,
		collector: collector,
		panel:     panel,
		store:     store,
		decisions: decisions,
		notifier:  notifier,
	}

	loaded, err := store.Load(context.Background())
	switch {
	case err != nil:
		slog.Warn("portfolio state unreadable, starting fresh", "err", err)
		a.portfolio = domain.NewPortfolio(cfg.InitialCash)
	case loaded == nil:
		a.portfolio = domain.NewPortfolio(cfg.InitialCash)
	default:
		a.portfolio = loaded
	}
	return a, nil
}

// Run executes the monitoring loop until the context is cancelled.
// A failure in one market never stops the cycle; an unexpected cycle
// failure only triggers a bounded backoff before the next attempt.
func (a *Agent) Run(ctx context.Context) error {
	slog.Info("trading agent starting",
		"markets", len(a.cfg.Markets),
		"interval", a.cfg.CheckInterval,
		"min_confidence", a.cfg.MinConfidence,
		"min_consensus", a.cfg.MinConsensus,
		"max_position", a.cfg.MaxPositionSize,
		"scorers", a.panel.Names(),
	)
	a.setRunning(true)
	defer a.setRunning(false)

	for {
		if err := a.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				slog.Info("trading agent stopped")
				return nil
			}
			slog.Error("cycle failed, backing off", "err", err, "backoff", a.cfg.ErrorBackoff)
			if !sleep(ctx, a.cfg.ErrorBackoff) {
				slog.Info("trading agent stopped")
				return nil
			}
			continue
		}

		a.markCycle()
		if !sleep(ctx, a.cfg.CheckInterval) {
			slog.Info("trading agent stopped")
			return nil
		}
	}
}

// RunOnce executes exactly one cycle, used by -once and the HTTP
// trigger.
func (a *Agent) RunOnce(ctx context.Context) error {
	if err := a.runCycle(ctx); err != nil {
		return err
	}
	a.markCycle()
	return nil
}

// runCycle discovers the market set and checks each one, observing
// cancellation between markets.
func (a *Agent) runCycle(ctx context.Context) error {
	start := time.Now()

	markets, err := a.discover(ctx)
	if err != nil {
		return fmt.Errorf("trader.runCycle: discover: %w", err)
	}

	checked, traded := 0, 0
	for i, identifier := range markets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i > 0 && !sleep(ctx, a.cfg.MarketDelay) {
			return ctx.Err()
		}

		d, err := a.CheckMarket(ctx, identifier)
		if err != nil {
			// Contained: log, move on to the next market.
			slog.Warn("market check failed", "market", identifier, "err", err)
			continue
		}
		checked++
		if d.IsActionable() {
			traded++
		}
	}

	a.persistPortfolio(ctx)
	a.logPortfolio()

	slog.Info("cycle complete",
		"markets", len(markets),
		"checked", checked,
		"actionable", traded,
		"took", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// discover resolves the cycle's market identifiers: the configured
// watchlist, or the trending markets when no watchlist is set.
func (a *Agent) discover(ctx context.Context) ([]string, error) {
	if len(a.cfg.Markets) > 0 {
		return a.cfg.Markets, nil
	}
	trending, err := a.collector.Trending(ctx, a.cfg.TrendingLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(trending))
	for i, m := range trending {
		ids[i] = m.MarketID
	}
	return ids, nil
}

func (a *Agent) setRunning(v bool) {
	a.stateMu.Lock()
	a.running = v
	a.stateMu.Unlock()
}

func (a *Agent) markCycle() {
	a.stateMu.Lock()
	a.cycles++
	a.lastCycle = time.Now().UTC()
	a.stateMu.Unlock()
}

// Status is a read-only view of the loop state.
type Status struct {
	Running   bool      `json:"running"`
	Cycles    int       `json:"cycles"`
	LastCycle time.Time `json:"last_cycle,omitempty"`
	Markets   []string  `json:"markets"`
	Scorers   []string  `json:"scorers"`
}

// Status reports whether the loop is running and how far it has come.
func (a *Agent) Status() Status {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return Status{
		Running:   a.running,
		Cycles:    a.cycles,
		LastCycle: a.lastCycle,
		Markets:   a.cfg.Markets,
		Scorers:   a.panel.Names(),
	}
}

// sleep waits for d or until ctx is cancelled; returns false on
// cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
