package trader

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlo-scr/HalloweenHack/internal/adapters/polymarket"
	"github.com/carlo-scr/HalloweenHack/internal/adapters/storage"
	"github.com/carlo-scr/HalloweenHack/internal/application/agents"
	"github.com/carlo-scr/HalloweenHack/internal/application/decision"
	"github.com/carlo-scr/HalloweenHack/internal/domain"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
)

// stubScorer votes a fixed recommendation with fixed confidence.
type stubScorer struct {
	name string
	rec  domain.Recommendation
	conf float64
}

func (s stubScorer) Name() string { return s.name }

func (s stubScorer) Score(context.Context, domain.MarketSnapshot) (domain.AgentVote, error) {
	return domain.AgentVote{SourceName: s.name, Recommendation: s.rec, Confidence: s.conf}, nil
}

func newTestAgent(t *testing.T, cfg Config, scorers ...ports.Scorer) *Agent {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFileStore(filepath.Join(dir, "portfolio.json"), filepath.Join(dir, "history.json"))
	require.NoError(t, err)

	if len(scorers) == 0 {
		scorers = []ports.Scorer{
			stubScorer{name: "a", rec: domain.RecommendYes, conf: 0.9},
			stubScorer{name: "b", rec: domain.RecommendYes, conf: 0.9},
		}
	}

	a, err := New(cfg, polymarket.NewFixture(), agents.NewPanel(scorers...), store, nil, nil)
	require.NoError(t, err)
	return a
}

func TestAgent_CheckMarket_ExecutesTrade(t *testing.T) {
	a := newTestAgent(t, Config{})

	// Fixture market: Yes at 0.65. Two YES votes at 0.9 → confidence
	// 0.9, edge 0.25 → 12.5% of the $10k bankroll, capped at $500.
	d, err := a.CheckMarket(context.Background(), "fed-rate-cut")
	require.NoError(t, err)

	assert.Equal(t, domain.RecommendYes, d.Recommendation)
	assert.True(t, d.IsActionable())

	p := a.PortfolioSnapshot()
	require.Len(t, p.ActivePositions, 1)
	trade := p.ActivePositions[0]
	assert.Equal(t, domain.ActionBuy, trade.Action)
	assert.Equal(t, "Yes", trade.Outcome)
	assert.InDelta(t, 500, trade.Size, 0.0001) // MaxPositionSize cap
	assert.InDelta(t, 0.65, trade.EntryPrice, 0.0001)
	assert.InDelta(t, 9_500, p.Cash, 0.0001)
	assert.Equal(t, map[string]string{"a": "YES", "b": "YES"}, trade.AgentVotes)

	// The execution also lands in the history file.
	history, err := a.TradeHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, trade.TradeID, history[0].TradeID)
}

func TestAgent_CheckMarket_LowConfidenceSkips(t *testing.T) {
	a := newTestAgent(t, Config{},
		stubScorer{name: "a", rec: domain.RecommendNo, conf: 0.95},
		stubScorer{name: "b", rec: domain.RecommendNo, conf: 0.3},
	)

	// NO wins with mean confidence 0.625, edge vs the 0.35 NO quote
	// clears the sizing bar but fails the 0.7 confidence gate.
	d, err := a.CheckMarket(context.Background(), "some-market")
	require.NoError(t, err)
	assert.True(t, d.IsActionable())
	assert.Empty(t, a.PortfolioSnapshot().ActivePositions)
}

func TestAgent_CheckMarket_LowConsensusSkips(t *testing.T) {
	a := newTestAgent(t, Config{MinConsensus: 0.75},
		stubScorer{name: "a", rec: domain.RecommendYes, conf: 0.95},
		stubScorer{name: "b", rec: domain.RecommendNo, conf: 0.2},
	)

	_, err := a.CheckMarket(context.Background(), "some-market")
	require.NoError(t, err)
	assert.Empty(t, a.PortfolioSnapshot().ActivePositions)
}

func TestAgent_CheckMarket_HoldDoesNotTrade(t *testing.T) {
	// Confidence 0.66 against the 0.65 price: edge under the bar,
	// forced HOLD.
	a := newTestAgent(t, Config{},
		stubScorer{name: "a", rec: domain.RecommendYes, conf: 0.66},
	)

	d, err := a.CheckMarket(context.Background(), "some-market")
	require.NoError(t, err)
	assert.Equal(t, domain.RecommendHold, d.Recommendation)
	assert.Empty(t, a.PortfolioSnapshot().ActivePositions)
}

func TestAgent_Decide_RejectsInactiveMarket(t *testing.T) {
	a := newTestAgent(t, Config{})

	snapshot := domain.MarketSnapshot{
		MarketID: "0xdone",
		Outcomes: []string{"Yes", "No"},
		Prices:   map[string]float64{"Yes": 0.99, "No": 0.01},
		Status:   domain.StatusResolved,
	}
	_, err := a.Decide(context.Background(), snapshot)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestAgent_ResolveMarket(t *testing.T) {
	a := newTestAgent(t, Config{})
	ctx := context.Background()

	_, err := a.CheckMarket(ctx, "some-market")
	require.NoError(t, err)
	tradeID := a.PortfolioSnapshot().ActivePositions[0].TradeID

	closed, err := a.ResolveMarket(ctx, tradeID, 1.0, "Yes")
	require.NoError(t, err)
	require.NotNil(t, closed.PnL)
	// Bought $500 of Yes at 0.65: (1 − 0.65) × 769.23 shares.
	assert.InDelta(t, 269.23, *closed.PnL, 0.01)

	p := a.PortfolioSnapshot()
	assert.Empty(t, p.ActivePositions)
	require.Len(t, p.ClosedPositions, 1)
	assert.InDelta(t, 10_269.23, p.Cash, 0.01)
	assert.Equal(t, 1, p.WinningTrades)

	// Settling the same trade twice is rejected.
	_, err = a.ResolveMarket(ctx, tradeID, 1.0, "Yes")
	assert.ErrorIs(t, err, domain.ErrUnknownTrade)
}

func TestAgent_RunOnce_Watchlist(t *testing.T) {
	a := newTestAgent(t, Config{
		Markets:     []string{"market-one", "market-two"},
		MarketDelay: time.Millisecond,
	})

	require.NoError(t, a.RunOnce(context.Background()))

	st := a.Status()
	assert.Equal(t, 1, st.Cycles)
	assert.False(t, st.Running)
	// One position per market: both cleared the gates.
	assert.Len(t, a.PortfolioSnapshot().ActivePositions, 2)
}

func TestAgent_RunOnce_TrendingDiscovery(t *testing.T) {
	a := newTestAgent(t, Config{
		TrendingLimit: 3,
		MarketDelay:   time.Millisecond,
	})

	require.NoError(t, a.RunOnce(context.Background()))
	assert.Len(t, a.PortfolioSnapshot().ActivePositions, 3)
}

func TestAgent_Run_StopsOnCancel(t *testing.T) {
	a := newTestAgent(t, Config{
		Markets:       []string{"market-one"},
		CheckInterval: time.Hour,
		MarketDelay:   time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	assert.False(t, a.Status().Running)
}

func TestAgent_PersistedStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(filepath.Join(dir, "portfolio.json"), filepath.Join(dir, "history.json"))
	require.NoError(t, err)
	panel := agents.NewPanel(stubScorer{name: "a", rec: domain.RecommendYes, conf: 0.9})
	collector := polymarket.NewFixture()

	first, err := New(Config{}, collector, panel, store, nil, nil)
	require.NoError(t, err)
	_, err = first.CheckMarket(context.Background(), "some-market")
	require.NoError(t, err)
	cash := first.PortfolioSnapshot().Cash

	second, err := New(Config{}, collector, panel, store, nil, nil)
	require.NoError(t, err)
	p := second.PortfolioSnapshot()
	assert.InDelta(t, cash, p.Cash, 0.0001)
	assert.Len(t, p.ActivePositions, 1)
}

func TestTradeSide(t *testing.T) {
	snapshot := domain.MarketSnapshot{
		Outcomes: []string{"Yes", "No"},
		Prices:   map[string]float64{"Yes": 0.65, "No": 0.35},
	}

	action, outcome, price := tradeSide(domain.CollectiveDecision{
		Recommendation:     domain.RecommendYes,
		RecommendedOutcome: "Yes",
	}, snapshot)
	assert.Equal(t, domain.ActionBuy, action)
	assert.Equal(t, "Yes", outcome)
	assert.Equal(t, 0.65, price)

	action, outcome, price = tradeSide(domain.CollectiveDecision{
		Recommendation: domain.RecommendNo,
	}, snapshot)
	assert.Equal(t, domain.ActionSell, action)
	assert.Equal(t, "Yes", outcome)
	assert.Equal(t, 0.65, price)
}

func TestMethodFor(t *testing.T) {
	assert.Equal(t, ports.MethodID, methodFor("0x123abc"))
	assert.Equal(t, ports.MethodSlug, methodFor("fed-rate-cut-december"))
	assert.Equal(t, ports.MethodSearch, methodFor("fed rate cut"))
	assert.Equal(t, ports.MethodSearch, methodFor("election"))
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults()
	assert.Equal(t, DefaultCheckInterval, cfg.CheckInterval)
	assert.Equal(t, float64(DefaultMinConfidence), cfg.MinConfidence)
	assert.Equal(t, decision.DefaultParams(), cfg.Aggregation)
}
