package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot(id string, observed time.Time) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		MarketID:   id,
		Title:      "Will it happen?",
		URL:        "https://polymarket.com/market/will-it-happen",
		Outcomes:   []string{"Yes", "No"},
		Prices:     map[string]float64{"Yes": 0.65, "No": 0.35},
		Volume:     1_000_000,
		Liquidity:  500_000,
		Status:     domain.StatusActive,
		EndDate:    observed.Add(30 * 24 * time.Hour),
		ObservedAt: observed,
	}
}

func sampleDecision(id string, decided time.Time) domain.CollectiveDecision {
	return domain.CollectiveDecision{
		MarketID:            id,
		MarketTitle:         "Will it happen?",
		Recommendation:      domain.RecommendYes,
		RecommendedOutcome:  "Yes",
		AggregateConfidence: 0.72,
		ConsensusLevel:      0.67,
		SuggestedSize:       12.5,
		SupportingFactors:   []string{"High trading volume"},
		RiskFactors:         []string{"High market margin"},
		Votes: []domain.AgentVote{
			{SourceName: "odds_analyzer", Recommendation: domain.RecommendYes, Confidence: 0.72},
		},
		DecidedAt: decided,
	}
}

func TestSQLiteStore_SaveAndListDecisions(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		d := sampleDecision(fmt.Sprintf("0xmkt%d", i), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.SaveDecision(ctx, d))
	}

	got, err := s.ListDecisions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Newest first.
	assert.Equal(t, "0xmkt2", got[0].MarketID)
	assert.Equal(t, "0xmkt0", got[2].MarketID)

	d := got[0]
	assert.Equal(t, domain.RecommendYes, d.Recommendation)
	assert.Equal(t, "Yes", d.RecommendedOutcome)
	assert.InDelta(t, 0.72, d.AggregateConfidence, 0.0001)
	assert.InDelta(t, 12.5, d.SuggestedSize, 0.0001)
	assert.Equal(t, []string{"High trading volume"}, d.SupportingFactors)
	assert.Equal(t, []string{"High market margin"}, d.RiskFactors)
	assert.True(t, d.DecidedAt.Equal(base.Add(2*time.Hour)))
}

func TestSQLiteStore_ListDecisionsLimit(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveDecision(ctx, sampleDecision(fmt.Sprintf("0x%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	got, err := s.ListDecisions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLiteStore_SnapshotUpsert(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	first := sampleSnapshot("0xmkt", base)
	require.NoError(t, s.SaveSnapshot(ctx, first))

	// Same market observed again with moved prices: one row, updated.
	second := sampleSnapshot("0xmkt", base.Add(time.Hour))
	second.Prices = map[string]float64{"Yes": 0.70, "No": 0.30}
	require.NoError(t, s.SaveSnapshot(ctx, second))

	got, err := s.ListMarkets(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0xmkt", got[0].MarketID)
	assert.InDelta(t, 0.70, got[0].Prices["Yes"], 0.0001)
	assert.Equal(t, []string{"Yes", "No"}, got[0].Outcomes)
	assert.Equal(t, domain.StatusActive, got[0].Status)
}

func TestSQLiteStore_ListMarketsNewestFirst(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("0xold", base)))
	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("0xnew", base.Add(time.Hour))))

	got, err := s.ListMarkets(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0xnew", got[0].MarketID)
}

func TestSQLiteStore_EmptyLists(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	decisions, err := s.ListDecisions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, decisions)

	markets, err := s.ListMarkets(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, markets)
}
