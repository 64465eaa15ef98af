package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlo-scr/HalloweenHack/internal/adapters/polymarket"
	"github.com/carlo-scr/HalloweenHack/internal/adapters/storage"
	"github.com/carlo-scr/HalloweenHack/internal/application/agents"
	"github.com/carlo-scr/HalloweenHack/internal/application/trader"
	"github.com/carlo-scr/HalloweenHack/internal/domain"
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

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFileStore(filepath.Join(dir, "portfolio.json"), filepath.Join(dir, "history.json"))
	require.NoError(t, err)
	decisions, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { decisions.Close() })

	collector := polymarket.NewFixture()
	panel := agents.NewPanel(
		stubScorer{name: "a", rec: domain.RecommendYes, conf: 0.9},
		stubScorer{name: "b", rec: domain.RecommendYes, conf: 0.9},
	)
	agent, err := trader.New(trader.Config{}, collector, panel, store, decisions, nil)
	require.NoError(t, err)

	return NewServer(":0", agent, collector, decisions)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w, decoded
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	w, body := doJSON(t, s, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["status"])
}

func TestServer_Collect(t *testing.T) {
	s := newTestServer(t)
	w, body := doJSON(t, s, http.MethodPost, "/api/collect", gin.H{"market_identifier": "fed rate cut"})

	require.Equal(t, http.StatusOK, w.Code)
	market := body["market"].(map[string]any)
	assert.Equal(t, "fed-rate-cut", market["market_id"])
	prices := market["current_prices"].(map[string]any)
	assert.InDelta(t, 0.65, prices["Yes"].(float64), 0.0001)
}

func TestServer_Collect_MissingIdentifier(t *testing.T) {
	s := newTestServer(t)
	w, body := doJSON(t, s, http.MethodPost, "/api/collect", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestServer_DecideExecutesAndRecords(t *testing.T) {
	s := newTestServer(t)
	w, body := doJSON(t, s, http.MethodPost, "/api/decide", gin.H{"market_identifier": "some-market"})

	require.Equal(t, http.StatusOK, w.Code)
	decision := body["decision"].(map[string]any)
	assert.Equal(t, "YES", decision["final_recommendation"])
	assert.InDelta(t, 0.9, decision["aggregate_confidence"].(float64), 0.0001)
	votes := decision["agent_decisions"].([]any)
	assert.Len(t, votes, 2)

	// The decision landed in the audit store.
	_, listBody := doJSON(t, s, http.MethodGet, "/api/decisions", nil)
	assert.EqualValues(t, 1, listBody["count"])

	// And the trade shows up in the portfolio.
	_, pBody := doJSON(t, s, http.MethodGet, "/api/positions", nil)
	assert.EqualValues(t, 1, pBody["count"])
}

func TestServer_OutcomeLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, body := doJSON(t, s, http.MethodPost, "/api/decide", gin.H{"market_identifier": "some-market"})
	require.Equal(t, true, body["success"])

	_, posBody := doJSON(t, s, http.MethodGet, "/api/positions", nil)
	positions := posBody["positions"].([]any)
	require.Len(t, positions, 1)
	tradeID := positions[0].(map[string]any)["trade_id"].(string)

	w, outBody := doJSON(t, s, http.MethodPost, "/api/outcome", gin.H{
		"trade_id":         tradeID,
		"final_price":      1.0,
		"resolved_outcome": "Yes",
	})
	require.Equal(t, http.StatusOK, w.Code)
	trade := outBody["trade"].(map[string]any)
	assert.Equal(t, "closed", trade["status"])
	assert.Greater(t, trade["pnl"].(float64), 0.0)

	// Settling again is a 404.
	w, _ = doJSON(t, s, http.MethodPost, "/api/outcome", gin.H{
		"trade_id":         tradeID,
		"final_price":      1.0,
		"resolved_outcome": "Yes",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Outcome_UnknownTrade(t *testing.T) {
	s := newTestServer(t)
	w, body := doJSON(t, s, http.MethodPost, "/api/outcome", gin.H{
		"trade_id":         "missing",
		"resolved_outcome": "Yes",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestServer_PortfolioAndHistory(t *testing.T) {
	s := newTestServer(t)

	_, body := doJSON(t, s, http.MethodGet, "/api/portfolio", nil)
	portfolio := body["portfolio"].(map[string]any)
	assert.InDelta(t, 10_000, portfolio["cash"].(float64), 0.0001)

	_, hBody := doJSON(t, s, http.MethodGet, "/api/history", nil)
	assert.EqualValues(t, 0, hBody["count"])
	assert.NotNil(t, hBody["history"])
}

func TestServer_Markets(t *testing.T) {
	s := newTestServer(t)
	_, _ = doJSON(t, s, http.MethodPost, "/api/collect", gin.H{"market_identifier": "alpha-market"})
	_, _ = doJSON(t, s, http.MethodPost, "/api/collect", gin.H{"market_identifier": "beta-market"})

	_, body := doJSON(t, s, http.MethodGet, "/api/markets", nil)
	assert.EqualValues(t, 2, body["count"])
}

func TestServer_AgentStartStopStatus(t *testing.T) {
	s := newTestServer(t)

	_, body := doJSON(t, s, http.MethodGet, "/api/agent/status", nil)
	status := body["status"].(map[string]any)
	assert.Equal(t, false, status["running"])

	_, startBody := doJSON(t, s, http.MethodPost, "/api/agent/start", nil)
	assert.Equal(t, true, startBody["started"])

	// Starting twice is a no-op.
	_, againBody := doJSON(t, s, http.MethodPost, "/api/agent/start", nil)
	assert.Equal(t, false, againBody["started"])

	_, stopBody := doJSON(t, s, http.MethodPost, "/api/agent/stop", nil)
	assert.Equal(t, true, stopBody["stopped"])

	_, stopAgain := doJSON(t, s, http.MethodPost, "/api/agent/stop", nil)
	assert.Equal(t, false, stopAgain["stopped"])
}
