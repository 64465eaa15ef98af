package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
)

// Every response carries the success envelope; errors map onto the
// internal taxonomy: invalid input → 400, missing trade/market → 404,
// collection/internal failures → 500.

func ok(c *gin.Context, payload gin.H) {
	payload["success"] = true
	c.JSON(http.StatusOK, payload)
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownTrade):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, domain.ErrInsufficientFunds):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func failBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	ok(c, gin.H{
		"status":    "ok",
		"service":   "polymarket trading agent",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type collectRequest struct {
	MarketIdentifier string `json:"market_identifier" binding:"required"`
	Method           string `json:"method"`
}

func (s *Server) handleCollect(c *gin.Context) {
	var req collectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBadRequest(c, err)
		return
	}

	method := ports.CollectMethod(req.Method)
	if method == "" {
		method = ports.MethodSearch
	}

	snapshot, err := s.collector.Collect(c.Request.Context(), req.MarketIdentifier, method)
	if err != nil {
		fail(c, err)
		return
	}
	if s.decisions != nil {
		if err := s.decisions.SaveSnapshot(c.Request.Context(), snapshot); err != nil {
			fail(c, err)
			return
		}
	}
	ok(c, gin.H{"market": marketJSON(snapshot)})
}

func (s *Server) handleDecide(c *gin.Context) {
	var req collectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBadRequest(c, err)
		return
	}

	d, err := s.agent.CheckMarket(c.Request.Context(), req.MarketIdentifier)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"decision": decisionJSON(d)})
}

func (s *Server) handleListDecisions(c *gin.Context) {
	if s.decisions == nil {
		ok(c, gin.H{"decisions": []any{}})
		return
	}
	limit := intQuery(c, "limit", 50)
	list, err := s.decisions.ListDecisions(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]gin.H, len(list))
	for i, d := range list {
		out[i] = decisionJSON(d)
	}
	ok(c, gin.H{"decisions": out, "count": len(out)})
}

func (s *Server) handleListMarkets(c *gin.Context) {
	if s.decisions == nil {
		ok(c, gin.H{"markets": []any{}})
		return
	}
	limit := intQuery(c, "limit", 50)
	list, err := s.decisions.ListMarkets(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]gin.H, len(list))
	for i, m := range list {
		out[i] = marketJSON(m)
	}
	ok(c, gin.H{"markets": out, "count": len(out)})
}

type outcomeRequest struct {
	TradeID         string  `json:"trade_id" binding:"required"`
	FinalPrice      float64 `json:"final_price"`
	ResolvedOutcome string  `json:"resolved_outcome" binding:"required"`
}

func (s *Server) handleOutcome(c *gin.Context) {
	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBadRequest(c, err)
		return
	}

	closed, err := s.agent.ResolveMarket(c.Request.Context(), req.TradeID, req.FinalPrice, req.ResolvedOutcome)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"trade": closed})
}

func (s *Server) handlePortfolio(c *gin.Context) {
	p := s.agent.PortfolioSnapshot()
	ok(c, gin.H{"portfolio": p})
}

func (s *Server) handlePositions(c *gin.Context) {
	p := s.agent.PortfolioSnapshot()
	ok(c, gin.H{"positions": p.ActivePositions, "count": len(p.ActivePositions)})
}

func (s *Server) handleHistory(c *gin.Context) {
	history, err := s.agent.TradeHistory(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if history == nil {
		history = []domain.TradeExecution{}
	}
	ok(c, gin.H{"history": history, "count": len(history)})
}

func (s *Server) handleAgentStart(c *gin.Context) {
	started := s.startLoop()
	ok(c, gin.H{"started": started, "status": s.agent.Status()})
}

func (s *Server) handleAgentStop(c *gin.Context) {
	stopped := s.stopLoop()
	ok(c, gin.H{"stopped": stopped, "status": s.agent.Status()})
}

func (s *Server) handleAgentStatus(c *gin.Context) {
	ok(c, gin.H{"status": s.agent.Status()})
}

// marketJSON is the transport shape of a snapshot.
func marketJSON(m domain.MarketSnapshot) gin.H {
	out := gin.H{
		"market_id":      m.MarketID,
		"market_title":   m.Title,
		"market_url":     m.URL,
		"outcomes":       m.Outcomes,
		"current_prices": m.Prices,
		"total_volume":   m.Volume,
		"liquidity":      m.Liquidity,
		"status":         m.Status,
		"collected_at":   m.ObservedAt.Format(time.RFC3339),
	}
	if !m.EndDate.IsZero() {
		out["end_date"] = m.EndDate.Format(time.RFC3339)
	}
	return out
}

// decisionJSON is the transport shape of a collective decision.
func decisionJSON(d domain.CollectiveDecision) gin.H {
	votes := make([]gin.H, len(d.Votes))
	for i, v := range d.Votes {
		votes[i] = gin.H{
			"agent_name":     v.SourceName,
			"recommendation": v.Recommendation,
			"confidence":     v.Confidence,
			"reasoning":      v.Rationale,
			"key_factors":    v.Signals,
		}
	}
	return gin.H{
		"market_id":            d.MarketID,
		"market_title":         d.MarketTitle,
		"final_recommendation": d.Recommendation,
		"recommended_outcome":  d.RecommendedOutcome,
		"aggregate_confidence": d.AggregateConfidence,
		"consensus_level":      d.ConsensusLevel,
		"suggested_bet_size":   d.SuggestedSize,
		"supporting_factors":   d.SupportingFactors,
		"risk_factors":         d.RiskFactors,
		"agent_decisions":      votes,
		"timestamp":            d.DecidedAt.Format(time.RFC3339),
	}
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
