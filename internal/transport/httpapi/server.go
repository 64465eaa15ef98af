// Package httpapi exposes the trading agent over a small REST surface:
// collection and decision triggers, audit reads, outcome recording,
// loop control and portfolio snapshots.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carlo-scr/HalloweenHack/internal/application/trader"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
)

// Server wraps the gin router and owns the background loop lifecycle
// when started over HTTP.
type Server struct {
	addr      string
	router    *gin.Engine
	agent     *trader.Agent
	collector ports.Collector
	decisions ports.DecisionStore // may be nil; audit endpoints 404 gracefully

	loopMu     sync.Mutex
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// NewServer builds the server and registers all routes.
func NewServer(addr string, agent *trader.Agent, collector ports.Collector, decisions ports.DecisionStore) *Server {
	if addr == "" {
		addr = ":8000"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		addr:      addr,
		router:    router,
		agent:     agent,
		collector: collector,
		decisions: decisions,
	}

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/collect", s.handleCollect)
	api.POST("/decide", s.handleDecide)
	api.POST("/collect-and-decide", s.handleDecide)
	api.GET("/decisions", s.handleListDecisions)
	api.GET("/markets", s.handleListMarkets)
	api.POST("/outcome", s.handleOutcome)
	api.GET("/portfolio", s.handlePortfolio)
	api.GET("/positions", s.handlePositions)
	api.GET("/history", s.handleHistory)
	api.POST("/agent/start", s.handleAgentStart)
	api.POST("/agent/stop", s.handleAgentStop)
	api.GET("/agent/status", s.handleAgentStatus)

	return s
}

// Handler returns the underlying router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down
// gracefully and stops any loop it started.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("httpapi.Run: %w", err)
	case <-ctx.Done():
	}

	s.stopLoop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi.Run: shutdown: %w", err)
	}
	slog.Info("http server stopped")
	return nil
}

// startLoop launches the trading loop in the background; no-op when
// already running.
func (s *Server) startLoop() bool {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	if s.loopCancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.loopCancel = cancel
	s.loopDone = done

	go func() {
		defer close(done)
		if err := s.agent.Run(ctx); err != nil {
			slog.Error("trading loop exited with error", "err", err)
		}
	}()
	return true
}

// stopLoop cancels the background loop and waits for it to observe
// the cancellation. In-flight external calls are not aborted; the stop
// completes once the current call returns.
func (s *Server) stopLoop() bool {
	s.loopMu.Lock()
	cancel, done := s.loopCancel, s.loopDone
	s.loopCancel, s.loopDone = nil, nil
	s.loopMu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	<-done
	return true
}

// requestLogger logs one line per request in slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start).Round(time.Millisecond),
		)
	}
}
