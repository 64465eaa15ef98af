package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlo-scr/HalloweenHack/config"
	"github.com/carlo-scr/HalloweenHack/internal/adapters/notify"
	"github.com/carlo-scr/HalloweenHack/internal/adapters/polymarket"
	"github.com/carlo-scr/HalloweenHack/internal/adapters/research"
	"github.com/carlo-scr/HalloweenHack/internal/adapters/storage"
	"github.com/carlo-scr/HalloweenHack/internal/application/agents"
	"github.com/carlo-scr/HalloweenHack/internal/application/decision"
	"github.com/carlo-scr/HalloweenHack/internal/application/trader"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
	"github.com/carlo-scr/HalloweenHack/internal/transport/httpapi"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	dryRun := flag.Bool("dry-run", false, "use local fixtures instead of real APIs")
	serve := flag.Bool("serve", false, "expose the REST API instead of looping")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full decision + portfolio tables (default: compact)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("trading agent starting",
		"config", *configPath,
		"interval", cfg.CheckInterval(),
		"dry_run", *dryRun,
		"once", *once,
		"serve", *serve,
	)

	var collector ports.Collector
	if *dryRun {
		collector = polymarket.NewFixture()
	} else {
		collector = polymarket.NewClient(cfg.API.GammaBase)
	}

	decisions, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open decision store", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer decisions.Close()

	store, err := storage.NewFileStore(cfg.Storage.PortfolioPath, cfg.Storage.HistoryPath)
	if err != nil {
		slog.Error("failed to open portfolio store", "err", err)
		os.Exit(1)
	}
	notifier := notify.NewConsole(*table)

	var fallback ports.FallbackStrategy = agents.HoldFallback{}
	if cfg.Agent.RandomFallback {
		fallback = agents.NewRandomFallback(rand.New(rand.NewSource(time.Now().UnixNano())))
	}

	scorers := []ports.Scorer{
		agents.NewDataQuality(),
		agents.NewOddsAnalyzer(),
	}
	if cfg.API.ResearchAPIKey != "" && !*dryRun {
		researcher := research.NewClient(cfg.API.ResearchBase, cfg.API.ResearchAPIKey)
		scorers = append(scorers,
			agents.NewSentiment(researcher, fallback),
			agents.NewResearch(researcher, fallback),
		)
	} else {
		slog.Info("research API key not set, running with market scorers only")
	}
	panel := agents.NewPanel(scorers...)

	traderCfg := trader.Config{
		Markets:         cfg.Agent.Markets,
		CheckInterval:   cfg.CheckInterval(),
		MarketDelay:     cfg.MarketDelay(),
		MinConfidence:   cfg.Agent.MinConfidence,
		MinConsensus:    cfg.Agent.MinConsensus,
		MaxPositionSize: cfg.Agent.MaxPositionSize,
		InitialCash:     cfg.Agent.InitialCash,
		TrendingLimit:   cfg.Agent.TrendingLimit,
		Aggregation: decision.Params{
			SizingThreshold: cfg.Agent.SizingThreshold,
			MaxBetPercent:   cfg.Agent.MaxBetPercent,
			ConfidenceBoost: cfg.Agent.ConfidenceBoost,
			KellyDivisor:    decision.DefaultParams().KellyDivisor,
		},
	}

	agent, err := trader.New(traderCfg, collector, panel, store, decisions, notifier)
	if err != nil {
		slog.Error("failed to initialize agent", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *serve {
		server := httpapi.NewServer(cfg.HTTP.Addr, agent, collector, decisions)
		if err := server.Run(ctx); err != nil {
			slog.Error("server exited with error", "err", err)
			os.Exit(1)
		}
		slog.Info("server stopped cleanly")
		return
	}

	if *once {
		if err := agent.RunOnce(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := agent.Run(ctx); err != nil {
		slog.Error("agent exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("trading agent stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
