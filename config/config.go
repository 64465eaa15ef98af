package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration.
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

// AgentConfig controls the trading loop and decision thresholds.
type AgentConfig struct {
	Markets            []string `yaml:"markets"`              // watchlist; empty = trending discovery
	IntervalSeconds    int      `yaml:"interval_seconds"`     // wait between cycles
	MarketDelaySeconds int      `yaml:"market_delay_seconds"` // wait between markets in a cycle
	MinConfidence      float64  `yaml:"min_confidence"`
	MinConsensus       float64  `yaml:"min_consensus"`
	MaxPositionSize    float64  `yaml:"max_position_size"` // USD cap per trade
	InitialCash        float64  `yaml:"initial_cash"`
	TrendingLimit      int      `yaml:"trending_limit"`
	SizingThreshold    float64  `yaml:"sizing_threshold"` // min edge to act
	MaxBetPercent      float64  `yaml:"max_bet_percent"`  // bankroll cap per trade
	ConfidenceBoost    float64  `yaml:"confidence_boost"` // 1.0 = neutral
	RandomFallback     bool     `yaml:"random_fallback"`  // legacy guess-on-failure scorers
}

// APIConfig holds the external API endpoints.
type APIConfig struct {
	GammaBase      string `yaml:"gamma_base"`
	ResearchBase   string `yaml:"research_base"`
	ResearchAPIKey string `yaml:"research_api_key"` // usually set via RESEARCH_API_KEY
}

// StorageConfig controls where state is persisted.
type StorageConfig struct {
	DSN           string `yaml:"dsn"`            // SQLite path for the audit log, or ":memory:"
	PortfolioPath string `yaml:"portfolio_path"` // portfolio JSON snapshot
	HistoryPath   string `yaml:"history_path"`   // append-only trade history JSON
}

// HTTPConfig controls the REST surface.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls format and level of logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if present.
// Environment variables override the matching YAML keys.
func Load(path string) (*Config, error) {
	// Load .env if present (error silenced when there is no file).
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// CheckInterval returns the cycle interval as a time.Duration.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Agent.IntervalSeconds) * time.Second
}

// MarketDelay returns the per-market delay as a time.Duration.
func (c *Config) MarketDelay() time.Duration {
	return time.Duration(c.Agent.MarketDelaySeconds) * time.Second
}

// applyEnvOverrides replaces values from environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RESEARCH_API_KEY"); v != "" {
		cfg.API.ResearchAPIKey = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
}

// setDefaults ensures required values carry sane defaults.
func setDefaults(cfg *Config) {
	if cfg.Agent.IntervalSeconds <= 0 {
		cfg.Agent.IntervalSeconds = 300
	}
	if cfg.Agent.MarketDelaySeconds <= 0 {
		cfg.Agent.MarketDelaySeconds = 10
	}
	if cfg.Agent.MinConfidence <= 0 {
		cfg.Agent.MinConfidence = 0.7
	}
	if cfg.Agent.MinConsensus <= 0 {
		cfg.Agent.MinConsensus = 0.6
	}
	if cfg.Agent.MaxPositionSize <= 0 {
		cfg.Agent.MaxPositionSize = 500
	}
	if cfg.Agent.InitialCash <= 0 {
		cfg.Agent.InitialCash = 10_000
	}
	if cfg.Agent.TrendingLimit <= 0 {
		cfg.Agent.TrendingLimit = 5
	}
	if cfg.Agent.SizingThreshold <= 0 {
		cfg.Agent.SizingThreshold = 0.05
	}
	if cfg.Agent.MaxBetPercent <= 0 {
		cfg.Agent.MaxBetPercent = 20
	}
	if cfg.Agent.ConfidenceBoost <= 0 {
		cfg.Agent.ConfidenceBoost = 1.0
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "agent.db"
	}
	if cfg.Storage.PortfolioPath == "" {
		cfg.Storage.PortfolioPath = "data/portfolio.json"
	}
	if cfg.Storage.HistoryPath == "" {
		cfg.Storage.HistoryPath = "data/trades_history.json"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8000"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
