package storage

// sqlite.go — the decision audit log.
//
// One row per collective decision, one row per market (upsert on every
// observation). Replaces the in-memory lists a serving layer would
// otherwise accumulate: survives restarts and keeps the HTTP read
// endpoints off the trading loop's hot path.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id      TEXT NOT NULL,
    market_title   TEXT,
    recommendation TEXT NOT NULL,
    outcome        TEXT,
    confidence     REAL NOT NULL DEFAULT 0,
    consensus      REAL NOT NULL DEFAULT 0,
    suggested_size REAL NOT NULL DEFAULT 0,
    supporting     TEXT,
    risks          TEXT,
    votes          TEXT,
    decided_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS markets (
    market_id   TEXT PRIMARY KEY,
    title       TEXT,
    url         TEXT,
    outcomes    TEXT,
    prices      TEXT,
    volume      REAL NOT NULL DEFAULT 0,
    liquidity   REAL NOT NULL DEFAULT 0,
    status      TEXT NOT NULL DEFAULT 'active',
    end_date    DATETIME,
    observed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_at     ON decisions(decided_at DESC);
CREATE INDEX IF NOT EXISTS idx_decisions_market ON decisions(market_id);
CREATE INDEX IF NOT EXISTS idx_markets_observed ON markets(observed_at DESC);
`

// SQLiteStore implements ports.DecisionStore using SQLite (pure Go,
// no CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveSnapshot upserts the latest observation for a market.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, m domain.MarketSnapshot) error {
	outcomes, _ := json.Marshal(m.Outcomes)
	prices, _ := json.Marshal(m.Prices)

	var endDate any
	if !m.EndDate.IsZero() {
		endDate = m.EndDate.UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markets (market_id, title, url, outcomes, prices, volume, liquidity, status, end_date, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(market_id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			outcomes = excluded.outcomes,
			prices = excluded.prices,
			volume = excluded.volume,
			liquidity = excluded.liquidity,
			status = excluded.status,
			end_date = excluded.end_date,
			observed_at = excluded.observed_at`,
		m.MarketID, m.Title, m.URL, string(outcomes), string(prices),
		m.Volume, m.Liquidity, string(m.Status), endDate, m.ObservedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot %s: %w: %w", m.MarketID, domain.ErrPersistence, err)
	}
	return nil
}

// SaveDecision appends one audit row.
func (s *SQLiteStore) SaveDecision(ctx context.Context, d domain.CollectiveDecision) error {
	supporting, _ := json.Marshal(d.SupportingFactors)
	risks, _ := json.Marshal(d.RiskFactors)
	votes, _ := json.Marshal(d.VotesBySource())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (market_id, market_title, recommendation, outcome, confidence, consensus, suggested_size, supporting, risks, votes, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.MarketID, d.MarketTitle, string(d.Recommendation), d.RecommendedOutcome,
		d.AggregateConfidence, d.ConsensusLevel, d.SuggestedSize,
		string(supporting), string(risks), string(votes), d.DecidedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveDecision %s: %w: %w", d.MarketID, domain.ErrPersistence, err)
	}
	return nil
}

// ListDecisions returns up to limit decisions, newest first. The
// per-vote detail is not reconstructed; the votes column carries the
// source → recommendation audit map.
func (s *SQLiteStore) ListDecisions(ctx context.Context, limit int) ([]domain.CollectiveDecision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, market_title, recommendation, outcome, confidence, consensus, suggested_size, supporting, risks, decided_at
		FROM decisions ORDER BY decided_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListDecisions: %w: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.CollectiveDecision
	for rows.Next() {
		var (
			d                 domain.CollectiveDecision
			rec, outcome      string
			supporting, risks string
			decidedAt         time.Time
		)
		if err := rows.Scan(&d.MarketID, &d.MarketTitle, &rec, &outcome,
			&d.AggregateConfidence, &d.ConsensusLevel, &d.SuggestedSize,
			&supporting, &risks, &decidedAt); err != nil {
			return nil, fmt.Errorf("storage.ListDecisions: scan: %w", err)
		}
		d.Recommendation = domain.Recommendation(rec)
		d.RecommendedOutcome = outcome
		d.DecidedAt = decidedAt
		json.Unmarshal([]byte(supporting), &d.SupportingFactors)
		json.Unmarshal([]byte(risks), &d.RiskFactors)
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListMarkets returns the latest snapshot per market, most recently
// observed first.
func (s *SQLiteStore) ListMarkets(ctx context.Context, limit int) ([]domain.MarketSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, title, url, outcomes, prices, volume, liquidity, status, end_date, observed_at
		FROM markets ORDER BY observed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListMarkets: %w: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.MarketSnapshot
	for rows.Next() {
		var (
			snap             domain.MarketSnapshot
			outcomes, prices string
			status           string
			endDate          sql.NullTime
		)
		if err := rows.Scan(&snap.MarketID, &snap.Title, &snap.URL, &outcomes, &prices,
			&snap.Volume, &snap.Liquidity, &status, &endDate, &snap.ObservedAt); err != nil {
			return nil, fmt.Errorf("storage.ListMarkets: scan: %w", err)
		}
		snap.Status = domain.MarketStatus(status)
		if endDate.Valid {
			snap.EndDate = endDate.Time
		}
		json.Unmarshal([]byte(outcomes), &snap.Outcomes)
		json.Unmarshal([]byte(prices), &snap.Prices)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
