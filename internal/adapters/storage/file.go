// Package storage persists the trading state: the portfolio ledger as
// JSON files and the decision audit log in SQLite.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

// FileStore implements ports.PortfolioStore on two JSON files: the
// portfolio snapshot and the append-only trade history. Writes go
// through a temp file and rename so readers never observe a torn
// write.
type FileStore struct {
	portfolioPath string
	historyPath   string
	mu            sync.Mutex
}

// NewFileStore creates the store, making parent directories as needed.
func NewFileStore(portfolioPath, historyPath string) (*FileStore, error) {
	for _, p := range []string{portfolioPath, historyPath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("storage.NewFileStore: mkdir %q: %w: %w", dir, domain.ErrPersistence, err)
			}
		}
	}
	return &FileStore{portfolioPath: portfolioPath, historyPath: historyPath}, nil
}

// Load reads the persisted portfolio. A missing file means a fresh
// start and returns (nil, nil); a corrupt file is an error the caller
// decides how to handle, never silently discarded.
func (s *FileStore) Load(_ context.Context) (*domain.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.portfolioPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.Load: read %q: %w: %w", s.portfolioPath, domain.ErrPersistence, err)
	}

	var p domain.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("storage.Load: parse %q: %w: %w", s.portfolioPath, domain.ErrPersistence, err)
	}
	return &p, nil
}

// Save writes the full portfolio snapshot atomically.
func (s *FileStore) Save(_ context.Context, p *domain.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.Save: marshal: %w: %w", domain.ErrPersistence, err)
	}
	return s.writeAtomic(s.portfolioPath, data)
}

// AppendTrade adds one execution to the history file.
func (s *FileStore) AppendTrade(_ context.Context, trade domain.TradeExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.readHistory()
	if err != nil {
		return err
	}
	history = append(history, trade)

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.AppendTrade: marshal: %w: %w", domain.ErrPersistence, err)
	}
	return s.writeAtomic(s.historyPath, data)
}

// History returns all recorded executions, oldest first.
func (s *FileStore) History(_ context.Context) ([]domain.TradeExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readHistory()
}

func (s *FileStore) readHistory() ([]domain.TradeExecution, error) {
	data, err := os.ReadFile(s.historyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.History: read %q: %w: %w", s.historyPath, domain.ErrPersistence, err)
	}
	var history []domain.TradeExecution
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("storage.History: parse %q: %w: %w", s.historyPath, domain.ErrPersistence, err)
	}
	return history, nil
}

// writeAtomic writes to a temp file in the target directory and
// renames it over the destination.
func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage.writeAtomic: temp for %q: %w: %w", path, domain.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage.writeAtomic: write %q: %w: %w", path, domain.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage.writeAtomic: close %q: %w: %w", path, domain.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage.writeAtomic: rename %q: %w: %w", path, domain.ErrPersistence, err)
	}
	return nil
}
