package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

const pendingFile = "pending.json"

// PendingStoreAdapter persists pending entries as JSON in the data directory.
// Writes are per entry: each one re-reads the file under an exclusive lock,
// changes a single key and atomically replaces the file, so invocations
// sharing the directory keep each other's entries. The flock only excludes
// other processes; mu serializes callers within this one.
type PendingStoreAdapter struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewPendingStoreAdapter creates a new PendingStoreAdapter
func NewPendingStoreAdapter(cfg *config.RuntimeConfig) *PendingStoreAdapter {
	path := filepath.Join(cfg.DataDir, pendingFile)
	return &PendingStoreAdapter{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Load reads the persisted entries; a missing file means none
func (s *PendingStoreAdapter) Load(ctx context.Context) (models.PendingTxs, error) {
	unlock, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.read()
}

// Upsert writes one entry, leaving every other entry as found on disk
func (s *PendingStoreAdapter) Upsert(ctx context.Context, entry models.PendingEntry) error {
	unlock, err := s.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	pending, err := s.read()
	if err != nil {
		return err
	}
	pending[entry.TxID] = entry
	return s.write(pending)
}

// Delete removes one entry; deleting an unknown id is a no-op
func (s *PendingStoreAdapter) Delete(ctx context.Context, txID string) error {
	unlock, err := s.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	pending, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := pending[txID]; !ok {
		return nil
	}
	delete(pending, txID)
	return s.write(pending)
}

func (s *PendingStoreAdapter) read() (models.PendingTxs, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return models.PendingTxs{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending file: %w", err)
	}

	pending := models.PendingTxs{}
	if len(data) == 0 {
		return pending, nil
	}
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("failed to parse pending file: %w", err)
	}
	return pending, nil
}

func (s *PendingStoreAdapter) write(pending models.PendingTxs) error {
	data, err := json.MarshalIndent(pending, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pending transactions: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write pending file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace pending file: %w", err)
	}
	return nil
}

// GetPath returns the path to the pending file
func (s *PendingStoreAdapter) GetPath() string {
	return s.path
}

func (s *PendingStoreAdapter) acquire() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	s.mu.Lock()
	if err := s.lock.Lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to lock pending file: %w", err)
	}
	return func() {
		_ = s.lock.Unlock()
		s.mu.Unlock()
	}, nil
}

// Ensure PendingStoreAdapter implements PendingStore
var _ usecase.PendingStore = (*PendingStoreAdapter)(nil)
