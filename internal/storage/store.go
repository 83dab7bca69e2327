// Package storage persists console state as whole JSON snapshots in a key-value store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrKeyNotFound is returned when a key has never been written.
var ErrKeyNotFound = errors.New("key not found")

// Snapshot keys. Each one holds a complete collection.
const (
	KeyUsers    = "naminara_users"
	KeyShips    = "naminara_ships"
	KeyLogs     = "naminara_logs"
	KeyTelegram = "naminara_telegram"
	KeyLogDraft = "naminara_log_draft"
)

// Store is a flat key-value store of raw JSON blobs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Open returns the store for driver. dbPath is used by sqlite, dataDir by file.
func Open(driver, dbPath, dataDir string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLite(dbPath)
	case DriverFile:
		return NewFileStore(dataDir)
	case DriverMemory:
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Snapshots reads and writes typed collections on top of a Store.
type Snapshots struct {
	store Store
	log   *zap.Logger
}

func NewSnapshots(store Store, log *zap.Logger) *Snapshots {
	if log == nil {
		log = zap.NewNop()
	}
	return &Snapshots{store: store, log: log}
}

// Store returns the underlying key-value store
func (s *Snapshots) Store() Store {
	return s.store
}

// Load decodes the snapshot under key. A missing key, a read failure or
// malformed JSON all yield def; the caller never sees an error.
func Load[T any](ctx context.Context, s *Snapshots, key string, def T) T {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.log.Warn("Failed to read snapshot, using default", zap.String("key", key), zap.Error(err))
		}
		return def
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.log.Warn("Malformed snapshot, using default", zap.String("key", key), zap.Error(err))
		return def
	}
	return v
}

// Save writes value as the full snapshot for key.
func (s *Snapshots) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Remove deletes the snapshot. Removing a missing key is not an error.
func (s *Snapshots) Remove(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
