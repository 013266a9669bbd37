// Package sqlite provides the default durable backend: the in-memory store
// snapshotted to a single SQLite table as JSON blobs after every
// successful transaction, plus a sequence bucket for the box-number
// high-water mark. No server process is required.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/felipi-hub/boxship-sistema/internal/infra/persistence/memory"
	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Store persists the in-memory state to SQLite. It snapshots the full
// state after every successful transaction.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) a snapshotting SQLite-backed store
// at path and hydrates it from any existing snapshot.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "boxship.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{"clients", "products", "boxes", "notifications", "sequence"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	snapshot := memory.Snapshot{}
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		found = true
		switch bucket {
		case "clients":
			if err := json.Unmarshal(payload, &snapshot.Clients); err != nil {
				return fmt.Errorf("decode clients: %w", err)
			}
		case "products":
			if err := json.Unmarshal(payload, &snapshot.Products); err != nil {
				return fmt.Errorf("decode products: %w", err)
			}
		case "boxes":
			if err := json.Unmarshal(payload, &snapshot.Boxes); err != nil {
				return fmt.Errorf("decode boxes: %w", err)
			}
		case "notifications":
			if err := json.Unmarshal(payload, &snapshot.Notifications); err != nil {
				return fmt.Errorf("decode notifications: %w", err)
			}
		case "sequence":
			if err := json.Unmarshal(payload, &snapshot.BoxSeq); err != nil {
				return fmt.Errorf("decode sequence: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if !found {
		return nil
	}
	return s.Store.ImportState(snapshot)
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case "clients":
			data, err = json.Marshal(snapshot.Clients)
		case "products":
			data, err = json.Marshal(snapshot.Products)
		case "boxes":
			data, err = json.Marshal(snapshot.Boxes)
		case "notifications":
			data, err = json.Marshal(snapshot.Notifications)
		case "sequence":
			data, err = json.Marshal(snapshot.BoxSeq)
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// RunInTransaction applies fn within a transaction, then snapshots state to
// SQLite when the transaction commits.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// ImportState replaces the in-memory state and snapshots it immediately.
// A failed durable write is reported so restore callers never treat a
// lost snapshot as applied.
func (s *Store) ImportState(snapshot memory.Snapshot) error {
	if err := s.Store.ImportState(snapshot); err != nil {
		return err
	}
	return s.persist()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
