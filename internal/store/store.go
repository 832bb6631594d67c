// Package store implements LocalStore, the single key/value persistence
// layer shared by every engine (spec.md §4.7). It keeps the teacher's
// database/sql + go-sqlite3 wiring (internal/db in nomercy360-atamagaii)
// but collapses the teacher's many typed tables into the one concern the
// specification keeps in scope: a namespaced key to JSON-encoded blob
// store, guarded by a single mutex.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"eduengine/domain"
)

// LocalStore is a typed, thread-safe key -> JSON blob store backed by a
// single SQLite table. All operations acquire the same mutex; concurrent
// access from multiple engines is safe (spec.md §4.7, §5).
type LocalStore struct {
	mu        sync.Mutex
	db        *sql.DB
	namespace string
	logger    *slog.Logger
}

// Open creates or attaches to a SQLite-backed LocalStore at path (use
// ":memory:" for a process-local, non-durable store) and ensures the
// backing kv table exists.
func Open(path string, namespace string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create kv table: %w", err)
	}

	return &LocalStore{db: db, namespace: namespace, logger: logger}, nil
}

// Close releases the underlying SQLite connection.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *LocalStore) namespaced(key string) string {
	return s.namespace + "." + key
}

// Save JSON-encodes value and stores it under key. A save failure is
// reported to the caller; prior state in the database is left intact.
func (s *LocalStore) Save(key string, value interface{}) error {
	blob, err := json.Marshal(value)
	if err != nil {
		s.logger.Debug("store: encode failed", "key", key, "error", err)
		return fmt.Errorf("store: encode %q: %w: %w", key, domain.ErrPersistenceFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		s.namespaced(key), blob,
	)
	if err != nil {
		s.logger.Debug("store: write failed", "key", key, "error", err)
		return fmt.Errorf("store: write %q: %w: %w", key, domain.ErrPersistenceFailure, err)
	}
	return nil
}

// Load decodes the blob stored under key into dst. It reports whether a
// value was present. An unreadable or missing blob is treated as absent
// (found=false, err=nil) per spec.md §4.7/§7; decode errors are logged
// at debug level rather than surfaced to the caller.
func (s *LocalStore) Load(key string, dst interface{}) (found bool, err error) {
	s.mu.Lock()
	var blob []byte
	row := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, s.namespaced(key))
	scanErr := row.Scan(&blob)
	s.mu.Unlock()

	if scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return false, nil
		}
		s.logger.Debug("store: read failed", "key", key, "error", scanErr)
		return false, nil
	}

	if err := json.Unmarshal(blob, dst); err != nil {
		s.logger.Debug("store: decode failed", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Remove deletes the value stored under key, if any.
func (s *LocalStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, s.namespaced(key))
	if err != nil {
		return fmt.Errorf("store: remove %q: %w", key, err)
	}
	return nil
}

// Exists reports whether a value is currently stored under key.
func (s *LocalStore) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var one int
	err := s.db.QueryRow(`SELECT 1 FROM kv WHERE key = ?`, s.namespaced(key)).Scan(&one)
	return err == nil
}

// ClearPrefix deletes every key (within this store's namespace) whose
// suffix starts with prefix.
func (s *LocalStore) ClearPrefix(prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern := escapeLike(s.namespaced(prefix)) + "%"
	_, err := s.db.Exec(`DELETE FROM kv WHERE key LIKE ? ESCAPE '\'`, pattern)
	if err != nil {
		return fmt.Errorf("store: clear prefix %q: %w", prefix, err)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
