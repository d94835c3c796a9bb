package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/shelf/internal/debug"
)

// SQLite is the default backend: a settings table for preferences and a
// grants table for tree read grants.
type SQLite struct {
	mu   sync.RWMutex
	conn *sql.DB
}

// OpenSQLite initializes the database connection and schema.
func OpenSQLite(dbPath string) (*SQLite, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}

	// WAL mode allows simultaneous readers and writers
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS grants (
			tree_uri TEXT PRIMARY KEY,
			granted_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range append(pragmas, schema...) {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: init %s: %w", dbPath, err)
		}
	}

	debug.Log(debug.STORE, "SQLite opened at %s", dbPath)
	return &SQLite{conn: db}, nil
}

func (s *SQLite) db() (*sql.DB, error) {
	if s.conn == nil {
		return nil, ErrClosed
	}
	return s.conn, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.db()
	if err != nil {
		return "", false, err
	}
	var value string
	err = db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.db()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	debug.Log(debug.STORE, "Set %s=%s", key, value)
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.db()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) AddGrant(ctx context.Context, treeURI string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.db()
	if err != nil {
		return err
	}
	// INSERT OR IGNORE keeps the original grant time
	if _, err := db.ExecContext(ctx, "INSERT OR IGNORE INTO grants (tree_uri) VALUES (?)", treeURI); err != nil {
		return fmt.Errorf("store: add grant: %w", err)
	}
	debug.Log(debug.STORE, "AddGrant %s", treeURI)
	return nil
}

func (s *SQLite) RevokeGrant(ctx context.Context, treeURI string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.db()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM grants WHERE tree_uri = ?", treeURI); err != nil {
		return fmt.Errorf("store: revoke grant: %w", err)
	}
	return nil
}

func (s *SQLite) HasGrant(ctx context.Context, treeURI string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.db()
	if err != nil {
		return false, err
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM grants WHERE tree_uri = ?", treeURI).Scan(&n); err != nil {
		return false, fmt.Errorf("store: has grant: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) ListGrants(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT tree_uri FROM grants ORDER BY granted_at ASC, tree_uri ASC")
	if err != nil {
		return nil, fmt.Errorf("store: list grants: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("store: list grants: %w", err)
		}
		out = append(out, uri)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
