/*
Package sqlite provides the SQLite-backed snapshot store.

PURPOSE:
  The rating engine is pure; the hosting application keeps history by
  storing CalculationResult snapshots verbatim as opaque JSON documents.
  This store implements exactly that collaborator: append-only snapshot
  rows keyed by a quote reference, latest-wins retrieval.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE on snapshots
  - A re-computation or a manual edit appends a new snapshot
  - The payload is never inspected or migrated by the store

KEY TABLES:
  snapshots: (id, quote_ref, payload, created_at) opaque documents

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and a single writer proceeds at a time.

USAGE:
  store, err := sqlite.New("./data/quotes.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  id, err := store.Append(ctx, "Q-2026-0042", payload)
  latest, err := store.Latest(ctx, "Q-2026-0042")

SEE ALSO:
  - api/handlers.go: the only writer and reader of this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrSnapshotNotFound is returned when a quote reference has no snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is one stored document. Payload stays raw JSON end to end.
type Snapshot struct {
	ID        int64           `json:"id"`
	QuoteRef  string          `json:"quoteRef"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store persists opaque CalculationResult snapshots.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Snapshots (append-only, opaque payloads)
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quote_ref TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_quote_ref
		ON snapshots(quote_ref, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores one snapshot and returns its row id.
func (s *Store) Append(ctx context.Context, quoteRef string, payload json.RawMessage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (quote_ref, payload, created_at) VALUES (?, ?, ?)`,
		quoteRef, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to append snapshot: %w", err)
	}
	return res.LastInsertId()
}

// Latest returns the most recent snapshot for a quote reference.
func (s *Store) Latest(ctx context.Context, quoteRef string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, quote_ref, payload, created_at
		 FROM snapshots WHERE quote_ref = ?
		 ORDER BY id DESC LIMIT 1`, quoteRef)
	return scanSnapshot(row)
}

// History returns every snapshot of a quote reference, newest first.
func (s *Store) History(ctx context.Context, quoteRef string) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quote_ref, payload, created_at
		 FROM snapshots WHERE quote_ref = ?
		 ORDER BY id DESC`, quoteRef)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var payload, createdAt string
		if err := rows.Scan(&snap.ID, &snap.QuoteRef, &payload, &createdAt); err != nil {
			return nil, err
		}
		snap.Payload = json.RawMessage(payload)
		snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, snap)
	}
	return out, rows.Err()
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var snap Snapshot
	var payload, createdAt string
	err := row.Scan(&snap.ID, &snap.QuoteRef, &payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	snap.Payload = json.RawMessage(payload)
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &snap, nil
}
