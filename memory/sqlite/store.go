// Package sqlite provides a durable reagent.Memory implementation on a
// local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reagent"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_entries (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	terms       TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	succeeded   INTEGER NOT NULL,
	confidence  REAL NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_entries_created_at ON memory_entries (created_at);
`

// recallScanLimit bounds how many recent entries are loaded for similarity
// ranking per recall.
const recallScanLimit = 256

// Store is a reagent.Memory backed by SQLite. It is safe for concurrent use;
// database/sql serializes access to the underlying connection pool.
type Store struct {
	db    *sql.DB
	floor float64
}

// Option is the type for options of New.
type Option func(*Store)

// WithSimilarityFloor overrides the minimum similarity for Recall.
func WithSimilarityFloor(floor float64) Option {
	return func(s *Store) {
		s.floor = floor
	}
}

// New opens (and if needed creates) the database at dsn. Use a file path
// like "file:memory.db" for durable storage.
func New(ctx context.Context, dsn string, options ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("dsn", dsn))
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create schema")
	}

	s := &Store{
		db:    db,
		floor: reagent.DefaultSimilarityFloor,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Store implements reagent.Memory.
func (s *Store) Store(ctx context.Context, task reagent.Task, result *reagent.AgentResult) error {
	entry := reagent.NewMemoryEntry(task, result)

	terms, err := json.Marshal(entry.Terms)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal terms")
	}
	strategy, err := json.Marshal(entry.Strategy)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal strategy")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memory_entries (id, fingerprint, terms, strategy, succeeded, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Fingerprint, string(terms), string(strategy),
		boolToInt(entry.Succeeded), entry.Confidence, entry.CreatedAt,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert memory entry", goerr.V("entry_id", entry.ID))
	}
	return nil
}

// Recall implements reagent.Memory. The most recent entries are loaded and
// ranked in process; the similarity metric has no SQL expression.
func (s *Store) Recall(ctx context.Context, task reagent.Task, k int) ([]reagent.MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fingerprint, terms, strategy, succeeded, confidence, created_at
		 FROM memory_entries ORDER BY created_at DESC LIMIT ?`, recallScanLimit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query memory entries")
	}
	defer func() { _ = rows.Close() }()

	var entries []reagent.MemoryEntry
	for rows.Next() {
		var entry reagent.MemoryEntry
		var terms, strategy string
		var succeeded int
		var createdAt time.Time

		if err := rows.Scan(&entry.ID, &entry.Fingerprint, &terms, &strategy,
			&succeeded, &entry.Confidence, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan memory entry")
		}
		if err := json.Unmarshal([]byte(terms), &entry.Terms); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal terms", goerr.V("entry_id", entry.ID))
		}
		if err := json.Unmarshal([]byte(strategy), &entry.Strategy); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal strategy", goerr.V("entry_id", entry.ID))
		}
		entry.Succeeded = succeeded != 0
		entry.CreatedAt = createdAt
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate memory entries")
	}

	terms := reagent.FingerprintTerms(task.Description)
	return reagent.RankBySimilarity(entries, terms, k, s.floor), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
