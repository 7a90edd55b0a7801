// =============================================================================
// E-Bilanz Converter - Snapshot Archive
// =============================================================================
//
// This module stores the tag records of extraction runs in a SQLite database.
// A snapshot is the full ordered record list of one extracted document. It can
// be loaded later as the target table for a new document, which turns "copy
// last year's filing into this year's template" into a single round trip.
//
// SCHEMA:
//   snapshots      (id, source, created_at, tag_count)
//   snapshot_tags  (snapshot_id, position, name, value)
//
// A NULL value marks a tag that had no text in the source document.
//
// IDS:
//   Snapshot IDs are ULIDs, so sorting by id sorts by creation time.
//
// =============================================================================

package archive

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

// ErrSnapshotNotFound is returned when a snapshot id is unknown.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot describes one archived extraction run.
type Snapshot struct {
	// ID is the ULID of the snapshot.
	ID string

	// Source is the path of the extracted document.
	Source string

	// CreatedAt is the time the snapshot was saved.
	CreatedAt time.Time

	// TagCount is the number of records in the snapshot.
	TagCount int
}

// Store is a snapshot archive backed by a SQLite file.
type Store struct {
	db *sql.DB

	// entropy is not safe for concurrent use.
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// =============================================================================
// OPEN / CLOSE
// =============================================================================

// Open opens or creates the archive at path with WAL mode enabled.
//
// PARAMETERS:
//   - ctx: Context for the schema setup.
//   - path: The SQLite file path.
//
// RETURNS:
//   - The opened store.
//   - An error if the database cannot be opened or initialized.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// Writers from concurrent extractions share one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates the tables if they don't exist.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	created_at TEXT NOT NULL,
	tag_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_tags (
	snapshot_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	value TEXT,
	PRIMARY KEY(snapshot_id, position),
	FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize archive schema: %w", err)
	}
	return nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// SaveSnapshot stores the records of one extraction run.
//
// PARAMETERS:
//   - ctx: Context for the transaction.
//   - source: The path of the extracted document.
//   - records: The extracted records, in document order.
//
// RETURNS:
//   - The id of the new snapshot.
//   - An error if the snapshot cannot be written.
func (s *Store) SaveSnapshot(ctx context.Context, source string, records []types.Tag) (string, error) {
	now := time.Now().UTC()
	id := s.newID(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, source, created_at, tag_count) VALUES (?, ?, ?, ?)`,
		id, source, now.Format(time.RFC3339Nano), len(records),
	); err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_tags (snapshot_id, position, name, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare tag insert: %w", err)
	}
	defer stmt.Close()

	for i, record := range records {
		var value sql.NullString
		if record.Value != nil {
			value = sql.NullString{String: *record.Value, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, i, record.Name, value); err != nil {
			return "", fmt.Errorf("failed to insert tag %s: %w", record.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return id, nil
}

// LoadSnapshot returns the records of a snapshot in their original order.
func (s *Store) LoadSnapshot(ctx context.Context, id string) ([]types.Tag, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE id=?`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up snapshot: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM snapshot_tags WHERE snapshot_id=? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot tags: %w", err)
	}
	defer rows.Close()

	records := []types.Tag{}
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot tag: %w", err)
		}

		record := types.Tag{Name: name}
		if value.Valid {
			record.Value = types.StringPtr(value.String)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// ListSnapshots returns all snapshots, oldest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, created_at, tag_count FROM snapshots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snapshot Snapshot
		var created string
		if err := rows.Scan(&snapshot.ID, &snapshot.Source, &created, &snapshot.TagCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if parsed, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
			snapshot.CreatedAt = parsed
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

// newID returns a monotonic ULID for the given time.
func (s *Store) newID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}
