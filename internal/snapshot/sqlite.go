package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS snapshots (
	key TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	saved_at DATETIME NOT NULL,
	payload TEXT NOT NULL
);
`

const snapshotKey = "users"

// SQLiteStore keeps the snapshot as a single row in a local sqlite
// database, keyed so the schema has room for further snapshot kinds.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// snapshots table exists.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// single writer; sqlite handles concurrent readers poorly otherwise
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, createSnapshotsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (key, version, saved_at, payload)
VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	version = excluded.version,
	saved_at = excluded.saved_at,
	payload = excluded.payload`,
		snapshotKey,
		snap.Version,
		time.Now().UTC(),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot row: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
SELECT payload FROM snapshots WHERE key = ?`, snapshotKey).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("select snapshot row: %w", err)
	}

	snap, err := decode([]byte(payload))
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot row: %w", err)
	}
	return snap, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
