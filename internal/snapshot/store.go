// Package snapshot persists the registry's user set to a durable backend.
// The durable copy is an eventually-consistent mirror of the in-memory
// registry, never the source of truth while the process is running.
package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"synchron/internal/domain"
)

// SchemaVersion is embedded in every persisted snapshot so a future field
// addition has a migration path.
const SchemaVersion = 1

// Snapshot is the full serialized user set handed to a Store.
type Snapshot struct {
	Version int                 `json:"version"`
	SavedAt time.Time           `json:"saved_at"`
	Users   []domain.UserRecord `json:"users"`
}

// Store abstracts a durable backend for registry snapshots.
//
// Save replaces the stored snapshot; failures are reported to the caller
// (the async writer), which logs them — they never reach the mutation that
// triggered the write. Load is called once at startup; a backend with no
// stored snapshot returns an empty Snapshot and a nil error.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// New builds a snapshot with the current schema version and timestamp.
func New(users []domain.UserRecord) Snapshot {
	return Snapshot{
		Version: SchemaVersion,
		SavedAt: time.Now().UTC(),
		Users:   users,
	}
}

// decode unmarshals persisted snapshot bytes. Early deployments stored a
// bare user array with no envelope; those still load.
func decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err == nil && (snap.Version > 0 || snap.Users != nil) {
		return snap, nil
	}

	var users []domain.UserRecord
	if err := json.Unmarshal(data, &users); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Users: users}, nil
}

// NullStore discards saves and loads nothing; used when no durable backend
// is configured.
type NullStore struct{}

func (NullStore) Save(context.Context, Snapshot) error { return nil }

func (NullStore) Load(context.Context) (Snapshot, error) { return Snapshot{}, nil }
