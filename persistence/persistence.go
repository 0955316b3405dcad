// Package persistence stores ContextStore snapshot blobs durably so a host
// application can recover conversation state across restarts. The blob is
// opaque here: whatever ContextStore.Snapshot produced round-trips through
// Restore unchanged.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSnapshotNotFound marks a lookup for a missing snapshot id, or
// LoadLatest on an empty store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is one persisted ContextStore dump.
type Snapshot struct {
	ID        string          `json:"id"`
	Label     string          `json:"label,omitempty"`
	Blob      json.RawMessage `json:"blob"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewSnapshot wraps a store blob with a fresh id and timestamp.
func NewSnapshot(label string, blob []byte) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Label:     label,
		Blob:      append(json.RawMessage(nil), blob...),
		CreatedAt: time.Now(),
	}
}

// SnapshotStore is the durable backend interface. Implementations must
// treat Save as create-or-replace by id.
type SnapshotStore interface {
	// Save persists the snapshot.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Load returns the snapshot with the given id.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// LoadLatest returns the most recently created snapshot.
	LoadLatest(ctx context.Context) (*Snapshot, error)

	// List returns snapshots newest first, up to limit (0 = all).
	List(ctx context.Context, limit int) ([]*Snapshot, error)

	// Delete removes the snapshot.
	Delete(ctx context.Context, id string) error
}
