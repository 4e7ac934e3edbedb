package ports

import (
	"context"

	"github.com/canonry/canonry/pkg/domain"
)

// SnapshotProvider defines how the engine retrieves a fandom's catalog.
// This allows the storage layer (Memory, YAML files, Loam, Redis) to be
// decoupled from the validation core.
type SnapshotProvider interface {
	// Snapshot loads the full catalog for one fandom. It returns
	// domain.ErrFandomNotFound when the fandom does not exist.
	Snapshot(ctx context.Context, fandomID string) (*domain.Snapshot, error)

	// Fandoms lists the fandoms the provider knows about, sorted by ID.
	// This is used for introspection and catalog tooling.
	Fandoms(ctx context.Context) ([]domain.Fandom, error)
}

// Watchable defines an interface for providers that can notify about backend
// changes. This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying catalog
	// changes. It abstracts away the specific event details, signaling only
	// that cached snapshots should be considered stale.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
