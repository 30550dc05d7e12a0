package catalog

import (
	"context"

	"github.com/falmar/swarmkeeper/internal/model"
)

// Store is the durable catalog of desired services keyed by name.
// Writes to a single key are serialised by the implementation; there are
// no cross-entry transactions.
type Store interface {
	List(ctx context.Context) ([]model.CatalogEntry, error)
	// Get returns model.ErrNotFound when the name is unknown.
	Get(ctx context.Context, name string) (*model.CatalogEntry, error)
	// Create returns model.ErrConflict when the name is taken.
	Create(ctx context.Context, entry model.CatalogEntry) (*model.CatalogEntry, error)
	// UpdateDefinition replaces the definition and/or description; nil
	// leaves the field untouched.
	UpdateDefinition(ctx context.Context, name string, def *model.ServiceDefinition, description *string) (*model.CatalogEntry, error)
	Delete(ctx context.Context, name string) error
	// SetStatus writes status and cluster ID only; an empty clusterID
	// clears it.
	SetStatus(ctx context.Context, name string, status model.Status, clusterID string) error
}
