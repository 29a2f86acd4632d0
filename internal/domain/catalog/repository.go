package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines persistence for the product aggregate.
// Implementations load Options, Variants and Images together with the root.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByReferenceNumber(ctx context.Context, referenceNumber string) (*Product, error)
	// FindRegistrable returns products eligible for a creation call, oldest
	// first, up to limit.
	FindRegistrable(ctx context.Context, limit int) ([]*Product, error)
	// FindPublished returns confirmed listings for reconciliation, ordered by
	// least recently synced.
	FindPublished(ctx context.Context, limit int) ([]*Product, error)
	// Save persists the aggregate with an optimistic version check and
	// returns shared.ErrConcurrencyConflict on a stale version.
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
