// internal/domain/shop/service.go

package shop

import (
	"context"

	"shopmap/internal/domain/geo"
)

// Service defines the shop operations offered by the backend.
// The HTTP client and the server-side manager both implement it.
type Service interface {
	// Find returns shops within q.RangeM meters of q.Center, optionally
	// filtered by a keyword
	Find(ctx context.Context, q Query) ([]Shop, error)

	// Create inserts a new shop
	Create(ctx context.Context, s Shop) (*Shop, error)

	// Update amends the shop identified by title and coordinate
	Update(ctx context.Context, s Shop) (*Shop, error)
}

// Store defines persistent storage for shops
type Store interface {
	// FindInRange returns shops within rangeM meters of center
	FindInRange(ctx context.Context, center geo.LatLng, rangeM int) ([]Shop, error)

	// SearchInRange returns shops within range whose title matches term
	SearchInRange(ctx context.Context, term string, center geo.LatLng, rangeM int) ([]Shop, error)

	// Insert stores a new shop
	Insert(ctx context.Context, s Shop) (*Shop, error)

	// Update changes the mutable fields of an existing shop
	Update(ctx context.Context, s Shop) (*Shop, error)
}

// QueryCache caches listing results between writes
type QueryCache interface {
	Get(ctx context.Context, q Query) ([]Shop, bool)
	Set(ctx context.Context, q Query, items []Shop) error
	Invalidate(ctx context.Context) error
}
