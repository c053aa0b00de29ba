package port

import (
	"context"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

// PropertyStoragePort is the read side of the listings backend.
type PropertyStoragePort interface {
	// FindRange returns rows from..to (inclusive, 0-based) and the exact total count.
	FindRange(ctx context.Context, from, to int) (*domain.PropertyRange, error)
	// FindByID returns domain.ErrPropertyNotFound when no row has that id.
	FindByID(ctx context.Context, id string) (*domain.Property, error)
}
