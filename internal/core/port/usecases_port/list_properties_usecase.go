package usecases_port

import (
	"context"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

type ListPropertiesUseCasePort interface {
	// Execute fetches one listing page; page is 1-based.
	Execute(ctx context.Context, page int) (*domain.PropertyPage, error)
}
