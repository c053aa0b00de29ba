package usecases_port

import (
	"context"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

type GetPropertyUseCasePort interface {
	Execute(ctx context.Context, id string) (*domain.Property, error)
}
