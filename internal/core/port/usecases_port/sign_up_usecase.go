package usecases_port

import (
	"context"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

type SignUpUseCasePort interface {
	Execute(ctx context.Context, creds domain.Credentials) (*domain.User, error)
}
