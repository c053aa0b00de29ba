package usecases_port

import (
	"context"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

type ResolveSessionUseCasePort interface {
	// Execute returns the session with its user filled in, refreshed if the
	// access token had expired. It wraps domain.ErrUnauthenticated when the
	// session can no longer be used.
	Execute(ctx context.Context, session domain.Session) (*domain.Session, error)
}
