package usecases_port

import (
	"context"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

type SignOutUseCasePort interface {
	// Execute revokes the session remotely (best effort) and announces the sign-out.
	Execute(ctx context.Context, sessionID string, session domain.Session) error
}
