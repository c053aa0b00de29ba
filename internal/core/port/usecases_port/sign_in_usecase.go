package usecases_port

import (
	"context"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

// StoreSessionFunc persists a freshly issued session on the caller's side
// (the browser cookie). Auth events go out only after it succeeds.
type StoreSessionFunc func(session domain.Session) error

type SignInUseCasePort interface {
	Execute(ctx context.Context, sessionID string, creds domain.Credentials, store StoreSessionFunc) (*domain.Session, error)
}
