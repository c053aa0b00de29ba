package port

import (
	"context"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

// AuthProviderPort is the password auth API of the backend service.
type AuthProviderPort interface {
	SignUp(ctx context.Context, creds domain.Credentials) (*domain.User, error)
	// SignInWithPassword wraps domain.ErrInvalidCredentials when the backend rejects the pair.
	SignInWithPassword(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error)
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

// TokenVerifierPort checks an access token without a network round trip.
type TokenVerifierPort interface {
	// Verify wraps domain.ErrUnauthenticated for expired or forged tokens.
	Verify(ctx context.Context, accessToken string) (*domain.User, error)
}

// AuthEventNotifierPort pushes auth-state changes to open browser tabs.
type AuthEventNotifierPort interface {
	Notify(ctx context.Context, event domain.AuthEvent)
}

// AuthEventPublisherPort fans auth-state changes out to other services.
type AuthEventPublisherPort interface {
	PublishAuthEvent(ctx context.Context, event domain.AuthEvent) error
}
