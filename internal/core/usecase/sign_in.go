package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port/usecases_port"
)

type SignInUseCase struct {
	auth    port.AuthProviderPort
	emitter authEventEmitter
}

func NewSignInUseCase(auth port.AuthProviderPort, notifier port.AuthEventNotifierPort, publisher port.AuthEventPublisherPort) *SignInUseCase {
	return &SignInUseCase{
		auth:    auth,
		emitter: newAuthEventEmitter(notifier, publisher),
	}
}

// Execute signs in against the auth provider, hands the session to store
// and then announces SIGNED_IN. A failing store means no event.
func (uc *SignInUseCase) Execute(ctx context.Context, sessionID string, creds domain.Credentials, store usecases_port.StoreSessionFunc) (*domain.Session, error) {
	creds = creds.Normalized()

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SignIn",
		"email":    creds.Email,
	})
	ucLogger.Info("Use case started: attempting to sign in", nil)

	if err := creds.Validate(); err != nil {
		ucLogger.Warn("Sign in rejected: missing email or password", nil)
		return nil, err
	}

	session, err := uc.auth.SignInWithPassword(ctx, creds)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			ucLogger.Warn("Sign in failed: invalid credentials", nil)
			return nil, err
		}
		ucLogger.Error("Auth provider failed during sign in", err, nil)
		return nil, fmt.Errorf("sign in failed: %w", err)
	}

	ucLogger = ucLogger.WithFields(port.Fields{"user_id": session.User.ID})
	if store != nil {
		if err := store(*session); err != nil {
			ucLogger.Error("Failed to store session after sign in", err, nil)
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
	}
	uc.emitter.emit(ctx, ucLogger, domain.AuthEventSignedIn, sessionID, session.User)

	ucLogger.Info("Use case finished: user signed in", nil)
	return session, nil
}
