package usecase

import (
	"context"
	"fmt"

	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

type SignOutUseCase struct {
	auth    port.AuthProviderPort
	emitter authEventEmitter
}

func NewSignOutUseCase(auth port.AuthProviderPort, notifier port.AuthEventNotifierPort, publisher port.AuthEventPublisherPort) *SignOutUseCase {
	return &SignOutUseCase{
		auth:    auth,
		emitter: newAuthEventEmitter(notifier, publisher),
	}
}

// Execute announces the sign-out even when the remote revoke fails; the
// returned error only reports the revoke.
func (uc *SignOutUseCase) Execute(ctx context.Context, sessionID string, session domain.Session) error {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SignOut",
		"user_id":  session.User.ID,
	})
	ucLogger.Info("Use case started", nil)

	var revokeErr error
	if session.AccessToken != "" {
		if err := uc.auth.SignOut(ctx, session.AccessToken); err != nil {
			ucLogger.Error("Remote sign out failed", err, nil)
			revokeErr = fmt.Errorf("remote sign out failed: %w", err)
		}
	}

	uc.emitter.emit(ctx, ucLogger, domain.AuthEventSignedOut, sessionID, session.User)

	ucLogger.Info("Use case finished", nil)
	return revokeErr
}
