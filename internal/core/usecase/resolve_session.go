package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

// ResolveSessionUseCase turns the tokens kept in the browser session into
// a user. The verifier is optional; without it every check goes to the
// auth backend.
type ResolveSessionUseCase struct {
	auth     port.AuthProviderPort
	verifier port.TokenVerifierPort
	now      func() time.Time
}

func NewResolveSessionUseCase(auth port.AuthProviderPort, verifier port.TokenVerifierPort) *ResolveSessionUseCase {
	return &ResolveSessionUseCase{
		auth:     auth,
		verifier: verifier,
		now:      time.Now,
	}
}

func (uc *ResolveSessionUseCase) Execute(ctx context.Context, session domain.Session) (*domain.Session, error) {
	if session.AccessToken == "" {
		return nil, domain.ErrUnauthenticated
	}

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "ResolveSession",
		"user_id":  session.User.ID,
	})
	ucLogger.Debug("Use case started", nil)

	var err error
	if session.Expired(uc.now()) {
		err = domain.ErrUnauthenticated
	} else {
		var user *domain.User
		user, err = uc.lookupUser(ctx, session.AccessToken)
		if err == nil {
			session.User = *user
			ucLogger.Debug("Use case finished: access token valid", nil)
			return &session, nil
		}
	}

	if !errors.Is(err, domain.ErrUnauthenticated) {
		ucLogger.Error("Failed to check access token", err, nil)
		return nil, fmt.Errorf("failed to check access token: %w", err)
	}
	if session.RefreshToken == "" {
		ucLogger.Info("Access token rejected and no refresh token available", nil)
		return nil, err
	}

	refreshed, refreshErr := uc.auth.RefreshSession(ctx, session.RefreshToken)
	if refreshErr != nil {
		ucLogger.Warn("Session refresh failed", port.Fields{"error": refreshErr.Error()})
		return nil, fmt.Errorf("%w: refresh failed: %w", domain.ErrUnauthenticated, refreshErr)
	}

	ucLogger.Info("Use case finished: session refreshed", port.Fields{"user_id": refreshed.User.ID})
	return refreshed, nil
}

func (uc *ResolveSessionUseCase) lookupUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if uc.verifier != nil {
		return uc.verifier.Verify(ctx, accessToken)
	}
	return uc.auth.GetUser(ctx, accessToken)
}
