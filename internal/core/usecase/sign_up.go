package usecase

import (
	"context"
	"fmt"

	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

type SignUpUseCase struct {
	auth port.AuthProviderPort
}

func NewSignUpUseCase(auth port.AuthProviderPort) *SignUpUseCase {
	return &SignUpUseCase{auth: auth}
}

func (uc *SignUpUseCase) Execute(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	creds = creds.Normalized()

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SignUp",
		"email":    creds.Email,
	})
	ucLogger.Info("Use case started: attempting to register user", nil)

	if err := creds.Validate(); err != nil {
		ucLogger.Warn("Sign up rejected: missing email or password", nil)
		return nil, err
	}

	user, err := uc.auth.SignUp(ctx, creds)
	if err != nil {
		ucLogger.Warn("Auth provider rejected sign up", port.Fields{"error": err.Error()})
		return nil, fmt.Errorf("%w: %w", domain.ErrSignUpRejected, err)
	}

	ucLogger.Info("Use case finished: user registered", port.Fields{"user_id": user.ID})
	return user, nil
}
