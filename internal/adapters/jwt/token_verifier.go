package token_adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

// Audience of the access tokens the auth backend issues to signed-in users.
const authenticatedAudience = "authenticated"

// TokenVerifier checks auth backend access tokens locally with the project
// JWT secret, saving a round trip per request.
type TokenVerifier struct {
	signingKey []byte
}

var _ port.TokenVerifierPort = (*TokenVerifier)(nil)

func NewTokenVerifier(signingKey string) (*TokenVerifier, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("JWT signing key cannot be empty")
	}
	return &TokenVerifier{signingKey: []byte(signingKey)}, nil
}

// accessTokenClaims are the claims of an auth backend access token.
type accessTokenClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Verify returns the token owner, or an error wrapping domain.ErrUnauthenticated.
func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (*domain.User, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	verifierLogger := logger.WithFields(port.Fields{
		"component": "TokenVerifier",
		"method":    "Verify",
	})

	token, err := jwt.ParseWithClaims(tokenString, &accessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			alg := token.Header["alg"]
			verifierLogger.Warn("Unexpected signing method detected", port.Fields{"algorithm": alg})
			return nil, fmt.Errorf("unexpected signing method: %v", alg)
		}
		return v.signingKey, nil
	},
		jwt.WithAudience(authenticatedAudience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			verifierLogger.Debug("Access token has expired", nil)
			return nil, fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
		}
		verifierLogger.Warn("Invalid access token", port.Fields{"error": err.Error()})
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*accessTokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		verifierLogger.Warn("Access token carries no subject", nil)
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}

	verifierLogger.Debug("Access token verified", port.Fields{"user_id": claims.Subject})
	return &domain.User{ID: claims.Subject, Email: claims.Email}, nil
}
