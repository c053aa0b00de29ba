package token_adapter

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(exp time.Time) *accessTokenClaims {
	return &accessTokenClaims{
		Email: "ana@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
}

func TestNewTokenVerifier_RequiresKey(t *testing.T) {
	_, err := NewTokenVerifier("")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	v, err := NewTokenVerifier(testSecret)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(time.Now().Add(time.Hour)))
		user, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, domain.User{ID: "u-1", Email: "ana@example.com"}, *user)
	})

	t.Run("expired token", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(time.Now().Add(-time.Hour)))
		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("another-secret"), validClaims(time.Now().Add(time.Hour)))
		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("anon key is not a user token", func(t *testing.T) {
		claims := validClaims(time.Now().Add(time.Hour))
		claims.Audience = nil
		claims.Role = "anon"
		token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := validClaims(time.Now().Add(time.Hour))
		claims.Subject = ""
		token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}
