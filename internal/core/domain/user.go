package domain

import (
	"strings"
	"time"
)

// User is the authenticated identity as the auth backend reports it.
type User struct {
	ID    string
	Email string
}

// Session is a signed-in user with the tokens issued by the auth backend.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Expired reports whether the access token is past its expiry at now.
// A zero ExpiresAt never expires locally.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Credentials are what the login and register forms submit.
type Credentials struct {
	Email    string
	Password string
}

// Normalized trims the email. The password is kept as typed.
func (c Credentials) Normalized() Credentials {
	c.Email = strings.TrimSpace(c.Email)
	return c
}

// Validate only checks presence; format rules belong to the auth backend.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return ErrInvalidInput
	}
	return nil
}

// AuthEventType mirrors the auth-state-change events of the backend client.
type AuthEventType string

const (
	AuthEventSignedIn  AuthEventType = "SIGNED_IN"
	AuthEventSignedOut AuthEventType = "SIGNED_OUT"
)

// AuthEvent is emitted whenever a browser session signs in or out.
type AuthEvent struct {
	Type       AuthEventType
	SessionID  string
	UserID     string
	Email      string
	OccurredAt time.Time
}
