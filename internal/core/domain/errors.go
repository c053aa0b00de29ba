package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPropertyNotFound   = errors.New("property not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrSignUpRejected     = errors.New("sign up rejected")
	ErrInvalidInput       = errors.New("invalid input")
)

// RemoteError is a failure reported by the backend service itself, as
// opposed to a transport failure. Message is safe to show to the user.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}
