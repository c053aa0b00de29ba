package domain

import "errors"

// User-facing prefixes of fetch failures.
const (
	ListLoadErrorPrefix   = "Error al cargar las propiedades: "
	DetailLoadErrorPrefix = "Error al cargar la propiedad: "
)

// LoadError is a failed fetch whose Error() is the localized message the
// views display.
type LoadError struct {
	Message string
	Err     error
}

func (e *LoadError) Error() string { return e.Message }

func (e *LoadError) Unwrap() error { return e.Err }

// NewLoadError builds a LoadError from prefix and the cause. Backend
// failures contribute their own message, anything else its error text.
func NewLoadError(prefix string, cause error) *LoadError {
	return &LoadError{Message: prefix + CauseMessage(cause), Err: cause}
}

// CauseMessage is the human-readable part of err.
func CauseMessage(err error) string {
	if err == nil {
		return ""
	}
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return err.Error()
}
