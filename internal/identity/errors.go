package identity

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoToken is returned when an authenticated call is made without a token.
var ErrNoToken = errors.New("identity: no session token")

// StatusError is returned when the service answers with a non-2xx status.
// The body's message field is included when the service provides one.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("identity: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("identity: %d %s", e.Status, http.StatusText(e.Status))
}

// AuthInvalid reports whether err is a response that invalidates the
// session: 401, 403, or 404 (the directory no longer knows the user).
// Anything else, including transport errors, is treated as transient.
func AuthInvalid(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0 for transport errors.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
