package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the server rejected the credential. The caller
	// must treat the session as over.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound means the requested mind map does not exist for this user.
	ErrNotFound = errors.New("mind map not found")
	// ErrNoCredential is returned when a call needs a session and none was given.
	ErrNoCredential = errors.New("not logged in")
)

// APIError is any other non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}
