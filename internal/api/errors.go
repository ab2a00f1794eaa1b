package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for the authentication states the rest of the client
// distinguishes. ErrUnauthenticated is a purely local condition: no token
// exists, so no request was made. ErrSessionExpired means the backend
// rejected an otherwise well-formed token (HTTP 401).
var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// APIError is a non-2xx response carrying an optional structured message
// (the backend's {detail} field where one is present).
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsAuthRejected reports whether err indicates the backend rejected the
// bearer token. The session gate uses this to decide when to clear the
// stored credential.
func IsAuthRejected(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
