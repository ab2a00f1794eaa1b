package auth

import (
	"context"

	"thoth/internal/api"
	"thoth/internal/logging"
)

// Gate wraps authenticated actions with the credential lifecycle rules:
// no token short-circuits locally, and a token the backend rejects is
// cleared as a side effect so the next action sees the unauthenticated
// state. The gate is not a retry layer; every other error passes through
// untouched.
type Gate struct {
	store *Store
}

// NewGate creates a session gate over the given credential store.
func NewGate(store *Store) *Gate {
	return &Gate{store: store}
}

// WithAuth resolves the current token and invokes action with it.
// Returns api.ErrUnauthenticated without calling action (or the network)
// when no token is present. When action reports the backend rejected the
// token, the stored credential is cleared before the error is surfaced.
func (g *Gate) WithAuth(ctx context.Context, action func(ctx context.Context, token string) error) error {
	cred := g.store.Get()
	if !cred.Authenticated() {
		return api.ErrUnauthenticated
	}

	err := action(ctx, cred.Token)
	if err != nil && api.IsAuthRejected(err) {
		logging.Session("backend rejected token, clearing credential")
		if clearErr := g.store.Clear(); clearErr != nil {
			logging.SessionWarn("failed to clear credential: %v", clearErr)
		}
	}
	return err
}

// Credential exposes the current credential for read-only consumers
// (greeting text, whoami).
func (g *Gate) Credential() Credential {
	return g.store.Get()
}
