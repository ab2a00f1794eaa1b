package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"thoth/internal/api"
)

func TestGateUnauthenticatedShortCircuit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	g := NewGate(s)

	invoked := false
	err := g.WithAuth(context.Background(), func(ctx context.Context, token string) error {
		invoked = true
		return nil
	})

	if !errors.Is(err, api.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if invoked {
		t.Fatal("action must not run without a token")
	}
}

func TestGatePassesToken(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err := s.Set("alice", "tok1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	g := NewGate(s)

	var got string
	err := g.WithAuth(context.Background(), func(ctx context.Context, token string) error {
		got = token
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "tok1" {
		t.Fatalf("action received token %q, want tok1", got)
	}
}

func TestGateClearsOnSessionExpired(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err := s.Set("alice", "tok1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	g := NewGate(s)

	err := g.WithAuth(context.Background(), func(ctx context.Context, token string) error {
		return api.ErrSessionExpired
	})
	if !errors.Is(err, api.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired surfaced, got %v", err)
	}
	if s.Get().Authenticated() {
		t.Fatal("credential should be cleared after session expiry")
	}

	// The next gated action behaves as the unauthenticated case.
	err = g.WithAuth(context.Background(), func(ctx context.Context, token string) error {
		t.Fatal("action must not run after expiry cleared the credential")
		return nil
	})
	if !errors.Is(err, api.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGateOtherErrorsPassThrough(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err := s.Set("alice", "tok1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	g := NewGate(s)

	boom := errors.New("backend on fire")
	err := g.WithAuth(context.Background(), func(ctx context.Context, token string) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected error passed through, got %v", err)
	}
	if !s.Get().Authenticated() {
		t.Fatal("non-auth errors must not clear the credential")
	}
}
