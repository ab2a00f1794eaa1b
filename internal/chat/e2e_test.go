package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"thoth/internal/api"
	"thoth/internal/auth"
)

// TestLoginThenChat exercises the full path: real HTTP client, credential
// store, session gate, and orchestrator against a scripted backend.
func TestLoginThenChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			require.NoError(t, r.ParseForm())
			if r.PostForm.Get("username") == "alice" && r.PostForm.Get("password") == "secret" {
				json.NewEncoder(w).Encode(map[string]string{"access_token": "tok1"})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		case "/query":
			require.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
			var qr api.QueryRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&qr))
			require.Equal(t, "hi", qr.Query)
			json.NewEncoder(w).Encode(map[string]string{"response": "hello alice"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	store := auth.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	gate := auth.NewGate(store)

	token, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok1", token)
	require.NoError(t, store.Set("alice", token))

	o := New(gate, client, DefaultModelParams())
	require.NoError(t, o.Send(context.Background(), "hi"))

	want := []Message{
		{Text: "hi", Sender: SenderUser},
		{Text: "hello alice", Sender: SenderAssistant},
	}
	if diff := cmp.Diff(want, o.Messages()); diff != "" {
		t.Fatalf("timeline mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, StateDelivered, o.State())
}

// TestExpiredTokenEndToEnd drives a 401 through the real client and gate.
func TestExpiredTokenEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	store := auth.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, store.Set("alice", "stale"))

	o := New(auth.NewGate(store), client, DefaultModelParams())
	require.NoError(t, o.Send(context.Background(), "hi"))

	msgs := o.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "Error: Session expired. Please login again.", msgs[1].Text)
	require.False(t, store.Get().Authenticated())
}
