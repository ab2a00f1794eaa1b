package files

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"thoth/internal/api"
	"thoth/internal/auth"
)

// fakeService scripts list/upload outcomes. Mutex-guarded so tests may
// call through the controller from multiple goroutines.
type fakeService struct {
	mu        sync.Mutex
	list      []api.FileRecord
	listErr   error
	uploadErr error

	listCalls   int
	uploadCalls int
	lastName    string
	lastBody    string
}

func (f *fakeService) ListFiles(ctx context.Context, token string) ([]api.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakeService) UploadFile(ctx context.Context, token, filename string, r io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	f.lastName = filename
	body, _ := io.ReadAll(r)
	f.lastBody = string(body)
	return f.uploadErr
}

func newTestController(t *testing.T, svc Service) (*Controller, *auth.Store) {
	t.Helper()
	store := auth.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err := store.Set("alice", "tok1"); err != nil {
		t.Fatalf("set credential: %v", err)
	}
	return NewController(auth.NewGate(store), svc), store
}

func TestListCachesRecords(t *testing.T) {
	svc := &fakeService{list: []api.FileRecord{{ID: "1", Filename: "a.pdf"}, {ID: "2", Filename: "b.txt"}}}
	c, _ := newTestController(t, svc)

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if diff := cmp.Diff(svc.list, got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(svc.list, c.Cached()); diff != "" {
		t.Fatalf("cache mismatch (-want +got):\n%s", diff)
	}
}

func TestListUnauthenticated(t *testing.T) {
	svc := &fakeService{}
	store := auth.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	c := NewController(auth.NewGate(store), svc)

	_, err := c.List(context.Background())
	if !errors.Is(err, api.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if svc.listCalls != 0 {
		t.Fatal("unauthenticated list must not reach the network")
	}
}

func TestListFailureLeavesCacheUntouched(t *testing.T) {
	svc := &fakeService{list: []api.FileRecord{{ID: "1", Filename: "a.pdf"}}}
	c, _ := newTestController(t, svc)

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("initial list failed: %v", err)
	}
	before := c.Cached()

	svc.listErr = errors.New("backend unreachable")
	if _, err := c.List(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
	if diff := cmp.Diff(before, c.Cached()); diff != "" {
		t.Fatalf("cache changed on failed list (-want +got):\n%s", diff)
	}
}

func TestUploadRefreshesList(t *testing.T) {
	svc := &fakeService{list: []api.FileRecord{{ID: "1", Filename: "a.pdf"}}}
	c, _ := newTestController(t, svc)

	svc.list = append(svc.list, api.FileRecord{ID: "2", Filename: "notes.md"})
	got, err := c.Upload(context.Background(), "notes.md", strings.NewReader("# notes"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if svc.lastName != "notes.md" || svc.lastBody != "# notes" {
		t.Fatalf("upload payload mismatch: %q %q", svc.lastName, svc.lastBody)
	}
	if diff := cmp.Diff(svc.list, got); diff != "" {
		t.Fatalf("refreshed list mismatch (-want +got):\n%s", diff)
	}
	if svc.listCalls != 1 {
		t.Fatalf("expected exactly one refresh fetch, got %d", svc.listCalls)
	}
}

func TestUploadFailureLeavesCacheUntouched(t *testing.T) {
	svc := &fakeService{list: []api.FileRecord{{ID: "1", Filename: "a.pdf"}}}
	c, _ := newTestController(t, svc)

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("initial list failed: %v", err)
	}
	before := c.Cached()

	svc.uploadErr = errors.New("disk full")
	_, err := c.Upload(context.Background(), "x.bin", strings.NewReader("zz"))
	if err == nil {
		t.Fatal("expected upload error")
	}
	if diff := cmp.Diff(before, c.Cached()); diff != "" {
		t.Fatalf("cache changed on failed upload (-want +got):\n%s", diff)
	}
	if svc.listCalls != 1 {
		t.Fatal("failed upload must not trigger a refresh fetch")
	}
}

func TestUploadSucceedsButRefreshFails(t *testing.T) {
	svc := &fakeService{list: []api.FileRecord{{ID: "1", Filename: "a.pdf"}}}
	c, _ := newTestController(t, svc)

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("initial list failed: %v", err)
	}
	before := c.Cached()

	svc.listErr = errors.New("backend unreachable")
	got, err := c.Upload(context.Background(), "x.bin", strings.NewReader("zz"))
	if err == nil {
		t.Fatal("expected degraded refresh error")
	}
	if svc.uploadCalls != 1 {
		t.Fatal("upload itself should have run")
	}
	// Degraded but recoverable: last-known list comes back with the error.
	if diff := cmp.Diff(before, got); diff != "" {
		t.Fatalf("expected last-known list returned (-want +got):\n%s", diff)
	}
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected ErrRefreshFailed in chain, got %v", err)
	}
	if !errors.Is(err, svc.listErr) {
		t.Fatalf("underlying fetch error lost from chain: %v", err)
	}
}

func TestUploadRefreshFailsWithEmptyCache(t *testing.T) {
	svc := &fakeService{listErr: errors.New("backend unreachable")}
	c, _ := newTestController(t, svc)

	// No prior List: cache is empty. The upload still lands; the error must
	// be distinguishable from an upload failure without inspecting the list.
	got, err := c.Upload(context.Background(), "x.bin", strings.NewReader("zz"))
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected ErrRefreshFailed, got %v", err)
	}
	if svc.uploadCalls != 1 {
		t.Fatal("upload itself should have run")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty last-known list, got %v", got)
	}
}

func TestCachedSafeForConcurrentReaders(t *testing.T) {
	svc := &fakeService{list: []api.FileRecord{{ID: "1", Filename: "a.pdf"}}}
	c, _ := newTestController(t, svc)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := c.List(context.Background()); err != nil {
					t.Errorf("List: %v", err)
					return
				}
				_ = c.Cached()
			}
		}()
	}
	wg.Wait()

	if diff := cmp.Diff(svc.list, c.Cached()); diff != "" {
		t.Fatalf("cache mismatch after concurrent access (-want +got):\n%s", diff)
	}
}

func TestUploadSessionExpiredClearsCredential(t *testing.T) {
	svc := &fakeService{uploadErr: api.ErrSessionExpired}
	c, store := newTestController(t, svc)

	_, err := c.Upload(context.Background(), "x.bin", strings.NewReader("zz"))
	if !errors.Is(err, api.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if store.Get().Authenticated() {
		t.Fatal("credential should be cleared after 401")
	}
}
