// Package files keeps the client-visible file list in sync with server-side
// uploads. The local list is a cache: replaced wholesale on a successful
// fetch, never partially overwritten on failure.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"thoth/internal/api"
	"thoth/internal/auth"
	"thoth/internal/logging"
)

// ErrRefreshFailed marks the degraded path where an upload landed but the
// follow-up list re-fetch did not. Callers check it with errors.Is; the
// underlying fetch error stays in the chain.
var ErrRefreshFailed = errors.New("refresh after upload failed")

// Service is the slice of the backend client this controller needs.
type Service interface {
	ListFiles(ctx context.Context, token string) ([]api.FileRecord, error)
	UploadFile(ctx context.Context, token, filename string, r io.Reader) error
}

// Controller fetches and caches the authenticated user's file list and
// performs uploads. The cache is mutex-guarded; List/Upload may be issued
// from background goroutines while Cached serves readers.
type Controller struct {
	gate   *auth.Gate
	client Service

	mu     sync.Mutex
	cached []api.FileRecord
}

// NewController creates a controller over the given gate and client.
func NewController(gate *auth.Gate, client Service) *Controller {
	return &Controller{gate: gate, client: client}
}

// List fetches the file list and replaces the cache on success. On failure
// the previous cache is left untouched and the error is returned.
func (c *Controller) List(ctx context.Context) ([]api.FileRecord, error) {
	var fetched []api.FileRecord
	err := c.gate.WithAuth(ctx, func(ctx context.Context, token string) error {
		var lerr error
		fetched, lerr = c.client.ListFiles(ctx, token)
		return lerr
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = fetched
	logging.Files("file list refreshed: %d records", len(fetched))
	return c.cachedLocked(), nil
}

// Upload sends one file and, on success, re-fetches the list. An upload
// failure leaves the cached list untouched. When the upload succeeds but
// the re-fetch fails, the last-known list is returned alongside an error
// matching ErrRefreshFailed; callers may retry List independently.
func (c *Controller) Upload(ctx context.Context, filename string, r io.Reader) ([]api.FileRecord, error) {
	err := c.gate.WithAuth(ctx, func(ctx context.Context, token string) error {
		return c.client.UploadFile(ctx, token, filename, r)
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	logging.Files("uploaded %s", filename)

	refreshed, err := c.List(ctx)
	if err != nil {
		logging.FilesWarn("list refresh after upload failed: %v", err)
		return c.Cached(), fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return refreshed, nil
}

// Cached returns a copy of the last successfully fetched list.
func (c *Controller) Cached() []api.FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cachedLocked()
}

func (c *Controller) cachedLocked() []api.FileRecord {
	out := make([]api.FileRecord, len(c.cached))
	copy(out, c.cached)
	return out
}
