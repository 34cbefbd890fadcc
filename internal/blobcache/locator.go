package blobcache

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"audiotome/internal/errdefs"
)

// Locator is a transient, releasable handle to one chapter's audio: the blob
// materialized as a temp file a player can open by URL. The cache does no
// automatic reclamation, so every Locator must be released by its holder;
// Release is safe to call more than once but only the first call does work.
type Locator struct {
	key  string
	path string

	once sync.Once
	err  error
}

// GetAsURL materializes the blob for key into a temp file and returns a
// Locator for it, or errdefs.ErrNotFound when no blob is stored.
func (c *Cache) GetAsURL(key string) (*Locator, error) {
	data, err := c.Get(key)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(c.tmpDir, fmt.Sprintf("audiotome-%s.audio", uuid.NewString()))
	if err := os.WriteFile(path, data, 0600); err != nil {
		if isQuotaError(err) {
			return nil, fmt.Errorf("%w: %v", errdefs.ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("failed to materialize blob %s: %w", key, err)
	}

	return &Locator{key: key, path: path}, nil
}

// Key returns the chapter key this locator was resolved from.
func (l *Locator) Key() string { return l.key }

// Path returns the filesystem path of the materialized audio.
func (l *Locator) Path() string { return l.path }

// URL returns a file:// URL a media player can open.
func (l *Locator) URL() string {
	u := url.URL{Scheme: "file", Path: l.path}
	return u.String()
}

// Release deletes the materialized file. Exactly-once: repeated calls return
// the first result without touching the filesystem again.
func (l *Locator) Release() error {
	l.once.Do(func() {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			l.err = err
		}
	})
	return l.err
}
