// Package blobcache stores chapter audio payloads in a BoltDB file, keyed by
// the same composite chapter ID as the metadata store. The two stores share
// no transaction: callers write the blob first so that a crash leaves at
// most an orphan blob, never metadata pointing at missing audio.
package blobcache

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	bolt "go.etcd.io/bbolt"

	"audiotome/internal/errdefs"
)

var bucketAudio = []byte("audio")

// Cache is a persistent blob store for chapter audio.
type Cache struct {
	db     *bolt.DB
	tmpDir string
}

// Open opens (or creates) the blob cache at path. Failure to open means the
// blob side of local storage is unavailable for the whole subsystem.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open blob cache: %v", errdefs.ErrStorageUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAudio)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to create audio bucket: %v", errdefs.ErrStorageUnavailable, err)
	}

	return &Cache{db: db, tmpDir: os.TempDir()}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Put stores the audio payload under key, overwriting any existing entry.
func (c *Cache) Put(key string, data []byte) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAudio).Put([]byte(key), data)
	})
	if err != nil {
		if isQuotaError(err) {
			return fmt.Errorf("%w: %v", errdefs.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return nil
}

// Get returns a copy of the stored payload, or errdefs.ErrNotFound.
func (c *Cache) Get(key string) ([]byte, error) {
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketAudio).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("blob %s: %w", key, errdefs.ErrNotFound)
	}
	return data, nil
}

// Has reports whether a payload exists for key.
func (c *Cache) Has(key string) (bool, error) {
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketAudio).Get([]byte(key)) != nil
		return nil
	})
	return found, err
}

// Delete removes the entry for key. Idempotent: deleting an absent key is
// not an error.
func (c *Cache) Delete(key string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAudio).Delete([]byte(key))
	})
}

// Keys lists every stored chapter key. Used by the reconcile sweep.
func (c *Cache) Keys() ([]string, error) {
	var keys []string
	err := c.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket(bucketAudio).Cursor()
		for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

// Clear removes every entry from the cache.
func (c *Cache) Clear() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketAudio); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketAudio)
		return err
	})
}

// isQuotaError reports whether err is a device-limit failure. Filesystem
// errors arrive wrapped in *os.PathError (from both bolt and WriteFile), so
// errors.Is unwraps down to the errno.
func isQuotaError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT)
}
