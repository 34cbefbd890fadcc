package blobcache

import (
	"errors"
	"os"
	"strings"
	"testing"

	"audiotome/internal/errdefs"
)

func TestGetAsURLMaterializesBlob(t *testing.T) {
	c := newTestCache(t)
	c.tmpDir = t.TempDir()

	payload := []byte("audio payload")
	if err := c.Put("book-1_c1", payload); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	loc, err := c.GetAsURL("book-1_c1")
	if err != nil {
		t.Fatalf("GetAsURL() failed: %v", err)
	}
	defer loc.Release()

	if loc.Key() != "book-1_c1" {
		t.Errorf("unexpected locator key %q", loc.Key())
	}
	if !strings.HasPrefix(loc.URL(), "file://") {
		t.Errorf("expected file URL, got %q", loc.URL())
	}

	data, err := os.ReadFile(loc.Path())
	if err != nil {
		t.Fatalf("reading materialized file failed: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("materialized file mismatch: got %q", data)
	}
}

func TestGetAsURLMissingBlob(t *testing.T) {
	c := newTestCache(t)

	_, err := c.GetAsURL("missing")
	if !errors.Is(err, errdefs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocatorsAreIndependent(t *testing.T) {
	c := newTestCache(t)
	c.tmpDir = t.TempDir()

	if err := c.Put("key", []byte("x")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	first, err := c.GetAsURL("key")
	if err != nil {
		t.Fatalf("first GetAsURL() failed: %v", err)
	}
	second, err := c.GetAsURL("key")
	if err != nil {
		t.Fatalf("second GetAsURL() failed: %v", err)
	}
	if first.Path() == second.Path() {
		t.Error("two locators share one temp file")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	// The second locator's file must survive the first release.
	if _, err := os.Stat(second.Path()); err != nil {
		t.Errorf("second locator's file gone after first release: %v", err)
	}
	second.Release()
}

func TestReleaseExactlyOnce(t *testing.T) {
	c := newTestCache(t)
	c.tmpDir = t.TempDir()

	if err := c.Put("key", []byte("x")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	loc, err := c.GetAsURL("key")
	if err != nil {
		t.Fatalf("GetAsURL() failed: %v", err)
	}

	if err := loc.Release(); err != nil {
		t.Fatalf("first Release() failed: %v", err)
	}
	if _, err := os.Stat(loc.Path()); !os.IsNotExist(err) {
		t.Error("temp file still present after release")
	}
	// Repeated releases are no-ops, not errors.
	if err := loc.Release(); err != nil {
		t.Errorf("second Release() returned error: %v", err)
	}
}
