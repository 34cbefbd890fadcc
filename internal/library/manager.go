// Package library enforces the offline library's one invariant: an audiobook
// record exists if and only if at least one chapter still references it.
// Every deletion path runs through the Manager so the cascade happens on all
// of them.
package library

import (
	"fmt"
	"log"

	"audiotome/internal/blobcache"
	"audiotome/internal/store"
)

type Manager struct {
	store *store.Store
	blobs *blobcache.Cache

	// onClear releases any in-flight playback resource before a clear-all.
	// Wired to the playback controller's Close at startup.
	onClear func()
}

func New(st *store.Store, blobs *blobcache.Cache) *Manager {
	return &Manager{store: st, blobs: blobs}
}

// SetClearHook registers a callback invoked at the start of ClearAll.
func (m *Manager) SetClearHook(fn func()) {
	m.onClear = fn
}

// DeleteChapter removes one chapter's blob and metadata, then deletes the
// parent audiobook if no chapters reference it anymore. Blob deletion comes
// first; both deletes are idempotent and independently keyed, so a crash in
// between leaves recoverable state.
func (m *Manager) DeleteChapter(chapterID string) error {
	chapter, err := m.store.GetChapter(chapterID)
	if err != nil {
		return fmt.Errorf("failed to look up chapter %s: %w", chapterID, err)
	}

	if err := m.blobs.Delete(chapterID); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", chapterID, err)
	}

	if chapter == nil {
		// Metadata already gone; removing the blob above was all there
		// was to do.
		return nil
	}

	if err := m.store.DeleteChapter(chapterID); err != nil {
		return fmt.Errorf("failed to delete chapter %s: %w", chapterID, err)
	}

	remaining, err := m.store.CountChaptersByAudiobook(chapter.AudiobookID)
	if err != nil {
		return fmt.Errorf("failed to count remaining chapters: %w", err)
	}
	if remaining == 0 {
		if err := m.store.DeleteAudiobook(chapter.AudiobookID); err != nil {
			return fmt.Errorf("failed to cascade delete audiobook %s: %w", chapter.AudiobookID, err)
		}
	}
	return nil
}

// DeleteAudiobook removes every chapter (blob and metadata) of an audiobook
// and then the audiobook record itself. The record is removed even when no
// chapters exist, which repairs inconsistent prior state.
func (m *Manager) DeleteAudiobook(audiobookID string) error {
	chapters, err := m.store.GetChaptersByAudiobook(audiobookID)
	if err != nil {
		return fmt.Errorf("failed to enumerate chapters of %s: %w", audiobookID, err)
	}

	for _, ch := range chapters {
		if err := m.blobs.Delete(ch.ID); err != nil {
			return fmt.Errorf("failed to delete blob %s: %w", ch.ID, err)
		}
		if err := m.store.DeleteChapter(ch.ID); err != nil {
			return fmt.Errorf("failed to delete chapter %s: %w", ch.ID, err)
		}
	}

	if err := m.store.DeleteAudiobook(audiobookID); err != nil {
		return fmt.Errorf("failed to delete audiobook %s: %w", audiobookID, err)
	}
	return nil
}

// ClearAll drops both collections and the blob cache. Any playback resource
// currently held is released first via the registered hook.
func (m *Manager) ClearAll() error {
	if m.onClear != nil {
		m.onClear()
	}

	if err := m.blobs.Clear(); err != nil {
		return fmt.Errorf("failed to clear blob cache: %w", err)
	}
	if err := m.store.ClearAll(); err != nil {
		return fmt.Errorf("failed to clear metadata store: %w", err)
	}
	log.Println("Offline library cleared.")
	return nil
}
