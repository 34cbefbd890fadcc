// Package downloader turns "download this chapter" into a persisted
// (metadata, blob) pair with progress reporting, and "download this
// audiobook" into a strictly serialized sequence of chapter downloads.
package downloader

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"audiotome/internal/blobcache"
	"audiotome/internal/library"
	"audiotome/internal/models"
	"audiotome/internal/store"
)

// ChapterInfo describes one chapter of the remote audiobook.
type ChapterInfo struct {
	ID              string  `json:"id"` // original chapter id; index is used when empty
	Index           int     `json:"index"`
	Title           string  `json:"title"`
	AudioURL        string  `json:"audio_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	Locked          bool    `json:"locked"` // inaccessible (locked/paid); skipped, not failed
}

// BookInfo describes the audiobook a chapter belongs to.
type BookInfo struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	CoverURL      string `json:"cover_url"`
	Slug          string `json:"slug"`
	Language      string `json:"language"`
	Genre         string `json:"genre"`
	IsCreatorBook bool   `json:"is_creator_book"`
}

// ProgressFunc receives progress percentages in {-1} ∪ [0,100]. Values are
// monotonically non-decreasing per chapter; -1 is terminal and carries the
// failure reason in the message.
type ProgressFunc func(percent float64, message string)

// ChapterProgressFunc is a per-chapter progress callback keyed by the
// composite chapter ID.
type ChapterProgressFunc func(chapterKey string, percent float64, message string)

// Orchestrator drives chapter downloads against the two storage systems.
type Orchestrator struct {
	store     *store.Store
	blobs     *blobcache.Cache
	client    *http.Client
	userAgent string
}

func New(st *store.Store, blobs *blobcache.Cache, client *http.Client, userAgent string) *Orchestrator {
	if client == nil {
		client = http.DefaultClient
	}
	return &Orchestrator{store: st, blobs: blobs, client: client, userAgent: userAgent}
}

func (ci ChapterInfo) identity() string {
	if ci.ID != "" {
		return ci.ID
	}
	return strconv.Itoa(ci.Index)
}

// Key returns the composite chapter key this chapter will be stored under,
// applying the same index fallback the download path uses.
func (ci ChapterInfo) Key(audiobookID string) string {
	return models.ChapterKey(audiobookID, ci.identity())
}

// DownloadChapter fetches one chapter's audio and commits blob + metadata.
// Idempotent by design: an already stored chapter reports (100, "Already
// downloaded") without re-fetching, even if the remote content has since
// changed. On any failure nothing is committed. The returned bool reports
// whether the chapter was already present.
func (o *Orchestrator) DownloadChapter(ctx context.Context, ch ChapterInfo, book BookInfo, onProgress ProgressFunc) (bool, error) {
	if onProgress == nil {
		onProgress = func(float64, string) {}
	}

	key := models.ChapterKey(book.ID, ch.identity())

	existing, err := o.store.GetChapter(key)
	if err != nil {
		onProgress(-1, "Could not read offline storage")
		return false, err
	}
	if existing != nil {
		onProgress(100, "Already downloaded")
		return true, nil
	}

	onProgress(0, "Starting download...")

	// The parent record is created up front so its metadata is in place
	// before the chapter lands; the failure path below removes it again if
	// no chapter ever did.
	created, err := o.ensureAudiobook(ctx, book)
	if err != nil {
		onProgress(-1, "Could not save audiobook metadata")
		return false, err
	}

	data, err := o.fetchAudio(ctx, ch.AudioURL, onProgress)
	if err != nil {
		o.rollbackParent(book.ID, created)
		onProgress(-1, fmt.Sprintf("Download failed: %v", err))
		return false, err
	}

	// Blob first, then metadata: a crash in between leaves an orphan blob
	// the reconcile sweep can remove, never a dangling chapter record.
	if err := o.blobs.Put(key, data); err != nil {
		o.rollbackParent(book.ID, created)
		onProgress(-1, fmt.Sprintf("Could not store audio: %v", err))
		return false, err
	}

	now := time.Now()
	record := &models.Chapter{
		ID:              key,
		AudiobookID:     book.ID,
		OriginalID:      ch.identity(),
		Index:           ch.Index,
		Title:           ch.Title,
		FileSize:        int64(len(data)),
		DurationSeconds: ch.DurationSeconds,
		OriginalURL:     ch.AudioURL,
		DownloadedAt:    now,
	}
	if err := o.store.UpsertChapter(record); err != nil {
		// Leave the blob in place; the reconcile sweep treats it as an
		// orphan and the chapter stays re-downloadable.
		o.rollbackParent(book.ID, created)
		onProgress(-1, "Could not save chapter metadata")
		return false, err
	}

	if err := o.store.TouchAudiobook(book.ID, now); err != nil {
		log.Printf("Could not touch audiobook %s after chapter download: %v", book.ID, err)
	}

	onProgress(100, "Download complete!")
	return false, nil
}

// ensureAudiobook upserts the parent record and reports whether it was newly
// created. Cover art is fetched best-effort on first creation; a cover
// failure never fails the chapter download.
func (o *Orchestrator) ensureAudiobook(ctx context.Context, book BookInfo) (bool, error) {
	existing, err := o.store.GetAudiobook(book.ID)
	if err != nil {
		return false, err
	}

	now := time.Now()
	record := &models.Audiobook{
		ID:            book.ID,
		Title:         book.Title,
		Author:        book.Author,
		CoverURL:      book.CoverURL,
		Slug:          book.Slug,
		Language:      book.Language,
		Genre:         book.Genre,
		IsCreatorBook: book.IsCreatorBook,

		DownloadedAt:            now,
		LastChapterDownloadedAt: now,
	}
	if existing != nil {
		// Both timestamps are immutable through the upsert: downloaded_at
		// stays at creation, last_chapter_downloaded_at moves only via
		// TouchAudiobook once a chapter actually commits. This just keeps
		// the struct honest.
		record.DownloadedAt = existing.DownloadedAt
		record.LastChapterDownloadedAt = existing.LastChapterDownloadedAt
	}

	if err := o.store.UpsertAudiobook(record); err != nil {
		return false, err
	}

	if existing == nil && book.CoverURL != "" {
		o.cacheCoverThumbnail(ctx, book.ID, book.CoverURL)
	}
	return existing == nil, nil
}

// rollbackParent removes a freshly created audiobook record that ended up
// with zero chapters, keeping the "record exists iff a chapter references
// it" invariant across failed downloads.
func (o *Orchestrator) rollbackParent(audiobookID string, created bool) {
	if !created {
		return
	}
	count, err := o.store.CountChaptersByAudiobook(audiobookID)
	if err != nil || count > 0 {
		return
	}
	if err := o.store.DeleteAudiobook(audiobookID); err != nil {
		log.Printf("Could not remove empty audiobook %s after failed download: %v", audiobookID, err)
	}
}

func (o *Orchestrator) cacheCoverThumbnail(ctx context.Context, audiobookID, coverURL string) {
	data, err := o.fetchAudio(ctx, coverURL, nil)
	if err != nil {
		log.Printf("Could not fetch cover for %s: %v", audiobookID, err)
		return
	}
	thumb, err := library.GenerateCoverThumbnail(data)
	if err != nil {
		log.Printf("Could not generate cover thumbnail for %s: %v", audiobookID, err)
		return
	}
	if err := o.store.UpdateCoverThumbnailIfNeeded(audiobookID, thumb); err != nil {
		log.Printf("Could not save cover thumbnail for %s: %v", audiobookID, err)
	}
}
