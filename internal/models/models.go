// This file defines the core data structures (models) for the offline
// library: audiobooks and their downloaded chapters.

package models

import (
	"sort"
	"time"
)

// Audiobook is the metadata record for an audiobook that has at least one
// downloaded chapter. It is created lazily on the first successful chapter
// download and removed automatically when its last chapter is deleted.
type Audiobook struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	CoverURL       string `json:"cover_url"`
	CoverThumbnail string `json:"cover_thumbnail,omitempty"` // data URI, generated locally
	Slug           string `json:"slug"`
	Language       string `json:"language"`
	Genre          string `json:"genre"`
	IsCreatorBook  bool   `json:"is_creator_book"`

	// DownloadedAt is set when the record is created and never changes.
	// LastChapterDownloadedAt is touched on every chapter write.
	DownloadedAt            time.Time `json:"downloaded_at"`
	LastChapterDownloadedAt time.Time `json:"last_chapter_downloaded_at"`

	Chapters []*Chapter `json:"chapters,omitempty"` // omitempty hides it when not loaded
}

// Chapter is the metadata record for one downloaded chapter. The audio
// payload itself lives in the blob cache under the same ID.
type Chapter struct {
	ID              string    `json:"id"` // composite key, see ChapterKey
	AudiobookID     string    `json:"audiobook_id"`
	OriginalID      string    `json:"original_id"`
	Index           int       `json:"index"` // playback order
	Title           string    `json:"title"`
	FileSize        int64     `json:"file_size"` // bytes, derived from the blob at write time
	DurationSeconds float64   `json:"duration_seconds"`
	OriginalURL     string    `json:"original_url"` // source URL, kept for manual re-download
	DownloadedAt    time.Time `json:"downloaded_at"`
}

// ChapterKey builds the composite chapter ID used as the primary key in both
// the metadata store and the blob cache.
func ChapterKey(audiobookID, chapterID string) string {
	return audiobookID + "_" + chapterID
}

// SortChaptersByIndex orders chapters for playback. Ties on the index are
// broken by the existing slice order, which callers keep as insertion order.
func SortChaptersByIndex(chapters []*Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Index < chapters[j].Index
	})
}
