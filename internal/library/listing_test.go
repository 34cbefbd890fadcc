package library_test

import (
	"testing"
	"time"

	"audiotome/internal/models"
)

func TestLibraryListingOrdersChaptersByIndex(t *testing.T) {
	f := setup(t)
	// Download order differs from playback order.
	f.seedChapter(t, "book-1", "c5", 5)
	f.seedChapter(t, "book-1", "c1", 1)
	f.seedChapter(t, "book-1", "c3", 3)

	listing, err := f.lib.Library()
	if err != nil {
		t.Fatalf("Library() failed: %v", err)
	}
	if len(listing) != 1 {
		t.Fatalf("expected 1 audiobook, got %d", len(listing))
	}

	chapters := listing[0].Chapters
	if len(chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(chapters))
	}
	for i, wantIndex := range []int{1, 3, 5} {
		if chapters[i].Index != wantIndex {
			t.Errorf("chapter position %d: got index %d, want %d", i, chapters[i].Index, wantIndex)
		}
	}
}

func TestLibraryListingSkipsCorruptEntry(t *testing.T) {
	f := setup(t)
	f.seedChapter(t, "book-good", "c1", 1)

	// A corrupt chapter row written behind the store's back: downloaded_at
	// holds text the timestamp scan cannot parse.
	now := time.Now()
	err := f.store.UpsertAudiobook(&models.Audiobook{
		ID: "book-bad", Title: "Broken",
		DownloadedAt: now, LastChapterDownloadedAt: now,
	})
	if err != nil {
		t.Fatalf("seeding audiobook failed: %v", err)
	}
	_, err = f.db.Exec(
		"INSERT INTO chapters (id, audiobook_id, downloaded_at) VALUES ('book-bad_c1', 'book-bad', 'garbage')")
	if err != nil {
		t.Fatalf("seeding corrupt chapter row failed: %v", err)
	}

	listing, err := f.lib.Library()
	if err != nil {
		t.Fatalf("Library() failed on a corrupt entry: %v", err)
	}
	if len(listing) != 1 {
		t.Fatalf("expected the healthy audiobook only, got %d entries", len(listing))
	}
	if listing[0].ID != "book-good" {
		t.Errorf("expected book-good in the listing, got %s", listing[0].ID)
	}
}

func TestLibraryListingEmpty(t *testing.T) {
	f := setup(t)

	listing, err := f.lib.Library()
	if err != nil {
		t.Fatalf("Library() failed: %v", err)
	}
	if len(listing) != 0 {
		t.Errorf("expected empty listing, got %d entries", len(listing))
	}
}
