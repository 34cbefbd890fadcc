package library_test

import (
	"database/sql"
	"testing"
	"time"

	"audiotome/internal/blobcache"
	"audiotome/internal/library"
	"audiotome/internal/models"
	"audiotome/internal/store"
	"audiotome/internal/testutil"
)

type fixture struct {
	db    *sql.DB
	store *store.Store
	blobs *blobcache.Cache
	lib   *library.Manager
}

func setup(t *testing.T) *fixture {
	t.Helper()
	database := testutil.SetupTestDB(t)
	st := store.New(database)
	blobs := testutil.SetupTestBlobCache(t)
	return &fixture{db: database, store: st, blobs: blobs, lib: library.New(st, blobs)}
}

// seedChapter stores a chapter record and its blob, creating the parent
// audiobook record if needed.
func (f *fixture) seedChapter(t *testing.T, bookID, originalID string, index int) string {
	t.Helper()

	if book, _ := f.store.GetAudiobook(bookID); book == nil {
		now := time.Now()
		err := f.store.UpsertAudiobook(&models.Audiobook{
			ID: bookID, Title: "Book " + bookID,
			DownloadedAt: now, LastChapterDownloadedAt: now,
		})
		if err != nil {
			t.Fatalf("seeding audiobook failed: %v", err)
		}
	}

	key := models.ChapterKey(bookID, originalID)
	if err := f.blobs.Put(key, []byte("audio-"+originalID)); err != nil {
		t.Fatalf("seeding blob failed: %v", err)
	}
	err := f.store.UpsertChapter(&models.Chapter{
		ID: key, AudiobookID: bookID, OriginalID: originalID, Index: index,
		Title: "Chapter " + originalID, FileSize: 10, DownloadedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seeding chapter failed: %v", err)
	}
	return key
}

func TestDeleteChapterKeepsParentWhileOthersRemain(t *testing.T) {
	f := setup(t)
	key1 := f.seedChapter(t, "book-1", "c1", 1)
	f.seedChapter(t, "book-1", "c2", 2)

	if err := f.lib.DeleteChapter(key1); err != nil {
		t.Fatalf("DeleteChapter() failed: %v", err)
	}

	if ch, _ := f.store.GetChapter(key1); ch != nil {
		t.Error("deleted chapter metadata still present")
	}
	if ok, _ := f.blobs.Has(key1); ok {
		t.Error("deleted chapter blob still present")
	}
	if book, _ := f.store.GetAudiobook("book-1"); book == nil {
		t.Error("parent removed while a chapter still references it")
	}
}

func TestDeleteLastChapterCascadesToParent(t *testing.T) {
	f := setup(t)
	key := f.seedChapter(t, "book-1", "c1", 1)

	if err := f.lib.DeleteChapter(key); err != nil {
		t.Fatalf("DeleteChapter() failed: %v", err)
	}

	if book, _ := f.store.GetAudiobook("book-1"); book != nil {
		t.Error("parent audiobook survived its last chapter")
	}
}

func TestDeleteChapterWithoutMetadataStillRemovesBlob(t *testing.T) {
	f := setup(t)

	// Simulate a crash that left an orphan blob behind.
	key := models.ChapterKey("book-1", "c1")
	if err := f.blobs.Put(key, []byte("orphan")); err != nil {
		t.Fatalf("seeding blob failed: %v", err)
	}

	if err := f.lib.DeleteChapter(key); err != nil {
		t.Fatalf("DeleteChapter() on orphan blob failed: %v", err)
	}
	if ok, _ := f.blobs.Has(key); ok {
		t.Error("orphan blob survived delete")
	}
}

func TestDeleteAudiobookRemovesEverything(t *testing.T) {
	f := setup(t)
	key1 := f.seedChapter(t, "book-1", "c1", 1)
	key2 := f.seedChapter(t, "book-1", "c2", 2)
	other := f.seedChapter(t, "book-2", "c1", 1)

	if err := f.lib.DeleteAudiobook("book-1"); err != nil {
		t.Fatalf("DeleteAudiobook() failed: %v", err)
	}

	for _, key := range []string{key1, key2} {
		if ch, _ := f.store.GetChapter(key); ch != nil {
			t.Errorf("chapter %s survived audiobook delete", key)
		}
		if ok, _ := f.blobs.Has(key); ok {
			t.Errorf("blob %s survived audiobook delete", key)
		}
	}
	if book, _ := f.store.GetAudiobook("book-1"); book != nil {
		t.Error("audiobook record survived its own delete")
	}

	// The other audiobook is untouched.
	if ch, _ := f.store.GetChapter(other); ch == nil {
		t.Error("unrelated audiobook's chapter was deleted")
	}
}

func TestDeleteAudiobookWithZeroChapters(t *testing.T) {
	f := setup(t)

	// Inconsistent prior state: a record with no chapters.
	now := time.Now()
	err := f.store.UpsertAudiobook(&models.Audiobook{
		ID: "book-empty", Title: "Empty",
		DownloadedAt: now, LastChapterDownloadedAt: now,
	})
	if err != nil {
		t.Fatalf("seeding failed: %v", err)
	}

	if err := f.lib.DeleteAudiobook("book-empty"); err != nil {
		t.Fatalf("DeleteAudiobook() on empty book failed: %v", err)
	}
	if book, _ := f.store.GetAudiobook("book-empty"); book != nil {
		t.Error("empty audiobook record survived delete")
	}
}

func TestClearAllRunsHookAndEmptiesBothStores(t *testing.T) {
	f := setup(t)
	f.seedChapter(t, "book-1", "c1", 1)
	f.seedChapter(t, "book-2", "c1", 1)

	hookCalled := false
	f.lib.SetClearHook(func() { hookCalled = true })

	if err := f.lib.ClearAll(); err != nil {
		t.Fatalf("ClearAll() failed: %v", err)
	}
	if !hookCalled {
		t.Error("clear hook was not invoked")
	}

	books, err := f.store.GetAllAudiobooks()
	if err != nil {
		t.Fatalf("GetAllAudiobooks() failed: %v", err)
	}
	if len(books) != 0 {
		t.Errorf("expected empty metadata store, got %d audiobooks", len(books))
	}
	keys, err := f.blobs.Keys()
	if err != nil {
		t.Fatalf("Keys() failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty blob cache, got %d blobs", len(keys))
	}
}
