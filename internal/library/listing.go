package library

import (
	"log"

	"audiotome/internal/models"
)

// Library assembles the offline listing purely from local storage: all
// audiobook records joined with their chapters via the audiobook_id index,
// chapters ordered for playback. A failure on one entry skips that entry and
// never blocks the rest of the listing.
func (m *Manager) Library() ([]*models.Audiobook, error) {
	books, err := m.store.GetAllAudiobooks()
	if err != nil {
		return nil, err
	}

	listing := make([]*models.Audiobook, 0, len(books))
	for _, book := range books {
		chapters, err := m.store.GetChaptersByAudiobook(book.ID)
		if err != nil {
			log.Printf("Skipping audiobook %s in listing: %v", book.ID, err)
			continue
		}
		models.SortChaptersByIndex(chapters)
		book.Chapters = chapters
		listing = append(listing, book)
	}
	return listing, nil
}
