// To handle all database interactions for the offline library. This is our
// data access layer, keeping SQL queries separate from business logic.
//
// Get-style methods return (nil, nil) when a record is absent: absence is an
// expected condition for this store, not an error.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"audiotome/internal/models"
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const audiobookColumns = `id, title, author, cover_url, cover_thumbnail, slug, language, genre,
	is_creator_book, downloaded_at, last_chapter_downloaded_at`

// UpsertAudiobook inserts the audiobook record or refreshes its display
// metadata if it already exists. Both timestamps are set on first write only:
// downloaded_at never changes, and last_chapter_downloaded_at moves solely
// through TouchAudiobook after a chapter commit.
func (s *Store) UpsertAudiobook(ab *models.Audiobook) error {
	query := `
		INSERT INTO audiobooks (` + audiobookColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			cover_url = excluded.cover_url,
			slug = excluded.slug,
			language = excluded.language,
			genre = excluded.genre,
			is_creator_book = excluded.is_creator_book;
	`
	_, err := s.db.Exec(query,
		ab.ID, ab.Title, ab.Author, ab.CoverURL, ab.CoverThumbnail, ab.Slug, ab.Language,
		ab.Genre, ab.IsCreatorBook, ab.DownloadedAt, ab.LastChapterDownloadedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert audiobook %s: %w", ab.ID, err)
	}
	return nil
}

// GetAudiobook fetches a single audiobook by ID, or (nil, nil) if absent.
func (s *Store) GetAudiobook(id string) (*models.Audiobook, error) {
	row := s.db.QueryRow(`SELECT `+audiobookColumns+` FROM audiobooks WHERE id = ?`, id)
	ab, err := scanAudiobook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ab, err
}

// GetAllAudiobooks returns every audiobook record, ordered by title for
// stable listings.
func (s *Store) GetAllAudiobooks() ([]*models.Audiobook, error) {
	rows, err := s.db.Query(`SELECT ` + audiobookColumns + ` FROM audiobooks ORDER BY title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*models.Audiobook
	for rows.Next() {
		ab, err := scanAudiobook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, ab)
	}
	return books, rows.Err()
}

// TouchAudiobook updates last_chapter_downloaded_at after a chapter write.
func (s *Store) TouchAudiobook(id string, at time.Time) error {
	_, err := s.db.Exec("UPDATE audiobooks SET last_chapter_downloaded_at = ? WHERE id = ?", at, id)
	return err
}

// UpdateCoverThumbnailIfNeeded sets the locally generated cover thumbnail
// only if one hasn't been stored yet.
func (s *Store) UpdateCoverThumbnailIfNeeded(id, thumbnail string) error {
	_, err := s.db.Exec(
		"UPDATE audiobooks SET cover_thumbnail = ? WHERE id = ? AND cover_thumbnail = ''",
		thumbnail, id)
	return err
}

// DeleteAudiobook removes one audiobook record. No-op if absent.
func (s *Store) DeleteAudiobook(id string) error {
	_, err := s.db.Exec("DELETE FROM audiobooks WHERE id = ?", id)
	return err
}

// DeleteEmptyAudiobooks removes any audiobooks that have no chapters left,
// and reports how many were removed.
func (s *Store) DeleteEmptyAudiobooks() (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM audiobooks
		WHERE id IN (
			SELECT a.id FROM audiobooks a
			LEFT JOIN chapters c ON a.id = c.audiobook_id
			GROUP BY a.id
			HAVING COUNT(c.id) = 0
		)
	`)
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()
	return removed, nil
}

// ClearAll drops both collections in one transaction.
func (s *Store) ClearAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chapters"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM audiobooks"); err != nil {
		return err
	}
	return tx.Commit()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAudiobook(row scanner) (*models.Audiobook, error) {
	var ab models.Audiobook
	err := row.Scan(
		&ab.ID, &ab.Title, &ab.Author, &ab.CoverURL, &ab.CoverThumbnail, &ab.Slug,
		&ab.Language, &ab.Genre, &ab.IsCreatorBook, &ab.DownloadedAt, &ab.LastChapterDownloadedAt)
	if err != nil {
		return nil, err
	}
	return &ab, nil
}
