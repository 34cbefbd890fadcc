package store

import (
	"database/sql"
	"fmt"

	"audiotome/internal/models"
)

const chapterColumns = `id, audiobook_id, original_id, chapter_index, title, file_size,
	duration_seconds, original_url, downloaded_at`

// UpsertChapter inserts a chapter record or overwrites it by primary key.
// A chapter is either absent or fully present; there is no partial update.
func (s *Store) UpsertChapter(c *models.Chapter) error {
	query := `
		INSERT INTO chapters (` + chapterColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			audiobook_id = excluded.audiobook_id,
			original_id = excluded.original_id,
			chapter_index = excluded.chapter_index,
			title = excluded.title,
			file_size = excluded.file_size,
			duration_seconds = excluded.duration_seconds,
			original_url = excluded.original_url,
			downloaded_at = excluded.downloaded_at;
	`
	_, err := s.db.Exec(query,
		c.ID, c.AudiobookID, c.OriginalID, c.Index, c.Title, c.FileSize,
		c.DurationSeconds, c.OriginalURL, c.DownloadedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert chapter %s: %w", c.ID, err)
	}
	return nil
}

// GetChapter fetches a single chapter by its composite key, or (nil, nil)
// if absent.
func (s *Store) GetChapter(id string) (*models.Chapter, error) {
	row := s.db.QueryRow(`SELECT `+chapterColumns+` FROM chapters WHERE id = ?`, id)
	c, err := scanChapter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetChaptersByAudiobook returns all chapters referencing one audiobook via
// the audiobook_id index. Rows come back in insertion (rowid) order; playback
// ordering by chapter index is the caller's responsibility.
func (s *Store) GetChaptersByAudiobook(audiobookID string) ([]*models.Chapter, error) {
	rows, err := s.db.Query(
		`SELECT `+chapterColumns+` FROM chapters WHERE audiobook_id = ? ORDER BY rowid ASC`,
		audiobookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectChapters(rows)
}

// GetAllChapters returns every chapter record. Used by the reconcile sweep.
func (s *Store) GetAllChapters() ([]*models.Chapter, error) {
	rows, err := s.db.Query(`SELECT ` + chapterColumns + ` FROM chapters ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectChapters(rows)
}

// CountChaptersByAudiobook reports how many chapters still reference an
// audiobook. Drives the cascade delete of the parent record.
func (s *Store) CountChaptersByAudiobook(audiobookID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chapters WHERE audiobook_id = ?", audiobookID).Scan(&count)
	return count, err
}

// DeleteChapter removes one chapter record. No-op if absent.
func (s *Store) DeleteChapter(id string) error {
	_, err := s.db.Exec("DELETE FROM chapters WHERE id = ?", id)
	return err
}

func collectChapters(rows *sql.Rows) ([]*models.Chapter, error) {
	var chapters []*models.Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

func scanChapter(row scanner) (*models.Chapter, error) {
	var c models.Chapter
	err := row.Scan(
		&c.ID, &c.AudiobookID, &c.OriginalID, &c.Index, &c.Title, &c.FileSize,
		&c.DurationSeconds, &c.OriginalURL, &c.DownloadedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
