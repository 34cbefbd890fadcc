package library

import (
	"log"
)

// ReconcileReport summarizes one reconciliation sweep across the two storage
// systems.
type ReconcileReport struct {
	OrphanBlobsRemoved     int `json:"orphan_blobs_removed"`
	DanglingChapters       int `json:"dangling_chapters"`
	EmptyAudiobooksRemoved int `json:"empty_audiobooks_removed"`
}

// Reconcile repairs what the missing cross-store transaction can leave
// behind. An orphan blob (no chapter record) is deleted: it is recoverable by
// re-downloading. A dangling chapter record (no blob) is only counted and
// logged; playing it surfaces a not-found error and re-download stays a
// manual action. Audiobook records with zero chapters are removed.
func (m *Manager) Reconcile() (*ReconcileReport, error) {
	report := &ReconcileReport{}

	keys, err := m.blobs.Keys()
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		chapter, err := m.store.GetChapter(key)
		if err != nil {
			return report, err
		}
		if chapter == nil {
			if err := m.blobs.Delete(key); err != nil {
				return report, err
			}
			report.OrphanBlobsRemoved++
		}
	}

	chapters, err := m.store.GetAllChapters()
	if err != nil {
		return report, err
	}
	for _, ch := range chapters {
		ok, err := m.blobs.Has(ch.ID)
		if err != nil {
			return report, err
		}
		if !ok {
			log.Printf("Chapter %s has metadata but no stored audio; re-download required", ch.ID)
			report.DanglingChapters++
		}
	}

	removed, err := m.store.DeleteEmptyAudiobooks()
	if err != nil {
		return report, err
	}
	report.EmptyAudiobooksRemoved = int(removed)

	return report, nil
}
