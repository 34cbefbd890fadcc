package downloader

import (
	"context"
	"fmt"
)

// Result classifies a whole-audiobook download.
type Result string

const (
	ResultComplete Result = "complete" // every chapter stored (downloads or already present)
	ResultPartial  Result = "partial"  // some succeeded, some failed
	ResultFailed   Result = "failed"   // nothing succeeded and at least one error
)

// Summary is the outcome of DownloadAudiobook.
type Summary struct {
	Result    Result   `json:"result"`
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"` // includes already-downloaded chapters
	New       int      `json:"new"`       // newly fetched this run
	Skipped   int      `json:"skipped"`   // locked/paid chapters
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// DownloadAudiobook downloads the given chapters strictly in list order. One
// chapter's bytes are resident at a time and progress stays attributable to a
// single chapter. Locked chapters are skipped, not failed; one chapter's
// error never aborts the rest. Overall progress is recomputed after each
// chapter terminates and always reaches 100.
func (o *Orchestrator) DownloadAudiobook(ctx context.Context, chapters []ChapterInfo, book BookInfo, onChapter ChapterProgressFunc, onOverall ProgressFunc) Summary {
	if onChapter == nil {
		onChapter = func(string, float64, string) {}
	}
	if onOverall == nil {
		onOverall = func(float64, string) {}
	}

	summary := Summary{Total: len(chapters)}
	if summary.Total == 0 {
		summary.Result = ResultComplete
		onOverall(100, "No chapters to download")
		return summary
	}

	processed := 0
	for _, ch := range chapters {
		key := ch.Key(book.ID)

		if ch.Locked {
			summary.Skipped++
			processed++
			onOverall(overallPercent(processed, summary.Total),
				fmt.Sprintf("Skipped locked chapter %q (%d of %d)", ch.Title, processed, summary.Total))
			continue
		}

		already, err := o.DownloadChapter(ctx, ch, book, func(pct float64, msg string) {
			onChapter(key, pct, msg)
		})
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", ch.Title, err))
		} else {
			summary.Succeeded++
			if !already {
				summary.New++
			}
		}

		processed++
		onOverall(overallPercent(processed, summary.Total),
			fmt.Sprintf("Processed %d of %d chapters", processed, summary.Total))
	}

	switch {
	case summary.Failed == 0:
		summary.Result = ResultComplete
	case summary.Succeeded == 0:
		summary.Result = ResultFailed
	default:
		summary.Result = ResultPartial
	}
	return summary
}

func overallPercent(processed, total int) float64 {
	return float64(processed) / float64(total) * 100
}
