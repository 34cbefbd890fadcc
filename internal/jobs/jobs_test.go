package jobs_test

import (
	"testing"
	"time"

	"audiotome/internal/jobs"
	"audiotome/internal/models"
	"audiotome/internal/testutil"
)

func TestReconcileJobRemovesOrphanBlob(t *testing.T) {
	app := testutil.SetupTestApp(t)

	orphan := models.ChapterKey("book-gone", "c1")
	if err := app.Blobs().Put(orphan, []byte("leftover")); err != nil {
		t.Fatalf("seeding orphan blob failed: %v", err)
	}

	if err := app.JobManager().RunJob(jobs.JobReconcile, app); err != nil {
		t.Fatalf("RunJob() failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ok, _ := app.Blobs().Has(orphan); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("reconcile job never removed the orphan blob")
}
