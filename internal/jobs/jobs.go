package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"audiotome/internal/models"
)

const JobReconcile = "offline-reconcile"

// RegisterDefaults registers the built-in background jobs.
func RegisterDefaults(jm *JobManager) {
	jm.Register(JobReconcile, runReconcile)
}

// runReconcile sweeps the two storage systems back into agreement: orphan
// blobs are dropped, dangling chapter metadata is reported, empty audiobook
// records are removed.
func runReconcile(ctx JobContext) {
	report, err := ctx.Library().Reconcile()
	if err != nil {
		log.Printf("Reconcile sweep failed: %v", err)
		ctx.JobManager().Fail(JobReconcile, fmt.Sprintf("Reconcile failed: %v", err))
		ctx.WsHub().BroadcastJSON(models.ProgressUpdate{
			JobID: JobReconcile, Message: err.Error(), Progress: -1, Status: "failed", Done: true,
		})
		return
	}

	msg := fmt.Sprintf("Reconciled: %d orphan blobs removed, %d chapters missing audio, %d empty audiobooks removed",
		report.OrphanBlobsRemoved, report.DanglingChapters, report.EmptyAudiobooksRemoved)
	log.Println(msg)
	ctx.WsHub().BroadcastJSON(models.ProgressUpdate{
		JobID: JobReconcile, Message: msg, Progress: 100, Status: "completed", Done: true,
	})
}

// StartScheduler starts the background job scheduler.
func StartScheduler(app JobContext) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	scheduleReconcileJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
}

func scheduleReconcileJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().ReconcileInterval
	if interval == 0 {
		log.Println("Reconcile interval is 0, scheduled sweep is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", JobReconcile, interval)

	_, err := s.Every(interval).Minutes().Do(func() {
		// Submit through the manager so scheduled runs don't collide with
		// manually triggered ones.
		if err := app.JobManager().RunJob(JobReconcile, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", JobReconcile, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", JobReconcile, err)
	}
}
