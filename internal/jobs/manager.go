package jobs

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"audiotome/internal/config"
	"audiotome/internal/library"
	"audiotome/internal/websocket"
)

// JobContext is an interface that provides the dependencies a job needs.
// The core.App struct implements this interface.
type JobContext interface {
	DB() *sql.DB
	Config() *config.Config
	WsHub() *websocket.Hub
	Library() *library.Manager
	JobManager() *JobManager
}

type jobTask func(ctx JobContext)

type JobStatus struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"` // "idle", "running", "success", "failed"
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// JobManager runs one registered background job at a time and tracks status.
type JobManager struct {
	mu      sync.Mutex
	jobs    map[string]jobTask
	status  map[string]*JobStatus
	running bool
}

func NewManager() *JobManager {
	return &JobManager{
		jobs:   make(map[string]jobTask),
		status: make(map[string]*JobStatus),
	}
}

func (jm *JobManager) Register(name string, task jobTask) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.jobs[name] = task
	jm.status[name] = &JobStatus{Name: name, Status: "idle"}
}

// RunJob starts the named job in the background. Only one job runs at a
// time; a second submission is rejected instead of queued.
func (jm *JobManager) RunJob(name string, ctx JobContext) error {
	jm.mu.Lock()
	if jm.running {
		jm.mu.Unlock()
		return fmt.Errorf("a job is already running")
	}

	task, ok := jm.jobs[name]
	if !ok {
		jm.mu.Unlock()
		return fmt.Errorf("job '%s' not found", name)
	}

	jm.running = true
	status := jm.status[name]
	status.Status = "running"
	status.StartTime = time.Now()
	status.Message = "Job started..."
	jm.mu.Unlock()

	log.Printf("Starting job: %s", name)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Job '%s' panicked: %v", name, r)
				jm.mu.Lock()
				status.Status = "failed"
				status.Message = fmt.Sprintf("Job panicked: %v", r)
				jm.mu.Unlock()
			}

			jm.mu.Lock()
			status.EndTime = time.Now()
			if status.Status == "running" {
				status.Status = "success"
				status.Message = "Job completed successfully."
			}
			jm.running = false
			jm.mu.Unlock()
			log.Printf("Finished job: %s", name)
		}()

		task(ctx)
	}()

	return nil
}

// Statuses returns a snapshot of every registered job's status.
func (jm *JobManager) Statuses() []JobStatus {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	out := make([]JobStatus, 0, len(jm.status))
	for _, st := range jm.status {
		out = append(out, *st)
	}
	return out
}

// Fail marks the named job as failed with a message. Tasks call this before
// returning when they hit an error.
func (jm *JobManager) Fail(name, message string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	if st, ok := jm.status[name]; ok {
		st.Status = "failed"
		st.Message = message
	}
}
