package jobs

import (
	"testing"
	"time"
)

func waitForStatus(t *testing.T, jm *JobManager, name, want string) JobStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, st := range jm.Statuses() {
			if st.Name == name && st.Status == want {
				return st
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %q never reached status %q; statuses: %+v", name, want, jm.Statuses())
	return JobStatus{}
}

func TestRunJobSuccess(t *testing.T) {
	jm := NewManager()
	ran := make(chan struct{})
	jm.Register("test-job", func(ctx JobContext) {
		close(ran)
	})

	if err := jm.RunJob("test-job", nil); err != nil {
		t.Fatalf("RunJob() failed: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job task never ran")
	}
	waitForStatus(t, jm, "test-job", "success")
}

func TestRunJobUnknown(t *testing.T) {
	jm := NewManager()
	if err := jm.RunJob("nope", nil); err == nil {
		t.Error("expected an error for an unknown job")
	}
}

func TestRunJobRejectsConcurrent(t *testing.T) {
	jm := NewManager()
	release := make(chan struct{})
	jm.Register("slow-job", func(ctx JobContext) {
		<-release
	})

	if err := jm.RunJob("slow-job", nil); err != nil {
		t.Fatalf("RunJob() failed: %v", err)
	}
	if err := jm.RunJob("slow-job", nil); err == nil {
		t.Error("expected rejection while a job is running")
	}

	close(release)
	waitForStatus(t, jm, "slow-job", "success")

	// Once finished, a new run is accepted again.
	release = make(chan struct{})
	close(release)
	if err := jm.RunJob("slow-job", nil); err != nil {
		t.Errorf("RunJob() after completion failed: %v", err)
	}
}

func TestRunJobRecoversFromPanic(t *testing.T) {
	jm := NewManager()
	jm.Register("panic-job", func(ctx JobContext) {
		panic("boom")
	})

	if err := jm.RunJob("panic-job", nil); err != nil {
		t.Fatalf("RunJob() failed: %v", err)
	}
	st := waitForStatus(t, jm, "panic-job", "failed")
	if st.Message == "" {
		t.Error("expected a failure message after panic")
	}

	// The manager is not wedged by the panic.
	jm.Register("ok-job", func(ctx JobContext) {})
	if err := jm.RunJob("ok-job", nil); err != nil {
		t.Errorf("RunJob() after panic failed: %v", err)
	}
}

func TestFailMarksStatus(t *testing.T) {
	jm := NewManager()
	jm.Register("j", func(ctx JobContext) {})
	jm.Fail("j", "went wrong")

	for _, st := range jm.Statuses() {
		if st.Name == "j" {
			if st.Status != "failed" || st.Message != "went wrong" {
				t.Errorf("unexpected status after Fail(): %+v", st)
			}
			return
		}
	}
	t.Fatal("job status missing")
}
