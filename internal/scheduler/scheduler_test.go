package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
)

func testLogger() *logging.Logger {
	return logging.Default()
}

func TestRunRecurring_DuplicateKey(t *testing.T) {
	s := New(testLogger())

	if err := s.RunRecurring("task-a", time.Second, func() {}); err != nil {
		t.Fatalf("RunRecurring() error = %v", err)
	}

	err := s.RunRecurring("task-a", time.Second, func() {})
	if err != ErrTaskExists {
		t.Errorf("RunRecurring() duplicate error = %v, want ErrTaskExists", err)
	}

	if got := s.TaskCount(); got != 1 {
		t.Errorf("TaskCount() = %d, want 1", got)
	}
}

func TestRunRecurring_InvalidInterval(t *testing.T) {
	s := New(testLogger())

	if err := s.RunRecurring("task-a", 0, func() {}); err != ErrInvalidInterval {
		t.Errorf("RunRecurring() error = %v, want ErrInvalidInterval", err)
	}
}

func TestRunRecurring_Fires(t *testing.T) {
	s := New(testLogger())
	s.Start()
	defer s.Stop()

	var fired atomic.Int32
	if err := s.RunRecurring("tick", 10*time.Millisecond, func() {
		fired.Add(1)
	}); err != nil {
		t.Fatalf("RunRecurring() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for fired.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("task fired %d times, want at least 2", fired.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCancel_TickerTask(t *testing.T) {
	s := New(testLogger())

	var fired atomic.Int32
	if err := s.RunRecurring("fast", 10*time.Millisecond, func() {
		fired.Add(1)
	}); err != nil {
		t.Fatalf("RunRecurring() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for fired.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("ticker task never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := s.Cancel("fast"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	after := fired.Load()
	time.Sleep(50 * time.Millisecond)
	// One in-flight tick may complete after Cancel, none beyond that.
	if got := fired.Load(); got > after+1 {
		t.Errorf("task fired %d times after Cancel, want at most 1", got-after)
	}
}

func TestCancel(t *testing.T) {
	s := New(testLogger())

	if err := s.RunRecurring("task-a", time.Second, func() {}); err != nil {
		t.Fatalf("RunRecurring() error = %v", err)
	}

	if !s.IsScheduled("task-a") {
		t.Error("IsScheduled() = false after RunRecurring")
	}

	if err := s.Cancel("task-a"); err != nil {
		t.Errorf("Cancel() error = %v", err)
	}

	if s.IsScheduled("task-a") {
		t.Error("IsScheduled() = true after Cancel")
	}

	if err := s.Cancel("task-a"); err != ErrTaskNotFound {
		t.Errorf("Cancel() second call error = %v, want ErrTaskNotFound", err)
	}
}

func TestCancelAll(t *testing.T) {
	s := New(testLogger())

	for _, key := range []string{"a", "b", "c"} {
		if err := s.RunRecurring(key, time.Second, func() {}); err != nil {
			t.Fatalf("RunRecurring(%q) error = %v", key, err)
		}
	}

	s.CancelAll()

	if got := s.TaskCount(); got != 0 {
		t.Errorf("TaskCount() after CancelAll = %d, want 0", got)
	}
}

func TestRunOnce(t *testing.T) {
	s := New(testLogger())

	done := make(chan struct{})
	s.RunOnce(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("one-shot task did not fire")
	}
}

func TestRunOnce_Cancel(t *testing.T) {
	s := New(testLogger())

	var fired atomic.Bool
	cancel := s.RunOnce(50*time.Millisecond, func() { fired.Store(true) })
	cancel()

	time.Sleep(100 * time.Millisecond)
	if fired.Load() {
		t.Error("cancelled one-shot task fired")
	}
}
