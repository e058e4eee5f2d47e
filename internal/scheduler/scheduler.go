package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
)

// Scheduler manages keyed recurring tasks and one-shot timers.
//
// Intervals of a second or more run on the cron runner. Shorter
// intervals run on dedicated tickers, because cron rounds sub-second
// delays up to a full second and animation ticks need millisecond
// cadence.
type Scheduler struct {
	cron   *cron.Cron
	logger *logging.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
	tickers map[string]chan struct{}
	wg      sync.WaitGroup
}

// New creates a Scheduler. Call Start before registering tasks is not
// required, but no cron-backed callbacks fire until Start.
func New(logger *logging.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger.With("component", "scheduler"),
		entries: make(map[string]cron.EntryID),
		tickers: make(map[string]chan struct{}),
	}
}

// Start begins executing scheduled tasks.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts the scheduler: cancels every ticker-backed task, stops the
// cron runner and waits for any running callback to finish. Registered
// one-shot timers created via RunOnce are not affected; cancel them
// individually.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for key, stop := range s.tickers {
		close(stop)
		delete(s.tickers, key)
	}
	s.mu.Unlock()
	s.wg.Wait()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunRecurring registers fn to run every interval under the given key.
//
// Returns ErrTaskExists if the key is already registered. The first run
// happens one interval after registration, not immediately.
func (s *Scheduler) RunRecurring(key string, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registered(key) {
		return ErrTaskExists
	}

	if interval < time.Second {
		stop := make(chan struct{})
		s.tickers[key] = stop
		s.wg.Add(1)
		go s.runTicker(interval, stop, fn)
	} else {
		spec := fmt.Sprintf("@every %s", interval)
		entryID, err := s.cron.AddFunc(spec, fn)
		if err != nil {
			return fmt.Errorf("scheduler: adding task %q: %w", key, err)
		}
		s.entries[key] = entryID
	}

	s.logger.Debug("recurring task registered", "key", key, "interval", interval.String())
	return nil
}

// registered reports whether key is taken. Caller holds the mutex.
func (s *Scheduler) registered(key string) bool {
	if _, ok := s.entries[key]; ok {
		return true
	}
	_, ok := s.tickers[key]
	return ok
}

func (s *Scheduler) runTicker(interval time.Duration, stop <-chan struct{}, fn func()) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			fn()
		}
	}
}

// Cancel removes the recurring task registered under key.
// Returns ErrTaskNotFound if no task is registered under key.
func (s *Scheduler) Cancel(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[key]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, key)
		s.logger.Debug("recurring task cancelled", "key", key)
		return nil
	}
	if stop, exists := s.tickers[key]; exists {
		close(stop)
		delete(s.tickers, key)
		s.logger.Debug("recurring task cancelled", "key", key)
		return nil
	}
	return ErrTaskNotFound
}

// IsScheduled reports whether a recurring task is registered under key.
func (s *Scheduler) IsScheduled(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registered(key)
}

// TaskCount returns the number of registered recurring tasks.
func (s *Scheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries) + len(s.tickers)
}

// CancelAll removes every registered recurring task.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entryID := range s.entries {
		s.cron.Remove(entryID)
		delete(s.entries, key)
	}
	for key, stop := range s.tickers {
		close(stop)
		delete(s.tickers, key)
	}
}

// RunOnce schedules fn to run once after delay on its own timer goroutine.
// The returned cancel function stops the timer if it has not fired yet;
// calling it after the timer fired is a no-op.
func (s *Scheduler) RunOnce(delay time.Duration, fn func()) (cancel func()) {
	timer := time.AfterFunc(delay, fn)
	return func() {
		timer.Stop()
	}
}
