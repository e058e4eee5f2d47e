package module

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
)

// mockRepository is an in-memory Repository for tests.
type mockRepository struct {
	mu      sync.Mutex
	records map[string]Record
	saves   int
}

func newMockRepository() *mockRepository {
	return &mockRepository{records: make(map[string]Record)}
}

func (r *mockRepository) List(_ context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

func (r *mockRepository) GetByID(_ context.Context, id string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *mockRepository) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; ok {
		return ErrExists
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.records[rec.ID] = *rec
	return nil
}

func (r *mockRepository) Save(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return ErrNotFound
	}
	rec.UpdatedAt = time.Now().UTC()
	r.records[rec.ID] = *rec
	r.saves++
	return nil
}

func (r *mockRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *mockRepository) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records), nil
}

func (r *mockRepository) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// emitted is one captured outbound event.
type emitted struct {
	event   string
	payload any
}

// mockSession captures emits and dispatches inbound events to handlers.
type mockSession struct {
	mu       sync.Mutex
	emits    []emitted
	handlers map[string]func(json.RawMessage)
	closed   bool
}

func newMockSession() *mockSession {
	return &mockSession{handlers: make(map[string]func(json.RawMessage))}
}

func (s *mockSession) Emit(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emits = append(s.emits, emitted{event: event, payload: payload})
	return nil
}

func (s *mockSession) On(event string, handler func(json.RawMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = handler
}

func (s *mockSession) Off(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, event)
}

func (s *mockSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// receive simulates an inbound event from the device.
func (s *mockSession) receive(event string, payload string) {
	s.mu.Lock()
	handler := s.handlers[event]
	s.mu.Unlock()
	if handler != nil {
		handler(json.RawMessage(payload))
	}
}

func (s *mockSession) emittedEvents() []emitted {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]emitted, len(s.emits))
	copy(out, s.emits)
	return out
}

func (s *mockSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeTimers runs one-shot timers only when fire is called, so tests
// control eviction timing deterministically.
type fakeTimers struct {
	mu      sync.Mutex
	pending []func()
}

func (t *fakeTimers) RunOnce(_ time.Duration, fn func()) (cancel func()) {
	t.mu.Lock()
	t.pending = append(t.pending, fn)
	t.mu.Unlock()
	return func() {}
}

// fire runs all pending timers.
func (t *fakeTimers) fire() {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func testLogger() *logging.Logger {
	return logging.Default()
}
