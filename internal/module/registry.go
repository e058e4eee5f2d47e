package module

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
)

// TimerRunner schedules one-shot timers. The scheduler package provides
// the production implementation; tests use a synchronous fake.
type TimerRunner interface {
	RunOnce(delay time.Duration, fn func()) (cancel func())
}

// Registry holds the in-memory module instances and is their single
// mutator. Lookups are linear scans; the collection is expected to stay
// small (tens, not thousands).
//
// All public methods are thread-safe.
type Registry struct {
	repo            Repository
	timers          TimerRunner
	evictionTimeout time.Duration
	logger          *logging.Logger

	mu      sync.Mutex
	modules []*Module
}

// NewRegistry creates a module registry.
//
// evictionTimeout is the window a registered module has to be validated
// before it is deleted.
func NewRegistry(repo Repository, timers TimerRunner, evictionTimeout time.Duration, logger *logging.Logger) *Registry {
	return &Registry{
		repo:            repo,
		timers:          timers,
		evictionTimeout: evictionTimeout,
		logger:          logger.With("component", "module_registry"),
	}
}

// Load reads all persisted records, instantiates the matching module
// kind for each, and arms an eviction timer for every not-yet-validated
// module. An unknown persisted type is a fatal error.
func (r *Registry) Load(ctx context.Context) error {
	records, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading module records: %w", err)
	}

	modules := make([]*Module, 0, len(records))
	for _, rec := range records {
		m, err := New(rec, r.repo, r.logger)
		if err != nil {
			return fmt.Errorf("instantiating module %s: %w", rec.ID, err)
		}
		modules = append(modules, m)
	}

	r.mu.Lock()
	r.modules = modules
	r.mu.Unlock()

	for _, m := range modules {
		if !m.Validated() {
			r.armEviction(m)
		}
	}

	r.logger.Info("modules loaded", "count", len(modules))
	return nil
}

// Unload disconnects every module's live session and clears the
// in-memory list without touching persisted records.
func (r *Registry) Unload() {
	r.mu.Lock()
	modules := r.modules
	r.modules = nil
	r.mu.Unlock()

	for _, m := range modules {
		m.Disconnect()
	}
	r.logger.Info("modules unloaded", "count", len(modules))
}

// Create registers a new module of the given type. The instance starts
// unvalidated with an eviction timer armed; the caller typically calls
// GenerateToken next.
func (r *Registry) Create(ctx context.Context, t Type) (*Module, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}

	rec := Record{
		ID:       NewModuleID(),
		Type:     t,
		Metadata: Metadata{},
	}
	if err := r.repo.Create(ctx, &rec); err != nil {
		return nil, fmt.Errorf("persisting module: %w", err)
	}

	m, err := New(rec, r.repo, r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.modules = append(r.modules, m)
	r.mu.Unlock()

	r.armEviction(m)
	r.logger.Info("module registered", "module_id", rec.ID, "module_type", t.String())
	return m, nil
}

// Delete disconnects the module's live session if any, removes the
// persisted record and drops the in-memory instance. Safe to call on an
// offline module; deleting a module that is already gone from
// persistence still removes the in-memory instance.
func (r *Registry) Delete(ctx context.Context, m *Module) error {
	m.Disconnect()

	id := m.ID()
	if err := r.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("deleting module record: %w", err)
	}

	r.mu.Lock()
	for i, cur := range r.modules {
		if cur.ID() == id {
			r.modules = append(r.modules[:i], r.modules[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.logger.Info("module deleted", "module_id", id)
	return nil
}

// Get returns the in-memory module with the given id.
// Returns ErrNotFound if no such module is loaded.
func (r *Registry) Get(id string) (*Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.modules {
		if m.ID() == id {
			return m, nil
		}
	}
	return nil, ErrNotFound
}

// FindByToken returns the module whose current token matches.
// Returns ErrNotFound if no loaded module matches.
func (r *Registry) FindByToken(token string) (*Module, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.modules {
		if m.MatchesToken(token) {
			return m, nil
		}
	}
	return nil, ErrNotFound
}

// List returns the loaded modules in load/creation order.
func (r *Registry) List() []*Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Count returns the number of loaded modules.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.modules)
}

// armEviction schedules a one-shot deletion for a module that is not
// yet validated. The timer re-checks the flag before acting: validation
// races and prior deletion are silent no-ops.
func (r *Registry) armEviction(m *Module) {
	r.timers.RunOnce(r.evictionTimeout, func() {
		if m.Validated() {
			return
		}
		if _, err := r.Get(m.ID()); err != nil {
			// Already gone by other means.
			return
		}
		if err := r.Delete(context.Background(), m); err != nil {
			r.logger.Error("evicting unvalidated module", "module_id", m.ID(), "error", err)
			return
		}
		r.logger.Info("module evicted, never validated", "module_id", m.ID())
	})
}
