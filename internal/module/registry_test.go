package module

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T) (*Registry, *mockRepository, *fakeTimers) {
	t.Helper()
	repo := newMockRepository()
	timers := &fakeTimers{}
	return NewRegistry(repo, timers, time.Hour, testLogger()), repo, timers
}

func TestRegistry_CreateAndGet(t *testing.T) {
	reg, repo, _ := newTestRegistry(t)
	ctx := context.Background()

	m, err := reg.Create(ctx, TypeLEDStrip)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if m.Type() != TypeLEDStrip {
		t.Errorf("Type() = %v, want led-strip", m.Type())
	}
	if m.Validated() {
		t.Error("new module starts validated")
	}

	got, err := reg.Get(m.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != m {
		t.Error("Get() returned a different instance")
	}

	if _, err := repo.GetByID(ctx, m.ID()); err != nil {
		t.Errorf("record not persisted: %v", err)
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}

func TestRegistry_CreateUnknownType(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	if _, err := reg.Create(context.Background(), Type(42)); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Create() error = %v, want ErrUnknownType", err)
	}
	if reg.Count() != 0 {
		t.Errorf("Count() = %d, want 0", reg.Count())
	}
}

func TestRegistry_EvictionDeletesUnvalidated(t *testing.T) {
	reg, repo, timers := newTestRegistry(t)
	ctx := context.Background()

	m, err := reg.Create(ctx, TypeShutter)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	timers.fire()

	if _, err := reg.Get(m.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after eviction error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, m.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("record survived eviction: %v", err)
	}
}

func TestRegistry_EvictionSparesValidated(t *testing.T) {
	reg, repo, timers := newTestRegistry(t)
	ctx := context.Background()

	m, err := reg.Create(ctx, TypeShutter)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := m.Validate(ctx); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	timers.fire()

	if _, err := reg.Get(m.ID()); err != nil {
		t.Errorf("validated module evicted: %v", err)
	}
	if _, err := repo.GetByID(ctx, m.ID()); err != nil {
		t.Errorf("validated record deleted: %v", err)
	}
}

func TestRegistry_Delete(t *testing.T) {
	reg, repo, _ := newTestRegistry(t)
	ctx := context.Background()

	m, err := reg.Create(ctx, TypeLEDStrip)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s := newMockSession()
	if err := m.Connect(ctx, s); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := reg.Delete(ctx, m); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !s.isClosed() {
		t.Error("Delete did not close the live session")
	}
	if _, err := reg.Get(m.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, m.ID()); !errors.Is(err, ErrNotFound) {
		t.Error("record survived delete")
	}

	// Deleting again tolerates the missing record.
	if err := reg.Delete(ctx, m); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestRegistry_FindByToken(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	m, err := reg.Create(ctx, TypeWeather)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// No token issued yet: an empty probe must not match the module's
	// empty stored token.
	if _, err := reg.FindByToken(""); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByToken(\"\") error = %v, want ErrNotFound", err)
	}

	token, err := m.GenerateToken(ctx)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	got, err := reg.FindByToken(token)
	if err != nil {
		t.Fatalf("FindByToken() error = %v", err)
	}
	if got != m {
		t.Error("FindByToken() returned a different instance")
	}

	if _, err := reg.FindByToken("no-such-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByToken(bogus) error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_Load(t *testing.T) {
	repo := newMockRepository()
	ctx := context.Background()

	seed := []Record{
		{ID: "mod-aaaa0001", Type: TypeLEDStrip, Validated: true, Metadata: Metadata{}},
		{ID: "mod-aaaa0002", Type: TypeWeather, Metadata: Metadata{}},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}

	timers := &fakeTimers{}
	reg := NewRegistry(repo, timers, time.Hour, testLogger())
	if err := reg.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reg.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", reg.Count())
	}

	// Only the unvalidated module gets an eviction timer.
	timers.fire()
	if _, err := reg.Get("mod-aaaa0001"); err != nil {
		t.Errorf("validated module evicted on load: %v", err)
	}
	if _, err := reg.Get("mod-aaaa0002"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unvalidated module survived eviction after load: %v", err)
	}
}

func TestRegistry_LoadUnknownType(t *testing.T) {
	repo := newMockRepository()
	ctx := context.Background()

	rec := Record{ID: "mod-broken01", Type: Type(7), Metadata: Metadata{}}
	if err := repo.Create(ctx, &rec); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	reg := NewRegistry(repo, &fakeTimers{}, time.Hour, testLogger())
	if err := reg.Load(ctx); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Load() error = %v, want ErrUnknownType", err)
	}
}

func TestRegistry_UnloadDisconnectsWithoutDeleting(t *testing.T) {
	reg, repo, _ := newTestRegistry(t)
	ctx := context.Background()

	m, err := reg.Create(ctx, TypeLEDStrip)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s := newMockSession()
	if err := m.Connect(ctx, s); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	reg.Unload()

	if !s.isClosed() {
		t.Error("Unload did not close the live session")
	}
	if reg.Count() != 0 {
		t.Errorf("Count() after Unload = %d, want 0", reg.Count())
	}
	if _, err := repo.GetByID(ctx, m.ID()); err != nil {
		t.Errorf("Unload removed the persisted record: %v", err)
	}
}

func TestRegistry_List(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	a, _ := reg.Create(ctx, TypeLEDStrip)
	b, _ := reg.Create(ctx, TypeShutter)

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("List() returned %d modules, want 2", len(list))
	}
	if list[0] != a || list[1] != b {
		t.Error("List() not in creation order")
	}
}
