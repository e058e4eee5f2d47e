package module

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
)

// Module is the in-memory instance of a managed device.
//
// All public methods are safe for concurrent use. The persisted record
// and the instance share the same id and type for their whole
// coexistence; connection status is derived from the session binding.
type Module struct {
	repo   Repository
	logger *logging.Logger
	kind   kind

	mu      sync.Mutex
	rec     Record
	session Session
	// events holds the namespaced inbound event names registered on the
	// current session, so Disconnect can unregister exactly what Connect
	// wired.
	events []string
}

// kind supplies the per-type behaviour hooks invoked by Connect.
type kind interface {
	// registerListeners wires the kind's inbound events on the bound
	// session. Called exactly once per connection.
	registerListeners()

	// replay pushes last-known metadata back to the device so reconnect
	// is stateful from the device's point of view.
	replay(ctx context.Context)
}

// New instantiates the matching module kind for a persisted record.
// Unknown type values fail with ErrUnknownType; there is no default kind.
func New(rec Record, repo Repository, logger *logging.Logger) (*Module, error) {
	if rec.Metadata == nil {
		rec.Metadata = Metadata{}
	}

	m := &Module{
		repo:   repo,
		logger: logger.With("component", "module", "module_id", rec.ID, "module_type", rec.Type.String()),
		rec:    rec,
	}

	switch rec.Type {
	case TypeLEDStrip:
		m.kind = &LEDStrip{m: m}
	case TypeShutter:
		m.kind = &Shutter{m: m}
	case TypeWeather:
		m.kind = &Weather{m: m}
	case TypeTest:
		m.kind = &Test{m: m}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(rec.Type))
	}

	return m, nil
}

// NewModuleID generates a module identifier.
// Format: mod-xxxxxxxx (8 char random suffix).
func NewModuleID() string {
	return "mod-" + uuid.New().String()[:8]
}

// newToken generates an opaque module authentication token.
func newToken() string {
	return strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")
}

// ID returns the module identifier.
func (m *Module) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.ID
}

// Type returns the module type. Immutable after creation.
func (m *Module) Type() Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Type
}

// Name returns the module display name.
func (m *Module) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Name
}

// Validated reports whether the module may exchange operational events.
func (m *Module) Validated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Validated
}

// Status derives the connection state from the live session binding.
func (m *Module) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return StatusOnline
	}
	return StatusOffline
}

// MatchesToken reports whether token equals the module's current token.
// An empty stored token never matches.
func (m *Module) MatchesToken(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Token != "" && m.rec.Token == token
}

// Metadata returns a copy of the last-known-state bag.
func (m *Module) Metadata() Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Metadata.Copy()
}

// Summary serialises the module for read APIs. The token is excluded.
func (m *Module) Summary() Summary {
	m.mu.Lock()
	rec := m.rec
	online := m.session != nil
	m.mu.Unlock()

	status := StatusOffline
	if online {
		status = StatusOnline
	}

	return Summary{
		ID:        rec.ID,
		Type:      rec.Type,
		TypeName:  rec.Type.String(),
		Name:      rec.Name,
		Validated: rec.Validated,
		Status:    status,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// SetName renames the module and persists the change.
func (m *Module) SetName(ctx context.Context, name string) error {
	m.mu.Lock()
	m.rec.Name = name
	rec := m.rec
	m.mu.Unlock()

	if err := m.repo.Save(ctx, &rec); err != nil {
		return fmt.Errorf("persisting name: %w", err)
	}
	m.syncTimestamps(rec)
	return nil
}

// GenerateToken creates a new random opaque token, persists it and
// returns it. Any previously issued token stops matching immediately.
func (m *Module) GenerateToken(ctx context.Context) (string, error) {
	token := newToken()

	m.mu.Lock()
	m.rec.Token = token
	rec := m.rec
	m.mu.Unlock()

	if err := m.repo.Save(ctx, &rec); err != nil {
		return "", fmt.Errorf("persisting token: %w", err)
	}
	m.syncTimestamps(rec)
	m.logger.Info("module token regenerated")
	return token, nil
}

// Validate marks the module as validated. Idempotent: a module already
// validated is left untouched with no persistence write.
func (m *Module) Validate(ctx context.Context) error {
	return m.setValidated(ctx, true)
}

// Invalidate clears the validated flag. Idempotent like Validate.
func (m *Module) Invalidate(ctx context.Context) error {
	return m.setValidated(ctx, false)
}

func (m *Module) setValidated(ctx context.Context, validated bool) error {
	m.mu.Lock()
	if m.rec.Validated == validated {
		m.mu.Unlock()
		return nil
	}
	m.rec.Validated = validated
	rec := m.rec
	m.mu.Unlock()

	if err := m.repo.Save(ctx, &rec); err != nil {
		return fmt.Errorf("persisting validated flag: %w", err)
	}
	m.syncTimestamps(rec)
	m.logger.Info("module validation changed", "validated", validated)
	return nil
}

// Connect binds a live session to the module, wires the kind's inbound
// listeners and replays last-known metadata to the device.
//
// Returns ErrAlreadyOnline if a session is already bound; the caller
// must Disconnect first to rebind.
func (m *Module) Connect(ctx context.Context, s Session) error {
	m.mu.Lock()
	if m.session != nil {
		m.mu.Unlock()
		return ErrAlreadyOnline
	}
	m.session = s
	m.mu.Unlock()

	m.kind.registerListeners()
	m.kind.replay(ctx)

	m.logger.Info("module connected")
	return nil
}

// Disconnect unbinds the live session, unregistering every listener
// Connect wired, and closes the transport. No-op while offline.
func (m *Module) Disconnect() {
	m.disconnect(nil)
}

// DisconnectSession unbinds only when s is the live session, reporting
// whether a teardown happened. A transport that lost a takeover race
// can clean up after itself without touching the new binding.
func (m *Module) DisconnectSession(s Session) bool {
	return m.disconnect(s)
}

// disconnect unbinds the live session. A non-nil only restricts the
// teardown to that exact session.
func (m *Module) disconnect(only Session) bool {
	m.mu.Lock()
	s := m.session
	if s == nil || (only != nil && s != only) {
		m.mu.Unlock()
		return false
	}
	events := m.events
	m.session = nil
	m.events = nil
	m.mu.Unlock()

	for _, event := range events {
		s.Off(event)
	}
	if err := s.Close(); err != nil {
		m.logger.Debug("closing module session", "error", err)
	}
	m.logger.Info("module disconnected")
	return true
}

// Send emits a type-namespaced event to the device.
// Returns ErrOffline while no session is bound.
func (m *Module) Send(ctx context.Context, event string, payload any) error {
	return m.send(ctx, event, payload, nil)
}

// send emits a type-namespaced event and optionally merges patch into
// the metadata bag, persisting it, so a later reconnect can replay the
// command. A nil value in patch deletes the key.
func (m *Module) send(ctx context.Context, event string, payload any, patch Metadata) error {
	m.mu.Lock()
	s := m.session
	namespaced := m.eventName(event)

	// A rejected command must leave no trace: the metadata patch only
	// applies once we know a session is bound to deliver the event.
	if s == nil {
		m.mu.Unlock()
		return ErrOffline
	}

	var rec Record
	persist := false
	if patch != nil {
		for k, v := range patch {
			if v == nil {
				delete(m.rec.Metadata, k)
			} else {
				m.rec.Metadata[k] = v
			}
		}
		rec = m.rec
		persist = true
	}
	m.mu.Unlock()

	if err := s.Emit(namespaced, payload); err != nil {
		return fmt.Errorf("emitting %s: %w", namespaced, err)
	}
	m.logger.Debug("event sent", "event", namespaced)

	if persist {
		if err := m.repo.Save(ctx, &rec); err != nil {
			return fmt.Errorf("persisting metadata: %w", err)
		}
		m.syncTimestamps(rec)
	}
	return nil
}

// listening registers an inbound handler for a type-namespaced event on
// the bound session. Inbound events arriving while the module is not
// validated are answered with an error event instead of invoking the
// handler. Must only be called from a kind's registerListeners hook.
func (m *Module) listening(event string, handler func(payload json.RawMessage)) {
	m.mu.Lock()
	s := m.session
	namespaced := m.eventName(event)
	m.events = append(m.events, namespaced)
	m.mu.Unlock()

	if s == nil {
		return
	}

	s.On(namespaced, func(payload json.RawMessage) {
		if !m.Validated() {
			if err := s.Emit(EventError, ErrorEvent{Error: CodeModuleNotValidated}); err != nil {
				m.logger.Debug("emitting validation error", "error", err)
			}
			return
		}
		handler(payload)
	})
}

// eventName builds the type-namespaced wire event name.
// Callers must hold m.mu.
func (m *Module) eventName(event string) string {
	return fmt.Sprintf("module.%d.%s", int(m.rec.Type), event)
}

// syncTimestamps copies repository-maintained timestamps back into the
// live record after a successful save.
func (m *Module) syncTimestamps(rec Record) {
	m.mu.Lock()
	m.rec.UpdatedAt = rec.UpdatedAt
	if m.rec.CreatedAt.IsZero() {
		m.rec.CreatedAt = rec.CreatedAt
	}
	m.mu.Unlock()
}
