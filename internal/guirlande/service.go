package guirlande

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/nerrad567/maison-core/internal/color"
	"github.com/nerrad567/maison-core/internal/infrastructure/config"
	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
)

// rotationKey is the scheduler key of the recurring preset rotation.
const rotationKey = "guirlande-rotation"

// crossfadeDuration is how long the fade to black between two presets
// takes.
const crossfadeDuration = time.Second

// TaskRunner is the slice of the scheduler the service drives presets
// with.
type TaskRunner interface {
	RunRecurring(key string, interval time.Duration, fn func()) error
	Cancel(key string) error
	IsScheduled(key string) bool
}

// Service owns the Guirlande: the live display colour, the access gate
// and the preset rotation engine.
type Service struct {
	cfg     config.GuirlandeConfig
	repo    SettingsRepository
	tasks   TaskRunner
	output  Output
	logger  *logging.Logger
	presets []Preset

	// pick selects a preset index; swapped out in tests.
	pick func(n int) int

	mu         sync.Mutex
	current    *color.Color
	active     Preset
	rotating   bool
	inRotation bool
	stop       chan struct{}
}

// NewService creates the Guirlande service. An empty preset list
// selects the default catalog.
func NewService(cfg config.GuirlandeConfig, repo SettingsRepository, tasks TaskRunner, output Output, logger *logging.Logger, presets ...Preset) *Service {
	if len(presets) == 0 {
		presets = DefaultPresets()
	}
	return &Service{
		cfg:     cfg,
		repo:    repo,
		tasks:   tasks,
		output:  output,
		logger:  logger.With("component", "guirlande"),
		presets: presets,
		pick:    rand.Intn,
		current: color.Black(),
	}
}

// Start restores the persisted state: the last displayed colour, and
// the rotation engine if it was enabled when the process went down.
func (s *Service) Start(ctx context.Context) error {
	set, err := s.repo.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading guirlande settings: %w", err)
	}

	s.display(set.Red, set.Green, set.Blue)
	if set.RotationEnabled {
		if err := s.StartPresets(ctx); err != nil {
			return err
		}
	}
	s.logger.Info("guirlande started", "rotation", set.RotationEnabled)
	return nil
}

// Close cancels the rotation and any running preset task without
// touching persisted state, so a restart resumes where it left off.
func (s *Service) Close() {
	s.mu.Lock()
	if s.rotating {
		s.rotating = false
		close(s.stop)
	}
	active := s.active
	s.active = nil
	s.mu.Unlock()

	_ = s.tasks.Cancel(rotationKey)
	if active != nil {
		_ = s.tasks.Cancel(taskKey(active))
	}
}

// Settings returns the persisted settings row.
func (s *Service) Settings(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

// Authorize applies the access gate. An authenticated caller always
// passes. An unauthenticated caller passes only when the stored mode
// is PUBLIC and the presented code matches the stored, non-empty
// access code.
func (s *Service) Authorize(ctx context.Context, authenticated bool, code string) error {
	if authenticated {
		return nil
	}

	set, err := s.repo.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading guirlande settings: %w", err)
	}
	if set.AccessMode != AccessPublic {
		return ErrAccessDenied
	}
	if set.AccessCode == "" || code != set.AccessCode {
		return ErrAccessDenied
	}
	return nil
}

// SetAccessMode persists a new access mode.
func (s *Service) SetAccessMode(ctx context.Context, mode AccessMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAccessMode, mode)
	}
	return s.persist(ctx, func(set *Settings) {
		set.AccessMode = mode
	})
}

// GenerateAccessCode creates a fresh random numeric access code,
// persists it and returns it. The previous code stops working.
func (s *Service) GenerateAccessCode(ctx context.Context) (string, error) {
	code, err := randomDigits(s.cfg.CodeLength)
	if err != nil {
		return "", fmt.Errorf("generating access code: %w", err)
	}
	if err := s.persist(ctx, func(set *Settings) {
		set.AccessCode = code
	}); err != nil {
		return "", err
	}
	s.logger.Info("access code rotated")
	return code, nil
}

// SetColorRGB displays the given colour and persists it. Issued while
// a preset is running, the preset's next tick overwrites it.
func (s *Service) SetColorRGB(ctx context.Context, red, green, blue int) error {
	s.display(red, green, blue)
	r, g, b := s.Current()
	return s.persist(ctx, func(set *Settings) {
		set.Red, set.Green, set.Blue = r, g, b
	})
}

// SetColor displays the given colour and persists it.
func (s *Service) SetColor(ctx context.Context, c *color.Color) error {
	r, g, b := c.RGB()
	return s.SetColorRGB(ctx, r, g, b)
}

// SetColorHex displays the colour given as a six-digit hex string and
// persists it.
func (s *Service) SetColorHex(ctx context.Context, hex string) error {
	c, err := color.ParseHex(hex)
	if err != nil {
		return err
	}
	return s.SetColor(ctx, c)
}

// Current returns the colour currently on display.
func (s *Service) Current() (red, green, blue int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.RGB()
}

// ActivePreset returns the name of the running preset, or "" when
// none is active.
func (s *Service) ActivePreset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ""
	}
	return s.active.Name()
}

// RotationActive reports whether the rotation engine is running.
func (s *Service) RotationActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotating
}

// PresetNames returns the catalog's preset names in display order.
func (s *Service) PresetNames() []string {
	names := make([]string, len(s.presets))
	for i, p := range s.presets {
		names[i] = p.Name()
	}
	return names
}

// StartPresets arms the recurring rotation task and immediately
// performs one rotation step. A second call while the rotation is
// active is a no-op.
func (s *Service) StartPresets(ctx context.Context) error {
	s.mu.Lock()
	if s.rotating {
		s.mu.Unlock()
		return nil
	}
	s.rotating = true
	s.stop = make(chan struct{})
	s.mu.Unlock()

	if err := s.tasks.RunRecurring(rotationKey, s.cfg.Rotation(), s.rotate); err != nil {
		s.mu.Lock()
		s.rotating = false
		s.mu.Unlock()
		return fmt.Errorf("arming preset rotation: %w", err)
	}

	if err := s.persist(ctx, func(set *Settings) {
		set.RotationEnabled = true
	}); err != nil {
		s.logger.Warn("persisting rotation state", "error", err)
	}

	go s.rotate()
	s.logger.Info("preset rotation started", "interval", s.cfg.Rotation().String())
	return nil
}

// StopPresets cancels the rotation and the running preset, then forces
// the display to black. A call while the rotation is inactive is a
// no-op.
func (s *Service) StopPresets(ctx context.Context) error {
	s.mu.Lock()
	if !s.rotating {
		s.mu.Unlock()
		return nil
	}
	s.rotating = false
	close(s.stop)
	active := s.active
	s.active = nil
	s.mu.Unlock()

	_ = s.tasks.Cancel(rotationKey)
	if active != nil {
		_ = s.tasks.Cancel(taskKey(active))
	}
	s.display(0, 0, 0)

	if err := s.persist(ctx, func(set *Settings) {
		set.RotationEnabled = false
		set.ActivePreset = ""
		set.Red, set.Green, set.Blue = 0, 0, 0
	}); err != nil {
		s.logger.Warn("persisting rotation state", "error", err)
	}
	s.logger.Info("preset rotation stopped")
	return nil
}

// rotate performs one rotation step: stop the running preset if any,
// crossfade to black, pause, then start a random preset from the
// catalog. Overlapping steps are skipped rather than queued.
func (s *Service) rotate() {
	s.mu.Lock()
	if !s.rotating || s.inRotation {
		s.mu.Unlock()
		return
	}
	s.inRotation = true
	prev := s.active
	s.active = nil
	stop := s.stop
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inRotation = false
		s.mu.Unlock()
	}()

	if prev != nil {
		_ = s.tasks.Cancel(taskKey(prev))
		if !s.crossfadeToBlack(stop) {
			return
		}
		select {
		case <-stop:
			return
		case <-time.After(s.cfg.Pause()):
		}
	}

	next := s.presets[s.pick(len(s.presets))]
	next.Init()

	s.mu.Lock()
	if !s.rotating || s.stop != stop {
		// Stopped while we were fading.
		s.mu.Unlock()
		return
	}
	s.active = next
	s.mu.Unlock()

	if err := s.tasks.RunRecurring(taskKey(next), next.Interval(), func() {
		next.Tick(canvas{s})
	}); err != nil {
		s.logger.Error("starting preset task", "preset", next.Name(), "error", err)
		return
	}

	if err := s.persist(context.Background(), func(set *Settings) {
		set.ActivePreset = next.Name()
	}); err != nil {
		s.logger.Warn("persisting active preset", "error", err)
	}
	s.logger.Info("preset started", "preset", next.Name())
}

// crossfadeToBlack fades the live colour down on a fast tick. Returns
// false if the stop channel fired before the fade finished.
func (s *Service) crossfadeToBlack(stop <-chan struct{}) bool {
	s.mu.Lock()
	live := s.current.Copy()
	s.mu.Unlock()

	tr := color.NewTransition(live, color.Black(), s.cfg.Crossfade(), crossfadeDuration)
	ticker := time.NewTicker(s.cfg.Crossfade())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return false
		case <-ticker.C:
			tr.Run()
			r, g, b := live.RGB()
			s.display(r, g, b)
			if tr.Finished() {
				return true
			}
		}
	}
}

// display writes a colour to the output and records it as current.
func (s *Service) display(red, green, blue int) {
	s.mu.Lock()
	s.current.Set(red, green, blue)
	red, green, blue = s.current.RGB()
	s.mu.Unlock()

	if err := s.output.Write(red, green, blue); err != nil {
		s.logger.Warn("writing guirlande output", "error", err)
	}
}

// persist loads the settings row, applies mutate and saves it back.
func (s *Service) persist(ctx context.Context, mutate func(*Settings)) error {
	set, err := s.repo.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading guirlande settings: %w", err)
	}
	mutate(set)
	if err := s.repo.Save(ctx, set); err != nil {
		return fmt.Errorf("saving guirlande settings: %w", err)
	}
	return nil
}

// canvas is the paint surface handed to preset ticks.
type canvas struct {
	s *Service
}

func (c canvas) Paint(col *color.Color) {
	r, g, b := col.RGB()
	c.s.display(r, g, b)
}

func (c canvas) PaintRGB(red, green, blue int) {
	c.s.display(red, green, blue)
}

// randomDigits returns a cryptographically random numeric string of
// the given length.
func randomDigits(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := crand.Int(crand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
