package module

import (
	"context"
	"encoding/json"

	"github.com/nerrad567/maison-core/internal/loop"
)

// LEDStrip exposes the command surface of an LED strip module (type 0).
type LEDStrip struct {
	m *Module
}

// AsLEDStrip returns the typed command surface of an LED strip module.
// Returns ErrWrongKind for any other module type.
func (m *Module) AsLEDStrip() (*LEDStrip, error) {
	k, ok := m.kind.(*LEDStrip)
	if !ok {
		return nil, ErrWrongKind
	}
	return k, nil
}

// SendColor pushes a colour to the strip and records it in metadata so
// it is replayed on reconnect.
func (l *LEDStrip) SendColor(ctx context.Context, red, green, blue int) error {
	payload := ColorPayload{Red: red, Green: green, Blue: blue}
	return l.m.send(ctx, "color", payload, Metadata{
		metaColor: map[string]any{
			"red":   red,
			"green": green,
			"blue":  blue,
		},
	})
}

// SendLoop pushes a loop script to the strip. A nil loop tells the
// device to stop any running loop and clears the replayed script.
func (l *LEDStrip) SendLoop(ctx context.Context, lp *loop.Loop) error {
	if lp == nil {
		return l.m.send(ctx, "loop", LoopPayload{}, Metadata{metaLoop: nil})
	}
	script := lp.Build()
	return l.m.send(ctx, "loop", LoopPayload{Loop: &script}, Metadata{metaLoop: script})
}

func (l *LEDStrip) registerListeners() {}

func (l *LEDStrip) replay(ctx context.Context) {
	meta := l.m.Metadata()

	if c, ok := meta[metaColor].(map[string]any); ok {
		if err := l.SendColor(ctx, intField(c, "red"), intField(c, "green"), intField(c, "blue")); err != nil {
			l.m.logger.Warn("replaying colour", "error", err)
		}
	}
	if script, ok := meta[metaLoop].(string); ok && script != "" {
		lp, err := loop.Parse(script)
		if err != nil {
			l.m.logger.Warn("stored loop script is invalid, dropping", "error", err)
			return
		}
		if err := l.SendLoop(ctx, lp); err != nil {
			l.m.logger.Warn("replaying loop", "error", err)
		}
	}
}

// Shutter exposes the command surface of a shutter actuator module
// (type 1). Its commands are fire-and-forget with no payload and no
// replayable state.
type Shutter struct {
	m *Module
}

// AsShutter returns the typed command surface of a shutter module.
// Returns ErrWrongKind for any other module type.
func (m *Module) AsShutter() (*Shutter, error) {
	k, ok := m.kind.(*Shutter)
	if !ok {
		return nil, ErrWrongKind
	}
	return k, nil
}

// Up starts raising the shutter.
func (s *Shutter) Up(ctx context.Context) error {
	return s.m.send(ctx, "up", nil, nil)
}

// Down starts lowering the shutter.
func (s *Shutter) Down(ctx context.Context) error {
	return s.m.send(ctx, "down", nil, nil)
}

// Stop halts shutter movement.
func (s *Shutter) Stop(ctx context.Context) error {
	return s.m.send(ctx, "stop", nil, nil)
}

func (s *Shutter) registerListeners() {}

func (s *Shutter) replay(context.Context) {}

// Weather exposes the command surface of a weather display module
// (type 2). It also listens for inbound weather readings.
type Weather struct {
	m *Module

	// onReading, when set, receives every inbound weather reading.
	// Used to forward readings downstream (telemetry, event relay).
	onReading func(reading WeatherReading)
}

// AsWeather returns the typed command surface of a weather module.
// Returns ErrWrongKind for any other module type.
func (m *Module) AsWeather() (*Weather, error) {
	k, ok := m.kind.(*Weather)
	if !ok {
		return nil, ErrWrongKind
	}
	return k, nil
}

// OnReading registers a callback invoked for every inbound weather
// reading from the device. The listener reads the field at dispatch
// time, so the callback may be set before or after Connect; both the
// set and the reads happen on the session's read goroutine.
func (w *Weather) OnReading(fn func(reading WeatherReading)) {
	w.onReading = fn
}

// SendAPIKey pushes the weather provider API key to the device and
// records it for replay.
func (w *Weather) SendAPIKey(ctx context.Context, apiKey string) error {
	return w.m.send(ctx, "api-key", APIKeyPayload{APIKey: apiKey}, Metadata{metaAPIKey: apiKey})
}

// SendLocation pushes the observation coordinates to the device and
// records them for replay.
func (w *Weather) SendLocation(ctx context.Context, lat, lon float64) error {
	return w.m.send(ctx, "location", LocationPayload{Lat: lat, Lon: lon}, Metadata{
		metaLatitude:  lat,
		metaLongitude: lon,
	})
}

func (w *Weather) registerListeners() {
	w.m.listening("weather", func(payload json.RawMessage) {
		var reading WeatherReading
		if err := json.Unmarshal(payload, &reading); err != nil {
			w.m.logger.Warn("malformed weather reading", "error", err)
			return
		}
		w.m.logger.Debug("weather reading received", "value", reading.Value, "unit", reading.Unit)
		if w.onReading != nil {
			w.onReading(reading)
		}
	})
}

func (w *Weather) replay(ctx context.Context) {
	meta := w.m.Metadata()

	if apiKey, ok := meta[metaAPIKey].(string); ok && apiKey != "" {
		if err := w.SendAPIKey(ctx, apiKey); err != nil {
			w.m.logger.Warn("replaying api key", "error", err)
		}
	}
	lat, latOK := floatField(meta, metaLatitude)
	lon, lonOK := floatField(meta, metaLongitude)
	if latOK && lonOK {
		if err := w.SendLocation(ctx, lat, lon); err != nil {
			w.m.logger.Warn("replaying location", "error", err)
		}
	}
}

// Test exposes the command surface of a test module (type 3). Test
// modules exist for diagnostics only and are rejected outside dev mode
// at the registration boundary.
type Test struct {
	m *Module
}

// AsTest returns the typed command surface of a test module.
// Returns ErrWrongKind for any other module type.
func (m *Module) AsTest() (*Test, error) {
	k, ok := m.kind.(*Test)
	if !ok {
		return nil, ErrWrongKind
	}
	return k, nil
}

// SendData pushes arbitrary data to the device.
func (t *Test) SendData(ctx context.Context, data any) error {
	return t.m.send(ctx, "data", data, nil)
}

func (t *Test) registerListeners() {
	t.m.listening("data", func(payload json.RawMessage) {
		// Echo to the operational log for diagnostics.
		t.m.logger.Info("test module data received", "data", string(payload))
	})
}

func (t *Test) replay(context.Context) {}

// intField reads an integer-valued key from a decoded JSON object.
// JSON numbers decode as float64.
func intField(obj map[string]any, key string) int {
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// floatField reads a float-valued key from a metadata bag.
func floatField(meta Metadata, key string) (float64, bool) {
	switch v := meta[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
