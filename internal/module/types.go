package module

import (
	"fmt"
	"time"
)

// Type identifies the kind of physical device behind a module.
// The numeric value is part of the wire protocol (event namespaces are
// "module.<type>.<event>") and of the persisted record; it is immutable
// after creation.
type Type int

// Module type constants.
const (
	TypeLEDStrip Type = 0
	TypeShutter  Type = 1
	TypeWeather  Type = 2
	TypeTest     Type = 3
)

// AllTypes returns all valid module types.
func AllTypes() []Type {
	return []Type{TypeLEDStrip, TypeShutter, TypeWeather, TypeTest}
}

// Valid reports whether t is a known module type.
func (t Type) Valid() bool {
	switch t {
	case TypeLEDStrip, TypeShutter, TypeWeather, TypeTest:
		return true
	}
	return false
}

// String returns a human-readable type name.
func (t Type) String() string {
	switch t {
	case TypeLEDStrip:
		return "led-strip"
	case TypeShutter:
		return "shutter"
	case TypeWeather:
		return "weather"
	case TypeTest:
		return "test"
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Status is the derived connection state of a module. It is never
// persisted; it is recomputed from the live session binding.
type Status string

// Status constants.
const (
	StatusOffline Status = "offline"
	StatusOnline  Status = "online"
)

// Metadata is the open-ended last-known-state bag replayed to a device
// on reconnect. Updates merge keys rather than replacing the whole bag.
type Metadata map[string]any

// Copy returns a shallow copy of the metadata bag.
func (m Metadata) Copy() Metadata {
	cpy := make(Metadata, len(m))
	for k, v := range m {
		cpy[k] = v
	}
	return cpy
}

// Record is the persisted form of a module. This matches the modules
// table in the initial schema migration.
type Record struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Name      string    `json:"name"`
	Token     string    `json:"-"`
	Validated bool      `json:"validated"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the read-model exposed by list/read APIs. The token is
// deliberately absent; it is write-only to callers.
type Summary struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	TypeName  string    `json:"type_name"`
	Name      string    `json:"name"`
	Validated bool      `json:"validated"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Metadata keys shared between command senders and reconnect replay.
const (
	metaColor     = "currentColor"
	metaLoop      = "currentLoop"
	metaAPIKey    = "apiKey"
	metaLatitude  = "lat"
	metaLongitude = "lon"
)

// ColorPayload is the wire payload for LED strip colour commands.
type ColorPayload struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

// LoopPayload is the wire payload for LED strip loop commands. A nil
// Loop tells the device to stop any running loop.
type LoopPayload struct {
	Loop *string `json:"loop,omitempty"`
}

// APIKeyPayload is the wire payload for the weather api-key command.
type APIKeyPayload struct {
	APIKey string `json:"apiKey"`
}

// LocationPayload is the wire payload for the weather location command.
type LocationPayload struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WeatherReading is the inbound payload of the weather event.
type WeatherReading struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}
