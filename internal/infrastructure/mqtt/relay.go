package mqtt

import (
	"encoding/json"
	"time"
)

// Publisher is the minimal surface the relay needs from an MQTT client.
// *Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Relay mirrors Core activity onto the MQTT broker.
//
// All methods are best-effort: when the broker is unreachable the relay
// drops the message and returns the underlying error for the caller to
// log. Relay failures must never block or fail the originating command.
type Relay struct {
	pub Publisher
	qos byte
}

// NewRelay creates a relay publishing at the given QoS level.
func NewRelay(pub Publisher, qos byte) *Relay {
	return &Relay{pub: pub, qos: qos}
}

// moduleStatusMessage is the retained per-module status payload.
type moduleStatusMessage struct {
	Status    string `json:"status"`
	Type      string `json:"type,omitempty"`
	Timestamp string `json:"timestamp"`
}

// guirlandeColourMessage is the retained guirlande colour payload.
type guirlandeColourMessage struct {
	Red       int    `json:"red"`
	Green     int    `json:"green"`
	Blue      int    `json:"blue"`
	Timestamp string `json:"timestamp"`
}

// guirlandePresetMessage is the retained active preset payload.
type guirlandePresetMessage struct {
	Preset    string `json:"preset"`
	Rotating  bool   `json:"rotating"`
	Timestamp string `json:"timestamp"`
}

// ModuleOnline publishes a retained online status for a module.
func (r *Relay) ModuleOnline(moduleID, typeName string) error {
	return r.publishJSON(Topics{}.ModuleStatus(moduleID), moduleStatusMessage{
		Status:    "ONLINE",
		Type:      typeName,
		Timestamp: timestamp(),
	}, true)
}

// ModuleOffline publishes a retained offline status for a module.
func (r *Relay) ModuleOffline(moduleID, typeName string) error {
	return r.publishJSON(Topics{}.ModuleStatus(moduleID), moduleStatusMessage{
		Status:    "OFFLINE",
		Type:      typeName,
		Timestamp: timestamp(),
	}, true)
}

// ModuleDeleted clears the retained status for a removed module.
// Publishing an empty retained payload deletes the retained message
// broker-side, so stale modules disappear for new subscribers.
func (r *Relay) ModuleDeleted(moduleID string) error {
	return r.pub.Publish(Topics{}.ModuleStatus(moduleID), nil, r.qos, true)
}

// ModuleEvent mirrors an event pushed to a module. The payload is the
// same JSON body sent over the module's session, and may be nil for
// bare commands such as shutter up/down/stop.
func (r *Relay) ModuleEvent(moduleID, event string, payload []byte) error {
	return r.pub.Publish(Topics{}.ModuleEvent(moduleID, event), payload, r.qos, false)
}

// GuirlandePreset publishes the retained active preset state.
func (r *Relay) GuirlandePreset(name string, rotating bool) error {
	return r.publishJSON(Topics{}.GuirlandePreset(), guirlandePresetMessage{
		Preset:    name,
		Rotating:  rotating,
		Timestamp: timestamp(),
	}, true)
}

// Write publishes the retained guirlande colour. The signature matches
// guirlande.Output so a Relay can be wired directly as a colour sink.
func (r *Relay) Write(red, green, blue int) error {
	return r.publishJSON(Topics{}.GuirlandeColour(), guirlandeColourMessage{
		Red:       red,
		Green:     green,
		Blue:      blue,
		Timestamp: timestamp(),
	}, true)
}

func (r *Relay) publishJSON(topic string, v any, retained bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.pub.Publish(topic, data, r.qos, retained)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
