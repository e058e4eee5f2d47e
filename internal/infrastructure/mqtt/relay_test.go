package mqtt

import (
	"encoding/json"
	"testing"
)

type publishCall struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (f *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.calls = append(f.calls, publishCall{topic, payload, qos, retained})
	return f.err
}

func (f *fakePublisher) IsConnected() bool { return true }

func (f *fakePublisher) last(t *testing.T) publishCall {
	t.Helper()
	if len(f.calls) == 0 {
		t.Fatal("no publish calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

func TestRelay_ModuleOnline(t *testing.T) {
	pub := &fakePublisher{}
	relay := NewRelay(pub, 1)

	if err := relay.ModuleOnline("mod-a1b2c3d4", "led-strip"); err != nil {
		t.Fatalf("ModuleOnline() error = %v", err)
	}

	call := pub.last(t)
	if call.topic != "maison/module/mod-a1b2c3d4/status" {
		t.Errorf("topic = %q", call.topic)
	}
	if !call.retained {
		t.Error("status message not retained")
	}
	if call.qos != 1 {
		t.Errorf("qos = %d, want 1", call.qos)
	}

	var msg moduleStatusMessage
	if err := json.Unmarshal(call.payload, &msg); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if msg.Status != "ONLINE" || msg.Type != "led-strip" {
		t.Errorf("payload = %+v", msg)
	}
	if msg.Timestamp == "" {
		t.Error("missing timestamp")
	}
}

func TestRelay_ModuleOffline(t *testing.T) {
	pub := &fakePublisher{}
	relay := NewRelay(pub, 1)

	if err := relay.ModuleOffline("mod-a1b2c3d4", "shutter"); err != nil {
		t.Fatalf("ModuleOffline() error = %v", err)
	}

	var msg moduleStatusMessage
	if err := json.Unmarshal(pub.last(t).payload, &msg); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if msg.Status != "OFFLINE" {
		t.Errorf("status = %q, want OFFLINE", msg.Status)
	}
}

func TestRelay_ModuleDeleted_ClearsRetained(t *testing.T) {
	pub := &fakePublisher{}
	relay := NewRelay(pub, 1)

	if err := relay.ModuleDeleted("mod-a1b2c3d4"); err != nil {
		t.Fatalf("ModuleDeleted() error = %v", err)
	}

	call := pub.last(t)
	if call.topic != "maison/module/mod-a1b2c3d4/status" {
		t.Errorf("topic = %q", call.topic)
	}
	if len(call.payload) != 0 {
		t.Errorf("payload = %q, want empty (clears retained message)", call.payload)
	}
	if !call.retained {
		t.Error("clear message must be retained")
	}
}

func TestRelay_ModuleEvent(t *testing.T) {
	pub := &fakePublisher{}
	relay := NewRelay(pub, 2)

	payload := []byte(`{"red":255,"green":0,"blue":0}`)
	if err := relay.ModuleEvent("mod-a1b2c3d4", "color", payload); err != nil {
		t.Fatalf("ModuleEvent() error = %v", err)
	}

	call := pub.last(t)
	if call.topic != "maison/module/mod-a1b2c3d4/event/color" {
		t.Errorf("topic = %q", call.topic)
	}
	if call.retained {
		t.Error("event messages must not be retained")
	}
	if string(call.payload) != string(payload) {
		t.Errorf("payload = %q", call.payload)
	}
	if call.qos != 2 {
		t.Errorf("qos = %d, want 2", call.qos)
	}
}

func TestRelay_Write(t *testing.T) {
	pub := &fakePublisher{}
	relay := NewRelay(pub, 1)

	if err := relay.Write(10, 20, 30); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	call := pub.last(t)
	if call.topic != "maison/guirlande/colour" {
		t.Errorf("topic = %q", call.topic)
	}
	if !call.retained {
		t.Error("colour message not retained")
	}

	var msg guirlandeColourMessage
	if err := json.Unmarshal(call.payload, &msg); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if msg.Red != 10 || msg.Green != 20 || msg.Blue != 30 {
		t.Errorf("colour = (%d,%d,%d), want (10,20,30)", msg.Red, msg.Green, msg.Blue)
	}
}

func TestRelay_GuirlandePreset(t *testing.T) {
	pub := &fakePublisher{}
	relay := NewRelay(pub, 1)

	if err := relay.GuirlandePreset("France", true); err != nil {
		t.Fatalf("GuirlandePreset() error = %v", err)
	}

	call := pub.last(t)
	if call.topic != "maison/guirlande/preset" {
		t.Errorf("topic = %q", call.topic)
	}

	var msg guirlandePresetMessage
	if err := json.Unmarshal(call.payload, &msg); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if msg.Preset != "France" || !msg.Rotating {
		t.Errorf("payload = %+v", msg)
	}
}

func TestRelay_PropagatesPublishError(t *testing.T) {
	pub := &fakePublisher{err: ErrNotConnected}
	relay := NewRelay(pub, 1)

	if err := relay.ModuleOnline("mod-a1b2c3d4", "weather"); err == nil {
		t.Fatal("expected publish error to propagate")
	}
}
