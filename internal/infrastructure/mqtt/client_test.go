package mqtt

import (
	"context"
	"errors"
	"testing"
)

// Tests in this file run without a broker: they exercise input
// validation, topic building and connection-state guards on a
// disconnected client. Broker round-trips live in integration_test.go.

// disconnectedClient returns a client that was never connected.
// IsConnected short-circuits on the connected flag, so the nil
// underlying paho client is never touched.
func disconnectedClient() *Client {
	return &Client{subscriptions: make(map[string]subscription)}
}

func TestCloseNeverConnected(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := disconnectedClient()
	if client.IsConnected() {
		t.Error("IsConnected() = true for never-connected client")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := disconnectedClient()
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestPublishValidation(t *testing.T) {
	client := disconnectedClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "maison/system/status", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "maison/system/status", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"disconnected", "maison/system/status", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := disconnectedClient()
	handler := func(_ string, _ []byte) error { return nil }

	if err := client.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Subscribe("maison/#", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := client.Subscribe("maison/#", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := client.Subscribe("maison/#", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() on disconnected client error = %v, want ErrNotConnected", err)
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	client := disconnectedClient()

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Unsubscribe("maison/#"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() on disconnected client error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionCount_Empty(t *testing.T) {
	client := disconnectedClient()
	if got := client.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}
}

func TestHasSubscription_NotSubscribed(t *testing.T) {
	client := disconnectedClient()
	if client.HasSubscription("maison/module/+/status") {
		t.Error("HasSubscription() = true, want false")
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name:     "SystemStatus",
			builder:  Topics{}.SystemStatus,
			expected: "maison/system/status",
		},
		{
			name: "ModuleStatus",
			builder: func() string {
				return Topics{}.ModuleStatus("mod-a1b2c3d4")
			},
			expected: "maison/module/mod-a1b2c3d4/status",
		},
		{
			name: "ModuleEvent",
			builder: func() string {
				return Topics{}.ModuleEvent("mod-a1b2c3d4", "color")
			},
			expected: "maison/module/mod-a1b2c3d4/event/color",
		},
		{
			name:     "GuirlandeColour",
			builder:  Topics{}.GuirlandeColour,
			expected: "maison/guirlande/colour",
		},
		{
			name:     "GuirlandePreset",
			builder:  Topics{}.GuirlandePreset,
			expected: "maison/guirlande/preset",
		},
		{
			name:     "AllModuleStatuses",
			builder:  Topics{}.AllModuleStatuses,
			expected: "maison/module/+/status",
		},
		{
			name:     "AllModuleEvents",
			builder:  Topics{}.AllModuleEvents,
			expected: "maison/module/+/event/+",
		},
		{
			name:     "AllTopics",
			builder:  Topics{}.AllTopics,
			expected: "maison/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.builder(); got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}
