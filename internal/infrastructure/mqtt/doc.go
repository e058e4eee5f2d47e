// Package mqtt provides the optional MQTT event relay for Maison Core.
//
// When enabled in configuration, Core mirrors its internal activity onto
// an MQTT broker so that external consumers (dashboards, recorders, other
// automations) can observe the system without touching the HTTP API:
//
//   - module online/offline status (retained, per module)
//   - module events as they are pushed to remote hardware
//   - the current guirlande colour (retained)
//   - Core's own liveness via Last Will and Testament (LWT)
//
// The relay is strictly one-way: Core publishes, it never acts on inbound
// MQTT traffic. Subscription support exists on the client for consumers
// embedding this package, but Core itself registers no handlers.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	relay := mqtt.NewRelay(client, byte(cfg.MQTT.QoS))
//	relay.ModuleOnline("mod-a1b2c3d4", "led-strip")
//
// All topics live under the "maison/" prefix; see topics.go for the
// complete scheme.
package mqtt
