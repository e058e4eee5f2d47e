package mqtt

import "fmt"

// Topic prefixes for the Maison MQTT namespace.
//
// Scheme: maison/{area}/... where area is "system", "module" or
// "guirlande". Retained topics carry last-known state; event topics are
// fire-and-forget.
const (
	// TopicPrefix is the base for all Maison topics.
	TopicPrefix = "maison"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "maison/system"

	// TopicPrefixModule is the base for per-module topics.
	TopicPrefixModule = "maison/module"

	// TopicPrefixGuirlande is the base for guirlande topics.
	TopicPrefixGuirlande = "maison/guirlande"
)

// Topics provides builders for Maison MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.ModuleStatus("mod-a1b2c3d4")
//	// Returns: "maison/module/mod-a1b2c3d4/status"
type Topics struct{}

// SystemStatus returns the Core liveness topic. Retained; also used as
// the LWT target so a crash flips the payload to offline.
//
// Example: maison/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// ModuleStatus returns the per-module status topic. Retained.
//
// Example: maison/module/mod-a1b2c3d4/status
func (Topics) ModuleStatus(moduleID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixModule, moduleID)
}

// ModuleEvent returns the topic for an event relayed to a module.
// The event name is the bare suffix, e.g. "color" or "up".
//
// Example: maison/module/mod-a1b2c3d4/event/color
func (Topics) ModuleEvent(moduleID, event string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefixModule, moduleID, event)
}

// GuirlandeColour returns the topic carrying the current guirlande
// colour. Retained.
//
// Example: maison/guirlande/colour
func (Topics) GuirlandeColour() string {
	return fmt.Sprintf("%s/colour", TopicPrefixGuirlande)
}

// GuirlandePreset returns the topic carrying the active preset name.
// Retained; an empty name means rotation is stopped.
//
// Example: maison/guirlande/preset
func (Topics) GuirlandePreset() string {
	return fmt.Sprintf("%s/preset", TopicPrefixGuirlande)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllModuleStatuses returns a pattern matching every module status topic.
//
// Pattern: maison/module/+/status
func (Topics) AllModuleStatuses() string {
	return fmt.Sprintf("%s/+/status", TopicPrefixModule)
}

// AllModuleEvents returns a pattern matching every relayed module event.
//
// Pattern: maison/module/+/event/+
func (Topics) AllModuleEvents() string {
	return fmt.Sprintf("%s/+/event/+", TopicPrefixModule)
}

// AllTopics returns a pattern matching all Maison topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: maison/#
func (Topics) AllTopics() string {
	return "maison/#"
}
