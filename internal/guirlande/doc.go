// Package guirlande drives the ambient Guirlande light.
//
// It owns the live display colour, an access gate for unauthenticated
// visitors, and a rotation engine that cycles through animated colour
// presets with a crossfade-to-black handoff between them. Direct colour
// commands and preset ticks both write through the same display path;
// a direct command issued while a preset is running is simply
// overwritten by the preset's next tick.
package guirlande
