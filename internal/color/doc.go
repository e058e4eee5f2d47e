// Package color provides the RGB value type and tick-driven transitions
// used by the Guirlande animation engine.
//
// Color is a mutable triple of channels clamped to [0,255]. Mutating
// operations never fail; out-of-range inputs saturate. Because Color is
// mutable, sharing one instance by pointer is an aliasing hazard - callers
// that need isolation must call Copy.
//
// Transition steps a live Color toward a target at a fixed per-tick
// magnitude, reaching the target exactly (no overshoot) after a bounded
// number of Run calls. Progress is purely tick-count driven; correctness
// depends on the caller invoking Run at the cadence the step was computed
// for.
package color
