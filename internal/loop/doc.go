// Package loop implements the LED strip loop script format.
//
// A loop is an ordered sequence of parts that a strip executes
// autonomously, repeating from the start when it reaches the end. Three
// part kinds exist:
//
//   - colour:  set the strip to an RGB value, serialised as c(r,g,b)
//   - wait:    hold the current colour for a time in ms, serialised as w(ms)
//   - fade-to: fade to an RGB value over a time in ms, serialised as t(r,g,b,ms)
//
// Scripts serialise to a pipe-delimited string, one token per part:
//
//	c(255,0,0)|w(1000)|t(0,0,255,2000)
//
// Parsing is strict: a script containing any token that does not match
// one of the three grammars is rejected wholesale with a *ParseError,
// never truncated or partially accepted.
package loop
