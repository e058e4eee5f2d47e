package loop

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Part is one instruction in a loop script.
type Part interface {
	// build returns the token form of this part.
	build() string
}

// ColorPart sets the strip to a fixed colour.
type ColorPart struct {
	R, G, B int
}

func (p ColorPart) build() string {
	return fmt.Sprintf("c(%d,%d,%d)", p.R, p.G, p.B)
}

// WaitPart holds the current colour for a duration in milliseconds.
type WaitPart struct {
	Ms int
}

func (p WaitPart) build() string {
	return fmt.Sprintf("w(%d)", p.Ms)
}

// FadePart fades from the current colour to a target over a duration
// in milliseconds.
type FadePart struct {
	R, G, B int
	Ms      int
}

func (p FadePart) build() string {
	return fmt.Sprintf("t(%d,%d,%d,%d)", p.R, p.G, p.B, p.Ms)
}

// ParseError reports a loop script token that matches no part grammar.
type ParseError struct {
	Token string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("loop: invalid part %q", e.Token)
}

// Token grammars. Anchored so trailing garbage inside a token is rejected.
var (
	colorRe = regexp.MustCompile(`^c\((\d{1,3}),(\d{1,3}),(\d{1,3})\)$`)
	waitRe  = regexp.MustCompile(`^w\((\d+)\)$`)
	fadeRe  = regexp.MustCompile(`^t\((\d{1,3}),(\d{1,3}),(\d{1,3}),(\d+)\)$`)
)

// Loop is an ordered sequence of parts.
type Loop struct {
	parts []Part
}

// New creates an empty loop.
func New() *Loop {
	return &Loop{}
}

// Parse loads a loop from its serialised form.
//
// Any token not matching one of the three part grammars fails the whole
// script with a *ParseError carrying the offending token.
func Parse(script string) (*Loop, error) {
	l := New()
	for _, token := range strings.Split(script, "|") {
		part, err := parsePart(token)
		if err != nil {
			return nil, err
		}
		l.parts = append(l.parts, part)
	}
	return l, nil
}

// parsePart matches one token against the three grammars, first match wins.
func parsePart(token string) (Part, error) {
	if m := colorRe.FindStringSubmatch(token); m != nil {
		return ColorPart{R: atoi(m[1]), G: atoi(m[2]), B: atoi(m[3])}, nil
	}
	if m := waitRe.FindStringSubmatch(token); m != nil {
		return WaitPart{Ms: atoi(m[1])}, nil
	}
	if m := fadeRe.FindStringSubmatch(token); m != nil {
		return FadePart{R: atoi(m[1]), G: atoi(m[2]), B: atoi(m[3]), Ms: atoi(m[4])}, nil
	}
	return nil, &ParseError{Token: token}
}

// atoi converts digits already validated by a grammar regexp.
func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

// Color appends a set-colour part and returns the loop for chaining.
func (l *Loop) Color(r, g, b int) *Loop {
	l.parts = append(l.parts, ColorPart{R: r, G: g, B: b})
	return l
}

// Wait appends a wait part and returns the loop for chaining.
func (l *Loop) Wait(ms int) *Loop {
	l.parts = append(l.parts, WaitPart{Ms: ms})
	return l
}

// To appends a fade-to part and returns the loop for chaining.
func (l *Loop) To(r, g, b, ms int) *Loop {
	l.parts = append(l.parts, FadePart{R: r, G: g, B: b, Ms: ms})
	return l
}

// Build serialises the loop, one token per part joined by pipes.
func (l *Loop) Build() string {
	tokens := make([]string, len(l.parts))
	for i, p := range l.parts {
		tokens[i] = p.build()
	}
	return strings.Join(tokens, "|")
}

// Parts returns the parts in order. The returned slice is the loop's
// backing store; callers must not mutate it.
func (l *Loop) Parts() []Part {
	return l.parts
}

// Len returns the number of parts.
func (l *Loop) Len() int {
	return len(l.parts)
}
