package color

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidHex is returned by ParseHex for anything that is not a
// six-digit hex colour.
var ErrInvalidHex = errors.New("color: invalid hex colour")

// Color is a mutable RGB triple. Every mutation clamps each channel
// into [0,255]; no operation returns an error.
type Color struct {
	r, g, b int
}

// New creates a Color with the given channel values, clamped.
func New(r, g, b int) *Color {
	c := &Color{}
	c.Set(r, g, b)
	return c
}

// Black creates a Color at (0, 0, 0).
func Black() *Color {
	return &Color{}
}

// ParseHex creates a Color from a six-digit hex string such as
// "FF8800" or "#ff8800".
func ParseHex(s string) (*Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return New(int(v>>16), int(v>>8&0xFF), int(v&0xFF)), nil
}

// clamp saturates v into [0,255].
func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Set assigns all three channels, clamped.
func (c *Color) Set(r, g, b int) *Color {
	c.r = clamp(r)
	c.g = clamp(g)
	c.b = clamp(b)
	return c
}

// SetColor assigns the channels of target to this colour.
func (c *Color) SetColor(target *Color) *Color {
	return c.Set(target.r, target.g, target.b)
}

// SetR assigns the red channel, clamped.
func (c *Color) SetR(r int) { c.r = clamp(r) }

// SetG assigns the green channel, clamped.
func (c *Color) SetG(g int) { c.g = clamp(g) }

// SetB assigns the blue channel, clamped.
func (c *Color) SetB(b int) { c.b = clamp(b) }

// Add adds the given values to each channel, clamped.
func (c *Color) Add(r, g, b int) *Color {
	return c.Set(c.r+r, c.g+g, c.b+b)
}

// AddColor adds target's channels to this colour.
func (c *Color) AddColor(target *Color) *Color {
	return c.Add(target.r, target.g, target.b)
}

// Subtract subtracts the given values from each channel, clamped.
func (c *Color) Subtract(r, g, b int) *Color {
	return c.Set(c.r-r, c.g-g, c.b-b)
}

// SubtractColor subtracts target's channels from this colour.
func (c *Color) SubtractColor(target *Color) *Color {
	return c.Subtract(target.r, target.g, target.b)
}

// Multiply multiplies each channel by the given values, clamped.
func (c *Color) Multiply(r, g, b int) *Color {
	return c.Set(c.r*r, c.g*g, c.b*b)
}

// Distance returns the per-channel absolute difference between this
// colour and target, as a new Color.
func (c *Color) Distance(target *Color) *Color {
	return New(abs(c.r-target.r), abs(c.g-target.g), abs(c.b-target.b))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Equals reports whether this colour matches the given channel values.
func (c *Color) Equals(r, g, b int) bool {
	return c.r == r && c.g == g && c.b == b
}

// EqualsColor reports whether this colour matches target by value.
func (c *Color) EqualsColor(target *Color) bool {
	return c.Equals(target.r, target.g, target.b)
}

// Copy returns an independent copy of this colour.
func (c *Color) Copy() *Color {
	return &Color{r: c.r, g: c.g, b: c.b}
}

// R returns the red channel.
func (c *Color) R() int { return c.r }

// G returns the green channel.
func (c *Color) G() int { return c.g }

// B returns the blue channel.
func (c *Color) B() int { return c.b }

// RGB returns all three channels.
func (c *Color) RGB() (r, g, b int) {
	return c.r, c.g, c.b
}

// Hex returns the colour as an uppercase hex string, e.g. "0A14FF".
func (c *Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.r, c.g, c.b)
}

// String implements fmt.Stringer.
func (c *Color) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.r, c.g, c.b)
}
