package guirlande

import (
	"math/rand"
	"strings"
	"time"

	"github.com/nerrad567/maison-core/internal/color"
)

// Canvas is the surface a preset paints on. Each tick a preset calls
// exactly one of the paint methods with the colour to display.
type Canvas interface {
	Paint(c *color.Color)
	PaintRGB(red, green, blue int)
}

// Preset is one ambient animation program. Init resets per-run state
// and is called before the first tick of every run; Tick is then
// invoked once per Interval.
//
// A preset's methods are never called concurrently: the rotation
// engine stops a preset's task before starting another.
type Preset interface {
	Name() string
	Interval() time.Duration
	Init()
	Tick(canvas Canvas)
}

// taskKey derives the scheduler key for a preset, "preset-" plus the
// slugified name.
func taskKey(p Preset) string {
	slug := strings.ToLower(strings.ReplaceAll(p.Name(), " ", "-"))
	return "preset-" + slug
}

// randRange returns a uniform random integer in [min, max].
func randRange(min, max int) int {
	return min + rand.Intn(max-min+1)
}
