package guirlande

import (
	"time"

	"github.com/nerrad567/maison-core/internal/color"
)

// DefaultPresets returns the full preset catalog in display order.
func DefaultPresets() []Preset {
	return []Preset{
		NewGuirlandePreset(),
		NewFrancePreset(),
		NewMulticolorPreset(),
		NewCinemaPreset(),
		NewCapdeputePreset(),
		NewCombustionPreset(),
		NewEpilepsyPreset(),
		NewPurpleFadePreset(),
		NewUtopiaBlinkPreset(),
	}
}

// guirlandePreset fades between two purples: a slow fade in, held,
// then a quick fade out, on a fixed-length cycle.
type guirlandePreset struct {
	color      *color.Color
	fadeIn     *color.Color
	fadeOut    *color.Color
	transition *color.Transition
	counter    int
}

// NewGuirlandePreset creates the signature Guirlande preset.
func NewGuirlandePreset() Preset { return &guirlandePreset{} }

func (p *guirlandePreset) Name() string            { return "Guirlande" }
func (p *guirlandePreset) Interval() time.Duration { return 50 * time.Millisecond }

func (p *guirlandePreset) Init() {
	p.color = color.Black()
	p.fadeIn = color.New(146, 66, 254)
	p.fadeOut = color.New(46, 0, 154)
	p.transition = color.NewTransition(p.color, p.fadeIn, p.Interval(), time.Second)
	p.counter = 0
}

func (p *guirlandePreset) Tick(canvas Canvas) {
	fadeOutAt := int(5 * time.Second / p.Interval())
	cycle := int(10 * time.Second / p.Interval())

	if p.counter == fadeOutAt {
		p.transition.Reset(p.color, p.fadeOut, p.Interval(), 300*time.Millisecond)
	}
	if p.transition.Finished() {
		p.transition.Reset(p.color, p.fadeIn, p.Interval(), time.Second)
	}
	if p.counter == cycle {
		p.counter = 0
	} else {
		p.counter++
	}
	p.transition.Run()
	canvas.Paint(p.color)
}

// francePreset cycles red, white and blue with a fade to black between
// each colour.
type francePreset struct {
	color      *color.Color
	transition *color.Transition
	counter    int
}

// NewFrancePreset creates the France preset.
func NewFrancePreset() Preset { return &francePreset{} }

func (p *francePreset) Name() string            { return "France" }
func (p *francePreset) Interval() time.Duration { return 30 * time.Millisecond }

func (p *francePreset) Init() {
	p.color = color.Black()
	p.transition = color.NewTransition(p.color, color.New(255, 0, 0), p.Interval(), time.Second)
	p.counter = 0
}

func (p *francePreset) Tick(canvas Canvas) {
	if p.transition.Finished() {
		if p.counter == 5 {
			p.counter = 0
		} else {
			p.counter++
		}
		var target *color.Color
		switch p.counter {
		case 0:
			target = color.New(255, 0, 0)
		case 2:
			target = color.New(255, 255, 255)
		case 4:
			target = color.New(0, 0, 255)
		default:
			target = color.Black()
		}
		p.transition.Reset(p.color, target, p.Interval(), time.Second)
	}
	p.transition.Run()
	canvas.Paint(p.color)
}

// multicolorPreset fades to a fresh random colour as soon as the
// previous fade finishes.
type multicolorPreset struct {
	color      *color.Color
	transition *color.Transition
}

// NewMulticolorPreset creates the Multicolor preset.
func NewMulticolorPreset() Preset { return &multicolorPreset{} }

func (p *multicolorPreset) Name() string            { return "Multicolor" }
func (p *multicolorPreset) Interval() time.Duration { return 50 * time.Millisecond }

func (p *multicolorPreset) randomTarget() *color.Color {
	return color.New(randRange(0, 255), randRange(0, 255), randRange(0, 255))
}

func (p *multicolorPreset) Init() {
	p.color = color.Black()
	p.transition = color.NewTransition(p.color, p.randomTarget(), p.Interval(), time.Second)
}

func (p *multicolorPreset) Tick(canvas Canvas) {
	if p.transition.Finished() {
		p.transition.Reset(p.color, p.randomTarget(), p.Interval(), time.Second)
	}
	p.transition.Run()
	canvas.Paint(p.color)
}

// cinemaPreset drifts between dim reds, like a projector room.
type cinemaPreset struct {
	color      *color.Color
	transition *color.Transition
}

// NewCinemaPreset creates the Cinema preset.
func NewCinemaPreset() Preset { return &cinemaPreset{} }

func (p *cinemaPreset) Name() string            { return "Cinema" }
func (p *cinemaPreset) Interval() time.Duration { return 30 * time.Millisecond }

func (p *cinemaPreset) randomTarget() *color.Color {
	return color.New(randRange(50, 150), 0, 0)
}

func (p *cinemaPreset) Init() {
	p.color = p.randomTarget()
	p.transition = color.NewTransition(p.color, p.randomTarget(), p.Interval(), time.Second)
}

func (p *cinemaPreset) Tick(canvas Canvas) {
	if p.transition.Finished() {
		p.transition.Reset(p.color, p.randomTarget(), p.Interval(), time.Second)
	}
	p.transition.Run()
	canvas.Paint(p.color)
}

// capdeputePreset drifts between bright magentas.
type capdeputePreset struct {
	color      *color.Color
	transition *color.Transition
}

// NewCapdeputePreset creates the Capdepute preset.
func NewCapdeputePreset() Preset { return &capdeputePreset{} }

func (p *capdeputePreset) Name() string            { return "Capdepute" }
func (p *capdeputePreset) Interval() time.Duration { return 30 * time.Millisecond }

func (p *capdeputePreset) randomTarget() *color.Color {
	return color.New(randRange(150, 255), 0, randRange(150, 255))
}

func (p *capdeputePreset) Init() {
	p.color = p.randomTarget()
	p.transition = color.NewTransition(p.color, p.randomTarget(), p.Interval(), time.Second)
}

func (p *capdeputePreset) Tick(canvas Canvas) {
	if p.transition.Finished() {
		p.transition.Reset(p.color, p.randomTarget(), p.Interval(), time.Second)
	}
	p.transition.Run()
	canvas.Paint(p.color)
}

// combustionPreset alternates very slowly between black and a random
// ember tone.
type combustionPreset struct {
	color *color.Color
	blink bool
}

// NewCombustionPreset creates the Combustion preset.
func NewCombustionPreset() Preset { return &combustionPreset{} }

func (p *combustionPreset) Name() string            { return "Combustion" }
func (p *combustionPreset) Interval() time.Duration { return 300 * time.Second }

func (p *combustionPreset) randomEmber() *color.Color {
	return color.New(randRange(128, 242), randRange(9, 50), randRange(9, 19))
}

func (p *combustionPreset) Init() {
	p.color = p.randomEmber()
	p.blink = true
}

func (p *combustionPreset) Tick(canvas Canvas) {
	if p.blink {
		canvas.PaintRGB(0, 0, 0)
	} else {
		p.color = p.randomEmber()
		canvas.Paint(p.color)
	}
	p.blink = !p.blink
}

// epilepsyPreset flashes a fresh random colour every tick.
type epilepsyPreset struct{}

// NewEpilepsyPreset creates the Epilepsy preset.
func NewEpilepsyPreset() Preset { return &epilepsyPreset{} }

func (p *epilepsyPreset) Name() string            { return "Epilepsy" }
func (p *epilepsyPreset) Interval() time.Duration { return 75 * time.Millisecond }

func (p *epilepsyPreset) Init() {}

func (p *epilepsyPreset) Tick(canvas Canvas) {
	canvas.PaintRGB(randRange(0, 255), randRange(0, 255), randRange(0, 255))
}

// purpleFadePreset walks one channel step per tick toward a random
// purple-ish target, picking a new target on arrival.
type purpleFadePreset struct {
	target  *color.Color
	current *color.Color
}

// NewPurpleFadePreset creates the Purple fade preset.
func NewPurpleFadePreset() Preset { return &purpleFadePreset{} }

func (p *purpleFadePreset) Name() string            { return "Purple fade" }
func (p *purpleFadePreset) Interval() time.Duration { return 20 * time.Second }

func (p *purpleFadePreset) randomTarget() *color.Color {
	return color.New(randRange(0, 200), randRange(0, 50), randRange(0, 255))
}

func (p *purpleFadePreset) Init() {
	p.target = p.randomTarget()
	p.current = color.Black()
}

func (p *purpleFadePreset) Tick(canvas Canvas) {
	if p.current.EqualsColor(p.target) {
		p.target = p.randomTarget()
	}
	stepToward(p.current.R(), p.target.R(), p.current.SetR)
	stepToward(p.current.G(), p.target.G(), p.current.SetG)
	stepToward(p.current.B(), p.target.B(), p.current.SetB)
	canvas.Paint(p.current)
}

// stepToward moves a channel one unit toward target.
func stepToward(current, target int, set func(int)) {
	switch {
	case current < target:
		set(current + 1)
	case current > target:
		set(current - 1)
	}
}

// utopiaBlinkPreset ramps yellow up to full brightness, then blinks
// three times before restarting the ramp.
type utopiaBlinkPreset struct {
	value int
	blink int
}

// NewUtopiaBlinkPreset creates the Utopia blink preset.
func NewUtopiaBlinkPreset() Preset { return &utopiaBlinkPreset{} }

func (p *utopiaBlinkPreset) Name() string            { return "Utopia blink" }
func (p *utopiaBlinkPreset) Interval() time.Duration { return 30 * time.Millisecond }

func (p *utopiaBlinkPreset) Init() {
	p.value = 0
	p.blink = -1
}

func (p *utopiaBlinkPreset) Tick(canvas Canvas) {
	const max = 255
	if p.value < max {
		p.value++
	} else if p.value == max {
		p.blink++
	}
	if p.blink == 120 {
		p.blink = -1
		p.value = 0
	}
	if p.blink == 0 || p.blink == 40 || p.blink == 80 {
		canvas.PaintRGB(0, 0, 0)
	}
	if p.blink == -1 || p.blink == 20 || p.blink == 60 {
		canvas.PaintRGB(p.value, p.value, 0)
	}
}
