package color

import (
	"math"
	"time"
)

// TransitionState describes where a Transition is in its lifecycle.
type TransitionState int

const (
	// TransitionInit means Reset has been called but Run has not.
	TransitionInit TransitionState = iota

	// TransitionRunning means the colour is being stepped toward the target.
	TransitionRunning

	// TransitionFinished means the colour equals the target. Terminal
	// until Reset is called again.
	TransitionFinished
)

// Transition steps a live Color toward a target by a fixed per-channel
// magnitude on every Run call.
//
// The live colour is mutated in place; the Transition owns it for the
// duration of the animation and no other writer should touch it.
type Transition struct {
	state  TransitionState
	step   [3]int
	color  *Color
	target *Color
}

// NewTransition creates a transition from the live colour toward target.
//
// tick is the cadence Run will be called at; duration is the intended
// total animation time. The per-channel step is computed once from the
// channel distance, with a minimum of 1 to guarantee forward progress.
func NewTransition(c, target *Color, tick, duration time.Duration) *Transition {
	t := &Transition{}
	t.Reset(c, target, tick, duration)
	return t
}

// Reset rearms the transition with a new colour, target and timing.
// The state returns to TransitionInit.
func (t *Transition) Reset(c, target *Color, tick, duration time.Duration) {
	t.state = TransitionInit
	t.color = c
	t.target = target
	t.step = calculateStep(c, target, tick, duration)
}

// State returns the current lifecycle state.
func (t *Transition) State() TransitionState {
	return t.state
}

// Finished reports whether the transition has reached its target.
func (t *Transition) Finished() bool {
	return t.state == TransitionFinished
}

// Run advances the transition by one tick.
//
// The first call only arms the machine (no colour change). Subsequent
// calls move each channel one step toward the target independently,
// snapping to the target value the instant a step reaches or passes it.
// Once all channels have arrived, the state becomes TransitionFinished
// and further calls are no-ops.
func (t *Transition) Run() {
	switch t.state {
	case TransitionInit:
		t.state = TransitionRunning
	case TransitionRunning:
		if t.step[0] == 0 && t.step[1] == 0 && t.step[2] == 0 {
			t.state = TransitionFinished
			return
		}
		t.runChannel(0, t.color.R(), t.target.R(), t.color.SetR)
		t.runChannel(1, t.color.G(), t.target.G(), t.color.SetG)
		t.runChannel(2, t.color.B(), t.target.B(), t.color.SetB)
	case TransitionFinished:
	}
}

// runChannel moves a single channel one step toward its target, zeroing
// the step and snapping to the target on arrival.
func (t *Transition) runChannel(i, current, target int, set func(int)) {
	if t.step[i] == 0 {
		return
	}
	if current > target {
		next := current - t.step[i]
		if next <= target {
			next = target
			t.step[i] = 0
		}
		set(next)
	} else {
		next := current + t.step[i]
		if next >= target {
			next = target
			t.step[i] = 0
		}
		set(next)
	}
}

// calculateStep derives the per-channel step magnitude from the channel
// distance and the tick/duration budget, minimum 1.
func calculateStep(c, target *Color, tick, duration time.Duration) [3]int {
	distance := c.Distance(target)
	denom := tick.Seconds() * 1000 * duration.Seconds()
	if denom <= 0 {
		denom = 1
	}

	step := func(d int) int {
		v := int(math.Floor(float64(d) / denom))
		if v == 0 {
			v = 1
		}
		return v
	}

	return [3]int{step(distance.R()), step(distance.G()), step(distance.B())}
}
