// Package fade animates a pane's opacity together with a translation along
// one axis. A Fader is a plain state machine advanced by Tick; Animator
// drives any number of them from Bubble Tea frame messages.
package fade

import (
	"time"

	"github.com/zjrosen/stagehand/internal/ui"
)

// DefaultDuration is used when a fade is started without a duration.
const DefaultDuration = 500 * time.Millisecond

// Direction is the direction the pane moves while fading.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// Vector returns the unit vector of the direction.
func (d Direction) Vector() (x, y int) {
	switch d {
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	case Up:
		return 0, 1
	case Down:
		return 0, -1
	default:
		return 0, 0
	}
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// ParseDirection maps "left", "right", "up" and "down" to a Direction.
func ParseDirection(s string) (Direction, bool) {
	for _, d := range []Direction{Left, Right, Up, Down} {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

// Phase says whether the pane is appearing or disappearing.
type Phase int

const (
	In Phase = iota
	Out
)

// Sign is +1 for In and -1 for Out.
func (p Phase) Sign() float64 {
	if p == Out {
		return -1
	}
	return 1
}

func (p Phase) String() string {
	if p == Out {
		return "out"
	}
	return "in"
}

// State is the lifecycle of a Fader.
type State int

const (
	// Starting means no tick has been seen yet.
	Starting State = iota
	// Running means a time baseline exists and ticks interpolate.
	Running
	// Done is terminal; further ticks do nothing.
	Done
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Fader is the state of one fade of one pane.
type Fader struct {
	pane      ui.Pane
	direction Direction
	phase     Phase
	duration  time.Duration
	last      time.Time
	state     State
	opacity   float64
}

// New creates a fader. Nothing is applied to the pane until the second tick.
// A non-positive duration uses DefaultDuration.
func New(pane ui.Pane, direction Direction, phase Phase, duration time.Duration) *Fader {
	if duration <= 0 {
		duration = DefaultDuration
	}
	opacity := 0.0
	if phase == Out {
		opacity = 1
	}
	return &Fader{
		pane:      pane,
		direction: direction,
		phase:     phase,
		duration:  duration,
		state:     Starting,
		opacity:   opacity,
	}
}

func (f *Fader) Pane() ui.Pane           { return f.pane }
func (f *Fader) Direction() Direction    { return f.direction }
func (f *Fader) Phase() Phase            { return f.phase }
func (f *Fader) Duration() time.Duration { return f.duration }
func (f *Fader) State() State            { return f.state }
func (f *Fader) Opacity() float64        { return f.opacity }
func (f *Fader) Done() bool              { return f.state == Done }

// Tick advances the fade to now and reports whether it has finished. The
// first tick only records the time baseline.
func (f *Fader) Tick(now time.Time) bool {
	switch f.state {
	case Done:
		return true
	case Starting:
		f.last = now
		f.state = Running
		return false
	}

	dt := now.Sub(f.last).Seconds()
	f.last = now
	if dt < 0 {
		dt = 0
	}

	sign := f.phase.Sign()
	f.opacity = min(1, max(0, f.opacity+sign*dt/f.duration.Seconds()))
	f.pane.SetOpacity(f.opacity)

	// Extent is read from the pane every tick so resizes mid-fade apply.
	vx, vy := f.direction.Vector()
	x, y := f.pane.Translate()
	switch f.direction {
	case Left, Right:
		x = sign * float64(vx) * (float64(f.pane.Width()) / 2 * (1 - f.opacity))
	case Up, Down:
		y = sign * float64(vy) * (float64(f.pane.Height()) / 2 * (1 - f.opacity))
	}
	f.pane.SetTranslate(x, y)

	if (f.phase == In && f.opacity >= 1) || (f.phase == Out && f.opacity <= 0) {
		if f.phase == In {
			f.opacity = 1
		} else {
			f.opacity = 0
		}
		f.pane.SetOpacity(f.opacity)
		f.state = Done
		return true
	}
	return false
}
