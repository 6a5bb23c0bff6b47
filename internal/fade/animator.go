package fade

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/zjrosen/stagehand/internal/log"
	"github.com/zjrosen/stagehand/internal/ui"
)

// DefaultFPS is the frame rate used when an Animator is created with a
// non-positive rate.
const DefaultFPS = 60

// FrameMsg is one frame of the animation clock.
type FrameMsg struct {
	Time time.Time
}

type running struct {
	id     string
	fader  *Fader
	onDone tea.Msg
}

// Animator runs faders from frame messages. At most one fader runs per pane:
// starting a fade on a pane that is already fading replaces the old one.
// Panes must be comparable (pointer types) since they key the running set.
type Animator struct {
	interval time.Duration
	byPane   map[ui.Pane]*running
	ticking  bool
}

// NewAnimator creates an animator that ticks fps times a second.
func NewAnimator(fps int) *Animator {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Animator{
		interval: time.Second / time.Duration(fps),
		byPane:   make(map[ui.Pane]*running),
	}
}

// Interval returns the time between frames.
func (a *Animator) Interval() time.Duration { return a.interval }

// Start begins fading pane and returns the command that keeps frames coming.
// onDone, when not nil, is sent as a message once the fade finishes.
func (a *Animator) Start(pane ui.Pane, direction Direction, phase Phase, duration time.Duration, onDone tea.Msg) tea.Cmd {
	if pane == nil {
		return nil
	}
	if prev, ok := a.byPane[pane]; ok {
		log.Debug(log.CatFade, "replacing running fade", "id", prev.id, "opacity", prev.fader.Opacity())
	}

	r := &running{
		id:     uuid.NewString(),
		fader:  New(pane, direction, phase, duration),
		onDone: onDone,
	}
	a.byPane[pane] = r
	log.Debug(log.CatFade, "fade started", "id", r.id, "direction", direction, "phase", phase, "duration", r.fader.Duration())

	return a.arm()
}

// FadeIn fades pane in over DefaultDuration.
func (a *Animator) FadeIn(pane ui.Pane, direction Direction) tea.Cmd {
	return a.Start(pane, direction, In, DefaultDuration, nil)
}

// FadeOut fades pane out over DefaultDuration.
func (a *Animator) FadeOut(pane ui.Pane, direction Direction) tea.Cmd {
	return a.Start(pane, direction, Out, DefaultDuration, nil)
}

// Update advances every running fader on a FrameMsg. Other messages are
// ignored.
func (a *Animator) Update(msg tea.Msg) tea.Cmd {
	frame, ok := msg.(FrameMsg)
	if !ok {
		return nil
	}
	a.ticking = false

	var cmds []tea.Cmd
	for pane, r := range a.byPane {
		if !r.fader.Tick(frame.Time) {
			continue
		}
		delete(a.byPane, pane)
		log.Debug(log.CatFade, "fade done", "id", r.id, "opacity", r.fader.Opacity())
		if r.onDone != nil {
			done := r.onDone
			cmds = append(cmds, func() tea.Msg { return done })
		}
	}

	cmds = append(cmds, a.arm())
	return tea.Batch(cmds...)
}

// Running returns the number of fades in progress.
func (a *Animator) Running() int { return len(a.byPane) }

// Fading reports whether pane has a fade in progress.
func (a *Animator) Fading(pane ui.Pane) bool {
	_, ok := a.byPane[pane]
	return ok
}

// Fader returns the fader currently running on pane.
func (a *Animator) Fader(pane ui.Pane) (*Fader, bool) {
	r, ok := a.byPane[pane]
	if !ok {
		return nil, false
	}
	return r.fader, true
}

// arm schedules the next frame unless one is already pending or nothing is
// running.
func (a *Animator) arm() tea.Cmd {
	if a.ticking || len(a.byPane) == 0 {
		return nil
	}
	a.ticking = true
	return tea.Tick(a.interval, func(t time.Time) tea.Msg {
		return FrameMsg{Time: t}
	})
}
