package fade

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type fadeDoneMsg struct{ name string }

func TestNewAnimator_Interval(t *testing.T) {
	require.Equal(t, time.Second/60, NewAnimator(0).Interval())
	require.Equal(t, time.Second/30, NewAnimator(30).Interval())
}

func TestAnimator_StartArmsOnce(t *testing.T) {
	a := NewAnimator(60)

	cmd := a.Start(pane(10, 10), Left, In, time.Second, nil)
	require.NotNil(t, cmd)

	cmd = a.Start(pane(10, 10), Right, In, time.Second, nil)
	require.Nil(t, cmd, "a frame is already pending")
	require.Equal(t, 2, a.Running())
}

func TestAnimator_StartNilPane(t *testing.T) {
	a := NewAnimator(60)
	require.Nil(t, a.Start(nil, Left, In, time.Second, nil))
	require.Zero(t, a.Running())
}

func TestAnimator_RunsToCompletion(t *testing.T) {
	a := NewAnimator(60)
	p := pane(20, 10)
	a.Start(p, Left, In, 100*time.Millisecond, fadeDoneMsg{name: "home"})

	require.NotNil(t, a.Update(FrameMsg{Time: t0}))
	require.True(t, a.Fading(p))

	cmd := a.Update(FrameMsg{Time: t0.Add(200 * time.Millisecond)})
	require.NotNil(t, cmd)
	require.False(t, a.Fading(p))
	require.Zero(t, a.Running())
	require.Equal(t, 1.0, p.Opacity())

	require.Equal(t, fadeDoneMsg{name: "home"}, cmd())
}

func TestAnimator_StopsArmingWhenIdle(t *testing.T) {
	a := NewAnimator(60)
	p := pane(20, 10)
	a.Start(p, Left, Out, 10*time.Millisecond, nil)

	a.Update(FrameMsg{Time: t0})
	cmd := a.Update(FrameMsg{Time: t0.Add(time.Second)})

	require.Nil(t, cmd)
	require.Equal(t, 0.0, p.Opacity())
}

func TestAnimator_ReplacesFadeOnSamePane(t *testing.T) {
	a := NewAnimator(60)
	p := pane(20, 10)

	a.Start(p, Left, In, time.Second, nil)
	first, ok := a.Fader(p)
	require.True(t, ok)

	a.Start(p, Left, Out, time.Second, nil)
	second, ok := a.Fader(p)
	require.True(t, ok)

	require.NotSame(t, first, second)
	require.Equal(t, Out, second.Phase())
	require.Equal(t, 1, a.Running())
}

func TestAnimator_IgnoresOtherMessages(t *testing.T) {
	a := NewAnimator(60)
	a.FadeIn(pane(10, 10), Up)

	require.Nil(t, a.Update(tea.KeyMsg{}))
	require.Equal(t, 1, a.Running())
}

func TestAnimator_FadeOutDefaultDuration(t *testing.T) {
	a := NewAnimator(60)
	p := pane(10, 10)
	a.FadeOut(p, Down)

	f, ok := a.Fader(p)
	require.True(t, ok)
	require.Equal(t, DefaultDuration, f.Duration())
	require.Equal(t, Out, f.Phase())
}
