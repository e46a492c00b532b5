package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagtapper/internal/model"
)

var (
	t0       = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	infoTab  = Target{Tab: 0, Action: model.ActionNone}
	shutdown = Target{Tab: 4, Action: model.ActionShutdown}
)

func at(d time.Duration) time.Time { return t0.Add(d) }

func pt(x, y int) model.ScreenPoint { return model.ScreenPoint{X: x, Y: y} }

func TestTap_NoEffect(t *testing.T) {
	m := New(Config{})
	m.Button(true, infoTab, at(0))
	assert.Equal(t, Pressed, m.State())
	m.Position(pt(100, 100), at(10*time.Millisecond))
	eff := m.Button(false, infoTab, at(100*time.Millisecond))
	assert.Equal(t, None, eff.Kind)
	assert.Equal(t, Idle, m.State())
}

func TestSwipe_Directions(t *testing.T) {
	m := New(Config{})

	m.Button(true, infoTab, at(0))
	m.Position(pt(300, 100), at(10*time.Millisecond))
	m.Position(pt(200, 105), at(50*time.Millisecond))
	eff := m.Button(false, infoTab, at(100*time.Millisecond))
	assert.Equal(t, Swipe, eff.Kind)
	assert.Equal(t, 1, eff.Direction, "swipe left advances")

	m.Button(true, infoTab, at(time.Second))
	m.Position(pt(100, 100), at(time.Second+10*time.Millisecond))
	m.Position(pt(180, 100), at(time.Second+50*time.Millisecond))
	eff = m.Button(false, infoTab, at(time.Second+100*time.Millisecond))
	assert.Equal(t, Swipe, eff.Kind)
	assert.Equal(t, -1, eff.Direction, "swipe right goes back")
}

func TestSwipe_ThresholdIsStrict(t *testing.T) {
	m := New(Config{})
	m.Button(true, infoTab, at(0))
	m.Position(pt(100, 100), at(0))
	m.Position(pt(150, 100), at(10*time.Millisecond))
	assert.Equal(t, None, m.Button(false, infoTab, at(20*time.Millisecond)).Kind, "|dx| == 50 is not a swipe")

	m.Button(true, infoTab, at(time.Second))
	m.Position(pt(100, 100), at(time.Second))
	m.Position(pt(151, 100), at(time.Second))
	assert.Equal(t, Swipe, m.Button(false, infoTab, at(time.Second)).Kind)
}

func TestSwipe_Debounce(t *testing.T) {
	m := New(Config{})
	swipe := func(start time.Duration) Effect {
		m.Button(true, infoTab, at(start))
		m.Position(pt(300, 100), at(start))
		m.Position(pt(100, 100), at(start+time.Millisecond))
		return m.Button(false, infoTab, at(start+2*time.Millisecond))
	}

	assert.Equal(t, Swipe, swipe(0).Kind)
	assert.Equal(t, None, swipe(100*time.Millisecond).Kind, "second swipe within 0.2s ignored")
	assert.Equal(t, Swipe, swipe(400*time.Millisecond).Kind)
}

func TestHold_CompletesExactlyOnce(t *testing.T) {
	m := New(Config{})
	m.Button(true, shutdown, at(0))
	require.Equal(t, Holding, m.State())
	m.Position(pt(240, 160), at(20*time.Millisecond))

	executes := 0
	for d := time.Duration(0); d <= 8*time.Second; d += 33 * time.Millisecond {
		if d < 5*time.Second {
			assert.Less(t, m.Progress(), 1.0)
		}
		if m.Tick(at(d)).Kind == Execute {
			executes++
		}
	}
	m.Tick(at(5 * time.Second))
	assert.Equal(t, 1, executes)
	assert.Equal(t, Confirmed, m.State())
}

func TestHold_ExactDurationAnimatesThenExecutes(t *testing.T) {
	m := New(Config{})
	m.Button(true, shutdown, at(0))
	m.Position(pt(240, 160), at(0))

	assert.Equal(t, None, m.Tick(at(5*time.Second)).Kind)
	assert.Equal(t, Animating, m.State())
	assert.Equal(t, 1.0, m.Progress())

	// Releasing during the animation neither cancels nor swipes.
	assert.Equal(t, None, m.Button(false, infoTab, at(5200*time.Millisecond)).Kind)
	assert.Equal(t, Animating, m.State())

	assert.Equal(t, None, m.Tick(at(5900*time.Millisecond)).Kind)
	assert.InDelta(t, 0.9, m.AnimationProgress(at(5900*time.Millisecond)), 1e-9)

	eff := m.Tick(at(6 * time.Second))
	assert.Equal(t, Execute, eff.Kind)
	assert.Equal(t, model.ActionShutdown, eff.Action)
	assert.Equal(t, 4, eff.Tab)

	assert.Equal(t, None, m.Tick(at(7*time.Second)).Kind)
	assert.Equal(t, None, m.Button(true, shutdown, at(8*time.Second)).Kind)
	assert.Equal(t, Confirmed, m.State())
}

func TestHold_ReleasedEarly(t *testing.T) {
	m := New(Config{})
	m.Button(true, shutdown, at(0))
	m.Position(pt(240, 160), at(0))
	m.Tick(at(4900 * time.Millisecond))
	assert.InDelta(t, 0.98, m.Progress(), 1e-9)

	eff := m.Button(false, infoTab, at(4900*time.Millisecond))
	assert.Equal(t, None, eff.Kind)
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, 0.0, m.Progress())

	for d := 5 * time.Second; d < 10*time.Second; d += 100 * time.Millisecond {
		assert.Equal(t, None, m.Tick(at(d)).Kind)
	}
}

func TestHold_ProgressMonotonicWhileStationary(t *testing.T) {
	m := New(Config{})
	m.Button(true, shutdown, at(0))
	m.Position(pt(100, 100), at(0))

	prev := 0.0
	for d := time.Duration(0); d < 5*time.Second; d += 250 * time.Millisecond {
		m.Position(pt(100+int(d/time.Second), 100), at(d))
		assert.GreaterOrEqual(t, m.Progress(), prev)
		prev = m.Progress()
	}
	// An out-of-order timestamp does not move progress backwards.
	m.Tick(at(time.Second))
	assert.Equal(t, prev, m.Progress())
}

func TestHold_MovementCancels(t *testing.T) {
	m := New(Config{})
	m.Button(true, shutdown, at(0))
	m.Position(pt(100, 100), at(0))
	m.Tick(at(3 * time.Second))
	require.Greater(t, m.Progress(), 0.5)

	// 20,20 is ~28.3 px: still within the threshold.
	m.Position(pt(120, 120), at(3100*time.Millisecond))
	assert.Equal(t, Holding, m.State())

	m.Position(pt(125, 121), at(3200*time.Millisecond))
	assert.Equal(t, Pressed, m.State())
	assert.Equal(t, 0.0, m.Progress())
	assert.True(t, m.Cancelled())

	// A cancelled hold never re-arms within the same press.
	for d := 3300 * time.Millisecond; d < 10*time.Second; d += 100 * time.Millisecond {
		assert.Equal(t, None, m.Tick(at(d)).Kind)
	}
	assert.Equal(t, 0.0, m.Progress())
	assert.Equal(t, None, m.Button(false, infoTab, at(10*time.Second)).Kind)
	assert.Equal(t, Idle, m.State())
}

func TestHold_CancelledByLongDragCanStillLeaveTab(t *testing.T) {
	m := New(Config{})
	m.Button(true, shutdown, at(0))
	m.Position(pt(300, 100), at(0))
	m.Position(pt(200, 100), at(100*time.Millisecond))
	eff := m.Button(false, infoTab, at(200*time.Millisecond))
	assert.Equal(t, Swipe, eff.Kind)
	assert.Equal(t, 1, eff.Direction)
}

func TestHold_TargetPinnedAtArm(t *testing.T) {
	m := New(Config{})
	reboot := Target{Tab: 3, Action: model.ActionReboot}
	m.Button(true, reboot, at(0))
	// A second press report for another tab while holding is ignored.
	m.Button(true, shutdown, at(time.Second))
	assert.Equal(t, reboot, m.Target())

	m.Tick(at(5 * time.Second))
	eff := m.Tick(at(6 * time.Second))
	assert.Equal(t, model.ActionReboot, eff.Action)
}

func TestHold_HoldRemaining(t *testing.T) {
	m := New(Config{HoldDuration: 2 * time.Second})
	assert.Equal(t, time.Duration(0), m.HoldRemaining(at(0)))
	m.Button(true, shutdown, at(0))
	assert.Equal(t, 1500*time.Millisecond, m.HoldRemaining(at(500*time.Millisecond)))
	assert.Equal(t, time.Duration(0), m.HoldRemaining(at(3*time.Second)))
}

func TestPositionIgnoredWhenIdle(t *testing.T) {
	m := New(Config{})
	assert.Equal(t, None, m.Position(pt(1, 1), at(0)).Kind)
	assert.Equal(t, None, m.Button(false, infoTab, at(0)).Kind)
	assert.Equal(t, Idle, m.State())
}

func TestReleaseWithoutPosition(t *testing.T) {
	m := New(Config{})
	m.Button(true, infoTab, at(0))
	assert.Equal(t, None, m.Button(false, infoTab, at(time.Second)).Kind)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "holding", Holding.String())
	assert.Equal(t, "unknown", State(42).String())
}
