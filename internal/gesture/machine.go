// Package gesture recognizes taps, swipes and the long-press confirmation
// used by destructive tabs. The machine is owned by the main loop and is
// driven by events and explicit timestamps; it never reads the clock.
package gesture

import (
	"math"
	"time"

	"tagtapper/internal/model"
)

// State is the current gesture phase.
type State int

const (
	Idle State = iota
	Pressed
	Holding
	Animating
	// Confirmed is terminal: the action has been handed out and the
	// process is about to exit.
	Confirmed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Holding:
		return "holding"
	case Animating:
		return "animating"
	case Confirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Config holds thresholds. Zero fields take the defaults below.
type Config struct {
	HoldDuration      time.Duration
	AnimationDuration time.Duration
	MoveCancelPx      float64
	SwipePx           int
	SwipeDebounce     time.Duration
}

const (
	DefaultHoldDuration      = 5 * time.Second
	DefaultAnimationDuration = time.Second
	DefaultMoveCancelPx      = 30
	DefaultSwipePx           = 50
	DefaultSwipeDebounce     = 200 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.HoldDuration <= 0 {
		c.HoldDuration = DefaultHoldDuration
	}
	if c.AnimationDuration <= 0 {
		c.AnimationDuration = DefaultAnimationDuration
	}
	if c.MoveCancelPx <= 0 {
		c.MoveCancelPx = DefaultMoveCancelPx
	}
	if c.SwipePx <= 0 {
		c.SwipePx = DefaultSwipePx
	}
	if c.SwipeDebounce <= 0 {
		c.SwipeDebounce = DefaultSwipeDebounce
	}
	return c
}

// Target identifies the tab a press landed on.
type Target struct {
	Tab    int
	Action model.ActionKind
}

// EffectKind tells the caller what to do after an input.
type EffectKind int

const (
	None EffectKind = iota
	// Swipe moves the active tab by Direction (+1 next, -1 previous).
	Swipe
	// Execute hands Action to the executor. Emitted at most once.
	Execute
)

// Effect is the side effect produced by a transition.
type Effect struct {
	Kind      EffectKind
	Direction int
	Action    model.ActionKind
	Tab       int
}

// Machine is the gesture state machine. The zero value is not usable; use New.
type Machine struct {
	cfg   Config
	state State

	target   Target
	start    model.ScreenPoint
	hasStart bool
	last     model.ScreenPoint

	armedAt   time.Time
	progress  float64
	cancelled bool
	executed  bool
	animStart time.Time

	lastSwipe time.Time
	hasSwiped bool
}

// New returns an idle machine.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg.withDefaults()}
}

// State returns the current phase.
func (m *Machine) State() State { return m.state }

// Progress is the hold progress in [0,1]. It is 0 outside a hold.
func (m *Machine) Progress() float64 { return m.progress }

// Target is the tab pinned by the current press.
func (m *Machine) Target() Target { return m.target }

// HoldRemaining is the time left until the hold completes.
func (m *Machine) HoldRemaining(now time.Time) time.Duration {
	if m.state != Holding {
		return 0
	}
	left := m.cfg.HoldDuration - now.Sub(m.armedAt)
	if left < 0 {
		return 0
	}
	return left
}

// AnimationProgress is the confirmation animation progress in [0,1].
func (m *Machine) AnimationProgress(now time.Time) float64 {
	switch m.state {
	case Animating:
		return clamp01(float64(now.Sub(m.animStart)) / float64(m.cfg.AnimationDuration))
	case Confirmed:
		return 1
	default:
		return 0
	}
}

// Button feeds a contact transition. active is the tab shown when the
// contact starts; it is ignored on release.
func (m *Machine) Button(pressed bool, active Target, now time.Time) Effect {
	if pressed {
		m.press(active, now)
		return Effect{}
	}
	return m.release(now)
}

func (m *Machine) press(active Target, now time.Time) {
	if m.state != Idle {
		return
	}
	m.target = active
	m.hasStart = false
	m.progress = 0
	m.cancelled = false
	m.executed = false

	if active.Action.Destructive() {
		m.state = Holding
		m.armedAt = now
		return
	}
	m.state = Pressed
}

func (m *Machine) release(now time.Time) Effect {
	switch m.state {
	case Pressed:
		eff := m.swipe(now)
		m.reset()
		return eff
	case Holding:
		// Released before the hold completed.
		m.reset()
		return Effect{}
	default:
		// Animating and Confirmed run to completion on their own; the
		// executed hold suppresses any tab change for this release.
		return Effect{}
	}
}

func (m *Machine) swipe(now time.Time) Effect {
	if !m.hasStart {
		return Effect{}
	}
	dx := m.last.X - m.start.X
	if abs(dx) <= m.cfg.SwipePx {
		return Effect{}
	}
	if m.hasSwiped && now.Sub(m.lastSwipe) < m.cfg.SwipeDebounce {
		return Effect{}
	}
	m.lastSwipe = now
	m.hasSwiped = true

	dir := 1
	if dx > 0 {
		dir = -1
	}
	return Effect{Kind: Swipe, Direction: dir, Tab: m.target.Tab}
}

// Position feeds a calibrated, smoothed point.
func (m *Machine) Position(p model.ScreenPoint, now time.Time) Effect {
	switch m.state {
	case Pressed, Holding:
	default:
		return Effect{}
	}

	m.last = p
	if !m.hasStart {
		m.start = p
		m.hasStart = true
	}

	if m.state == Holding {
		if dist(m.start, p) > m.cfg.MoveCancelPx {
			m.state = Pressed
			m.progress = 0
			m.cancelled = true
			return Effect{}
		}
		m.advanceHold(now)
	}
	return Effect{}
}

// Tick advances time-driven transitions. Call once per frame.
func (m *Machine) Tick(now time.Time) Effect {
	switch m.state {
	case Holding:
		m.advanceHold(now)
	case Animating:
		if now.Sub(m.animStart) >= m.cfg.AnimationDuration {
			m.state = Confirmed
			return Effect{Kind: Execute, Action: m.target.Action, Tab: m.target.Tab}
		}
	}
	return Effect{}
}

// Cancelled reports whether the current press had its hold cancelled by
// movement.
func (m *Machine) Cancelled() bool { return m.cancelled }

func (m *Machine) advanceHold(now time.Time) {
	p := clamp01(float64(now.Sub(m.armedAt)) / float64(m.cfg.HoldDuration))
	if p > m.progress {
		m.progress = p
	}
	if m.progress >= 1 && !m.executed {
		m.executed = true
		m.state = Animating
		m.animStart = now
	}
}

func (m *Machine) reset() {
	m.state = Idle
	m.progress = 0
	m.hasStart = false
	m.cancelled = false
	m.target = Target{}
}

func dist(a, b model.ScreenPoint) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
