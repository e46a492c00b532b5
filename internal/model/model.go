package model

import "time"

// CalibrationProfile maps raw digitizer axis values onto screen pixels.
// It is loaded once at startup and never mutated afterwards; ranges may be
// degenerate (min == max) or inverted (min > max).
type CalibrationProfile struct {
	RawXMin int
	RawXMax int
	RawYMin int
	RawYMax int

	ScreenWidth  int
	ScreenHeight int
}

// Default calibration used when the config carries no calibration record.
const (
	DefaultRawMin       = 0
	DefaultRawMax       = 4095
	DefaultScreenWidth  = 480
	DefaultScreenHeight = 320
)

// DefaultProfile returns the profile used for absent calibration keys.
func DefaultProfile() CalibrationProfile {
	return CalibrationProfile{
		RawXMin:      DefaultRawMin,
		RawXMax:      DefaultRawMax,
		RawYMin:      DefaultRawMin,
		RawYMax:      DefaultRawMax,
		ScreenWidth:  DefaultScreenWidth,
		ScreenHeight: DefaultScreenHeight,
	}
}

// Validate reports ErrCalibrationDegenerate when an axis range is empty.
// The mapper copes with such profiles; this is informational only.
func (p CalibrationProfile) Validate() error {
	if p.RawXMin == p.RawXMax || p.RawYMin == p.RawYMax {
		return ErrCalibrationDegenerate
	}
	return nil
}

// ScreenPoint is a calibrated pixel position, always inside
// [0, ScreenWidth-1] x [0, ScreenHeight-1].
type ScreenPoint struct {
	X int
	Y int
}

// EventKind distinguishes the normalized touch events.
type EventKind int

const (
	// EventPosition carries raw axis values flushed at a sync boundary.
	EventPosition EventKind = iota + 1
	// EventButton carries a contact state transition.
	EventButton
)

func (k EventKind) String() string {
	switch k {
	case EventPosition:
		return "position"
	case EventButton:
		return "button"
	default:
		return "unknown"
	}
}

// Event is an immutable value passed from the touch reader to the main loop.
// Position events use X, Y and Pressure (raw, uncalibrated); button events
// use Pressed.
type Event struct {
	Kind     EventKind
	X        int
	Y        int
	Pressure int
	Pressed  bool
	// Time is the kernel timestamp of the record that produced the event.
	Time time.Time
}

// PositionEvent builds a position event.
func PositionEvent(x, y, pressure int, ts time.Time) Event {
	return Event{Kind: EventPosition, X: x, Y: y, Pressure: pressure, Time: ts}
}

// ButtonEvent builds a button event.
func ButtonEvent(pressed bool, ts time.Time) Event {
	return Event{Kind: EventButton, Pressed: pressed, Time: ts}
}

// ActionKind names an irreversible system action bound to a tab.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionReboot
	ActionShutdown
)

func (a ActionKind) String() string {
	switch a {
	case ActionReboot:
		return "reboot"
	case ActionShutdown:
		return "shutdown"
	default:
		return "none"
	}
}

// Destructive reports whether the action ends the process.
func (a ActionKind) Destructive() bool {
	return a == ActionReboot || a == ActionShutdown
}

// ActionRequest is terminal: once executed the process exits.
type ActionRequest struct {
	Kind ActionKind
}
