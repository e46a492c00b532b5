package touch

import (
	"github.com/holoplot/go-evdev"

	"tagtapper/internal/model"
)

const (
	evSyn = evdev.EvType(evdev.EV_SYN)
	evKey = evdev.EvType(evdev.EV_KEY)
	evAbs = evdev.EvType(evdev.EV_ABS)

	absX        = evdev.EvCode(evdev.ABS_X)
	absY        = evdev.EvCode(evdev.ABS_Y)
	absMTX      = evdev.EvCode(evdev.ABS_MT_POSITION_X)
	absMTY      = evdev.EvCode(evdev.ABS_MT_POSITION_Y)
	absPressure = evdev.EvCode(evdev.ABS_PRESSURE)
	btnTouch    = evdev.EvCode(evdev.BTN_TOUCH)
	synReport   = evdev.EvCode(evdev.SYN_REPORT)
	synDropped  = evdev.EvCode(evdev.SYN_DROPPED)
)

// RawSample accumulates single-field updates between sync boundaries.
// Fields keep their last value across syncs (sticky); HasX/HasY stay false
// until the axis has been reported once.
type RawSample struct {
	X, Y       int
	HasX, HasY bool
	Pressure   int
	// Button is the last known contact state.
	Button bool

	// dropping is set after SYN_DROPPED: axis updates are ignored up to and
	// including the next SYN_REPORT.
	dropping bool
}

// Apply folds rec into the sample and returns an event when one is due:
// a Button event on a BTN_TOUCH transition, a Position event on SYN_REPORT
// once both axes are known.
func (s *RawSample) Apply(rec Record) (model.Event, bool) {
	switch rec.Type {
	case evAbs:
		if s.dropping {
			return model.Event{}, false
		}
		switch rec.Code {
		case absX, absMTX:
			s.X, s.HasX = int(rec.Value), true
		case absY, absMTY:
			s.Y, s.HasY = int(rec.Value), true
		case absPressure:
			s.Pressure = int(rec.Value)
		}

	case evKey:
		if rec.Code != btnTouch {
			return model.Event{}, false
		}
		// 2 is autorepeat.
		if rec.Value != 0 && rec.Value != 1 {
			return model.Event{}, false
		}
		pressed := rec.Value == 1
		if pressed == s.Button {
			return model.Event{}, false
		}
		s.Button = pressed
		return model.ButtonEvent(pressed, rec.Time), true

	case evSyn:
		switch rec.Code {
		case synDropped:
			s.dropping = true
		case synReport:
			if s.dropping {
				s.dropping = false
				return model.Event{}, false
			}
			if s.HasX && s.HasY {
				return model.PositionEvent(s.X, s.Y, s.Pressure, rec.Time), true
			}
		}
	}
	return model.Event{}, false
}
