// Package kiosk runs the main loop: it drains touch events, maps and
// smooths them, drives the gesture machine, applies its effects and
// composites a freshly rendered frame on every tick.
package kiosk

import (
	"time"

	"tagtapper/internal/battery"
	"tagtapper/internal/calib"
	"tagtapper/internal/gesture"
	appLog "tagtapper/internal/log"
	"tagtapper/internal/model"
	"tagtapper/internal/ui"
)

// AppState is owned by the main loop. The reader goroutine never touches it.
type AppState struct {
	reg      *ui.Registry
	profile  model.CalibrationProfile
	smoother *calib.Smoother
	gesture  *gesture.Machine

	active         int
	pressed        bool
	last           model.ScreenPoint
	hasLast        bool
	touchAvailable bool
}

// NewAppState returns the state for a fresh session on the first tab.
func NewAppState(reg *ui.Registry, profile model.CalibrationProfile, gcfg gesture.Config, smoothing int) *AppState {
	return &AppState{
		reg:            reg,
		profile:        profile,
		smoother:       calib.NewSmoother(smoothing),
		gesture:        gesture.New(gcfg),
		touchAvailable: true,
	}
}

// Active returns the active tab index.
func (s *AppState) Active() int { return s.active }

// SetTouchAvailable records whether a touch device is feeding the queue.
func (s *AppState) SetTouchAvailable(ok bool) { s.touchAvailable = ok }

// Gesture exposes the machine for inspection.
func (s *AppState) Gesture() *gesture.Machine { return s.gesture }

// Handle feeds one queued event into the pipeline. It returns a request
// when the event completed a confirmation.
func (s *AppState) Handle(ev model.Event, now time.Time) (model.ActionRequest, bool) {
	switch ev.Kind {
	case model.EventPosition:
		// The release sync repeats the last contact position.
		if !s.pressed {
			return model.ActionRequest{}, false
		}
		p := s.smoother.Add(calib.Map(ev.X, ev.Y, s.profile))
		s.last, s.hasLast = p, true
		return s.apply(s.gesture.Position(p, now))
	case model.EventButton:
		if ev.Pressed != s.pressed {
			s.smoother.Reset()
			s.hasLast = false
		}
		s.pressed = ev.Pressed
		active := s.reg.Tab(s.active)
		eff := s.gesture.Button(ev.Pressed, gesture.Target{Tab: s.active, Action: active.Action}, now)
		return s.apply(eff)
	}
	return model.ActionRequest{}, false
}

// Tick advances time-driven transitions.
func (s *AppState) Tick(now time.Time) (model.ActionRequest, bool) {
	return s.apply(s.gesture.Tick(now))
}

func (s *AppState) apply(eff gesture.Effect) (model.ActionRequest, bool) {
	switch eff.Kind {
	case gesture.Swipe:
		next := s.reg.Clamp(s.active + eff.Direction)
		if next != s.active {
			appLog.Debug("tab switched", "from", s.active, "to", next)
			s.active = next
		}
	case gesture.Execute:
		return model.ActionRequest{Kind: eff.Action}, true
	}
	return model.ActionRequest{}, false
}

// Frame snapshots the state for the renderer.
func (s *AppState) Frame(now time.Time, bat *battery.Status) ui.Frame {
	f := ui.Frame{
		Now:            now,
		Active:         s.active,
		Gesture:        s.gesture.State(),
		HoldTab:        s.gesture.Target().Tab,
		HoldProgress:   s.gesture.Progress(),
		HoldRemaining:  s.gesture.HoldRemaining(now),
		AnimProgress:   s.gesture.AnimationProgress(now),
		TouchAvailable: s.touchAvailable,
		Battery:        bat,
	}
	if s.pressed && s.hasLast {
		p := s.last
		f.Touch = &p
	}
	return f
}
