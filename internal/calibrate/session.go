package calibrate

import (
	"fmt"
	"image"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"

	"tagtapper/internal/config"
	appLog "tagtapper/internal/log"
	"tagtapper/internal/model"
)

// Phase is the screen currently shown.
type Phase int

const (
	PhaseIntro Phase = iota
	PhaseCollecting
	PhaseDone
)

// Session tracks the prompt sequence. A target is recorded on release, using
// the last raw position seen during that contact.
type Session struct {
	w, h    int
	targets []Target
	phase   Phase
	next    int
	points  []config.CalibrationPoint

	pressed  bool
	raw      [2]int
	hasRaw   bool
	doneAt   time.Time
	savedMsg string

	dc *gg.Context
}

// NewSession returns a session for a w x h screen.
func NewSession(w, h int) *Session {
	return &Session{w: w, h: h, targets: Targets(w, h), dc: gg.NewContext(w, h)}
}

func (s *Session) Phase() Phase                      { return s.phase }
func (s *Session) Points() []config.CalibrationPoint { return s.points }

// Handle consumes one raw touch event. It reports true when the last
// target has just been recorded.
func (s *Session) Handle(ev model.Event, now time.Time) bool {
	switch ev.Kind {
	case model.EventPosition:
		if s.pressed {
			s.raw = [2]int{ev.X, ev.Y}
			s.hasRaw = true
		}
	case model.EventButton:
		if ev.Pressed {
			s.pressed = true
			s.hasRaw = false
			return false
		}
		if !s.pressed {
			return false
		}
		s.pressed = false
		return s.release(now)
	}
	return false
}

func (s *Session) release(now time.Time) bool {
	switch s.phase {
	case PhaseIntro:
		s.phase = PhaseCollecting
		appLog.Info("calibration started")
	case PhaseCollecting:
		if !s.hasRaw {
			return false
		}
		t := s.targets[s.next]
		s.points = append(s.points, config.CalibrationPoint{
			RawX: s.raw[0], RawY: s.raw[1], ScreenX: t.X, ScreenY: t.Y,
		})
		appLog.Info("calibration point recorded", "point", s.next+1, "raw_x", s.raw[0], "raw_y", s.raw[1], "screen_x", t.X, "screen_y", t.Y)
		s.next++
		if s.next == len(s.targets) {
			s.phase = PhaseDone
			s.doneAt = now
			return true
		}
	}
	return false
}

// Render draws the current screen.
func (s *Session) Render() image.Image {
	dc := s.dc
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	w, h := float64(s.w), float64(s.h)

	switch s.phase {
	case PhaseIntro:
		dc.SetFontFace(inconsolata.Bold8x16)
		dc.SetRGB255(0, 255, 0)
		dc.DrawStringAnchored("Touch Calibration", w/2, 60, 0.5, 0.5)
		for _, t := range s.targets {
			dc.SetRGB255(255, 0, 0)
			dc.SetLineWidth(3)
			dc.DrawCircle(float64(t.X), float64(t.Y), 20)
			dc.Stroke()
			dc.SetRGB255(255, 255, 0)
			dc.DrawStringAnchored(t.Label, float64(t.X), float64(t.Y), 0.5, 0.5)
		}
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetRGB255(255, 255, 255)
		dc.DrawStringAnchored("Touch anywhere to start", w/2, h-60, 0.5, 0.5)

	case PhaseCollecting:
		t := s.targets[s.next]
		x, y := float64(t.X), float64(t.Y)
		dc.SetRGB255(255, 0, 0)
		dc.SetLineWidth(4)
		dc.DrawCircle(x, y, 25)
		dc.Stroke()
		dc.SetLineWidth(2)
		dc.DrawLine(x-30, y, x+30, y)
		dc.DrawLine(x, y-30, x, y+30)
		dc.Stroke()
		dc.SetFontFace(inconsolata.Bold8x16)
		dc.SetRGB255(255, 255, 0)
		dc.DrawStringAnchored(t.Label, x, y, 0.5, 0.5)
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetRGB255(0, 255, 0)
		dc.DrawStringAnchored(fmt.Sprintf("Touch target %d/%d", s.next+1, len(s.targets)), w/2, h-60, 0.5, 0.5)

	case PhaseDone:
		dc.SetFontFace(inconsolata.Bold8x16)
		dc.SetRGB255(0, 255, 0)
		dc.DrawStringAnchored("Calibration Complete!", w/2, h/2-40, 0.5, 0.5)
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetRGB255(255, 255, 255)
		dc.DrawStringAnchored(s.savedMsg, w/2, h/2+20, 0.5, 0.5)
		dc.SetRGB255(200, 200, 200)
		dc.DrawStringAnchored("Exiting in 3 seconds...", w/2, h/2+60, 0.5, 0.5)
	}
	return dc.Image()
}
