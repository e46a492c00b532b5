package calibrate

import (
	"context"
	"fmt"
	"image"
	"time"

	"tagtapper/internal/config"
	appLog "tagtapper/internal/log"
	"tagtapper/internal/model"
)

// EventSource is the consumer side of a touch queue.
type EventSource interface {
	Events() <-chan model.Event
}

// Display receives rendered screens.
type Display interface {
	Composite(img image.Image) error
}

// Tool runs a Session against real devices and persists the result.
type Tool struct {
	Events     EventSource
	Display    Display
	ConfigPath string
	Width      int
	Height     int
	// Interval is the redraw cadence; DoneHold how long the final screen stays up.
	Interval time.Duration
	DoneHold time.Duration

	now func() time.Time
}

// Run shows the targets until all have been touched, saves the profile
// and keeps the done screen up for DoneHold. It returns early when ctx is
// cancelled or the touch queue closes.
func (t *Tool) Run(ctx context.Context) (model.CalibrationProfile, error) {
	if t.now == nil {
		t.now = time.Now
	}
	if t.Interval <= 0 {
		t.Interval = time.Second / 30
	}
	if t.DoneHold <= 0 {
		t.DoneHold = 3 * time.Second
	}

	s := NewSession(t.Width, t.Height)
	events := t.Events.Events()
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	var (
		profile model.CalibrationProfile
		saveErr error
	)
	for {
		now := t.now()
	drain:
		for s.Phase() != PhaseDone {
			select {
			case ev, ok := <-events:
				if !ok {
					return profile, fmt.Errorf("calibrate: touch queue closed: %w", model.ErrDeviceUnavailable)
				}
				if s.Handle(ev, now) {
					profile, saveErr = t.finish(s)
					if saveErr != nil {
						s.savedMsg = "Save failed, see log"
					} else {
						s.savedMsg = "Saved to " + t.ConfigPath
					}
				}
			default:
				break drain
			}
		}

		if err := t.Display.Composite(s.Render()); err != nil {
			appLog.Warn("calibration frame failed", "err", err)
		}
		if s.Phase() == PhaseDone && now.Sub(s.doneAt) >= t.DoneHold {
			return profile, saveErr
		}

		select {
		case <-ctx.Done():
			appLog.Info("calibration cancelled")
			return profile, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Tool) finish(s *Session) (model.CalibrationProfile, error) {
	p, err := Solve(s.Points(), t.Width, t.Height)
	if err != nil {
		appLog.Error("calibration solve failed", err)
		return p, err
	}
	if err := config.SaveCalibration(t.ConfigPath, config.CalibrationFromProfile(p, s.Points())); err != nil {
		appLog.Error("calibration save failed", err, "config_path", t.ConfigPath)
		return p, err
	}
	appLog.Info("calibration saved", "config_path", t.ConfigPath,
		"raw_x_min", p.RawXMin, "raw_x_max", p.RawXMax, "raw_y_min", p.RawYMin, "raw_y_max", p.RawYMax)
	return p, nil
}
