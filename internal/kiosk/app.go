package kiosk

import (
	"context"
	"image"
	"time"

	"tagtapper/internal/battery"
	appLog "tagtapper/internal/log"
	"tagtapper/internal/model"
	"tagtapper/internal/ui"
)

// EventSource is the consumer side of the touch queue.
type EventSource interface {
	Events() <-chan model.Event
}

// Display receives finished frames.
type Display interface {
	Composite(img image.Image) error
}

// Executor runs a confirmed action. In production it does not return.
type Executor interface {
	Execute(req model.ActionRequest)
}

// BatterySource reports the latest gauge reading, or nil.
type BatterySource interface {
	Latest() *battery.Status
}

// App wires the loop's collaborators. Events and Battery may be nil.
type App struct {
	State    *AppState
	Renderer *ui.Renderer
	Display  Display
	Executor Executor
	Events   EventSource
	Battery  BatterySource
	Interval time.Duration

	now          func() time.Time
	events       <-chan model.Event
	failedFrames int
}

// Run ticks until ctx is done or an action has been executed.
func (a *App) Run(ctx context.Context) error {
	if a.now == nil {
		a.now = time.Now
	}
	if a.Interval <= 0 {
		a.Interval = time.Second / 30
	}
	if a.Events != nil {
		a.events = a.Events.Events()
	}
	a.State.SetTouchAvailable(a.events != nil)

	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()

	appLog.Info("kiosk loop started", "interval", a.Interval.String(), "touch", a.events != nil)
	for {
		if a.step() {
			return nil
		}
		select {
		case <-ctx.Done():
			appLog.Info("kiosk loop stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// step runs one tick. It reports true after an action was handed off.
func (a *App) step() bool {
	now := a.now()
	for _, ev := range a.drain() {
		if req, ok := a.State.Handle(ev, now); ok {
			a.execute(req)
			return true
		}
	}
	if req, ok := a.State.Tick(now); ok {
		a.execute(req)
		return true
	}

	var bat *battery.Status
	if a.Battery != nil {
		bat = a.Battery.Latest()
	}
	img := a.Renderer.Render(a.State.Frame(now, bat))
	if err := a.Display.Composite(img); err != nil {
		a.failedFrames++
		if a.failedFrames == 1 || a.failedFrames%100 == 0 {
			appLog.Warn("frame composite failed", "err", err, "count", a.failedFrames)
		}
	}
	return false
}

// drain takes everything queued without blocking. A closed queue means
// the reader is gone and the kiosk goes inert.
func (a *App) drain() []model.Event {
	if a.events == nil {
		return nil
	}
	var out []model.Event
	for {
		select {
		case ev, ok := <-a.events:
			if !ok {
				appLog.Warn("touch queue closed, continuing without touch input")
				a.events = nil
				a.State.SetTouchAvailable(false)
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (a *App) execute(req model.ActionRequest) {
	appLog.Info("action confirmed", "action", req.Kind.String())
	if a.Executor != nil {
		a.Executor.Execute(req)
	}
}
