// Package backlight switches the panel backlight through a GPIO using
// periph.io. A zero-config Backlight is a no-op so callers never branch.
package backlight

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Backlight drives one output pin. Close switches it off and is idempotent,
// so it doubles as the display context released before a system action.
type Backlight struct {
	pin       gpio.PinOut
	activeLow bool

	mu     sync.Mutex
	closed bool
}

// Open initializes periph and resolves pinName (e.g. "GPIO18"). An empty
// name returns a no-op Backlight.
func Open(pinName string, activeLow bool) (*Backlight, error) {
	if pinName == "" {
		return &Backlight{}, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("backlight: periph host init failed: %w", err)
	}
	p := gpioreg.ByName(pinName)
	if p == nil {
		return nil, fmt.Errorf("backlight: gpio %s not found", pinName)
	}
	return &Backlight{pin: p, activeLow: activeLow}, nil
}

// newWithPin is used by tests with a fake pin.
func newWithPin(p gpio.PinOut, activeLow bool) *Backlight {
	return &Backlight{pin: p, activeLow: activeLow}
}

// Set turns the light on or off.
func (b *Backlight) Set(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pin == nil || b.closed {
		return nil
	}
	return b.write(on)
}

func (b *Backlight) write(on bool) error {
	level := gpio.Level(on)
	if b.activeLow {
		level = !level
	}
	if err := b.pin.Out(level); err != nil {
		return fmt.Errorf("backlight: %s: %w", b.pin.Name(), err)
	}
	return nil
}

// Close switches the light off; further Set calls do nothing.
func (b *Backlight) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pin == nil || b.closed {
		return nil
	}
	b.closed = true
	return b.write(false)
}
