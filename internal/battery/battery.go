// Package battery reads an optional I2C battery gauge (PiSugar style) for
// the header status. Reads happen off the main loop; the renderer only
// loads the last cached Status.
package battery

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	appLog "tagtapper/internal/log"
)

// Status is a single gauge reading.
type Status struct {
	// Percent is the battery level in 0–100%.
	Percent int
	// VoltageMv is the battery voltage in millivolts, if known.
	VoltageMv int
	// At is when the reading was taken.
	At time.Time
}

// Reader abstracts how we obtain battery information.
type Reader interface {
	Read(ctx context.Context) (Status, error)
}

// i2cReader talks to the gauge over I2C:
//   - 0x22 (high), 0x23 (low): battery voltage in millivolts
//   - 0x2A: battery percentage (0–100)
type i2cReader struct {
	busName string
	addr    uint16
}

// NewI2CReader constructs an I2C-backed Reader. busName "" selects the
// default bus (/dev/i2c-1 on a Raspberry Pi). The bus is opened per read.
func NewI2CReader(busName string, addr uint16) Reader {
	return &i2cReader{busName: busName, addr: addr}
}

var hostOnce = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// Read implements Reader.
func (r *i2cReader) Read(_ context.Context) (Status, error) {
	if runtime.GOOS != "linux" {
		return Status{}, errors.New("battery: i2c reader unavailable on this platform")
	}
	if err := hostOnce(); err != nil {
		return Status{}, err
	}

	bus, err := i2creg.Open(r.busName)
	if err != nil {
		return Status{}, err
	}
	defer bus.Close()

	return readGauge(&i2c.Dev{Bus: bus, Addr: r.addr})
}

// registers is the subset of i2c.Dev used by readGauge.
type registers interface {
	Tx(w, r []byte) error
}

func readGauge(dev registers) (Status, error) {
	readReg := func(reg byte) (byte, error) {
		buf := []byte{0}
		if err := dev.Tx([]byte{reg}, buf); err != nil {
			return 0, err
		}
		return buf[0], nil
	}

	high, err := readReg(0x22)
	if err != nil {
		return Status{}, err
	}
	low, err := readReg(0x23)
	if err != nil {
		return Status{}, err
	}
	pct, err := readReg(0x2A)
	if err != nil {
		return Status{}, err
	}
	if pct > 100 {
		pct = 100
	}
	return Status{
		Percent:   int(pct),
		VoltageMv: int(uint16(high)<<8 | uint16(low)),
		At:        time.Now(),
	}, nil
}

// Poller refreshes a cached Status at a fixed interval.
type Poller struct {
	reader   Reader
	interval time.Duration
	last     atomic.Pointer[Status]
}

// NewPoller returns a poller; call Run in its own goroutine.
func NewPoller(r Reader, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{reader: r, interval: interval}
}

// Latest returns the most recent reading, or nil if none succeeded yet.
func (p *Poller) Latest() *Status {
	if p == nil {
		return nil
	}
	return p.last.Load()
}

// Run polls until ctx is cancelled. Failures keep the previous reading.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	st, err := p.reader.Read(ctx)
	if err != nil {
		appLog.Debug("battery read failed", "err", err)
		return
	}
	p.last.Store(&st)
}
