// Package touch reads raw events from a touch digitizer and turns them into
// normalized position/button events on a bounded queue.
package touch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	appLog "tagtapper/internal/log"
	"tagtapper/internal/model"
)

// pollInterval bounds how long a single device read may block before the
// stop flag is checked again.
const pollInterval = 100 * time.Millisecond

// Device is what the reader needs from an opened input device. *os.File
// satisfies it.
type Device interface {
	io.ReadCloser
	SetReadDeadline(t time.Time) error
}

// Options configure a Reader.
type Options struct {
	// Grab requests exclusive access to the device (EVIOCGRAB).
	Grab bool
	// Retries is the number of extra open attempts after the first failure.
	Retries int
	// RetryDelay is the initial delay between open attempts; it grows by
	// 1.7x per attempt.
	RetryDelay time.Duration
	// QueueSize bounds the event queue. Defaults to 256.
	QueueSize int
	// RecordSize overrides the input_event size (16 or 24 bytes).
	RecordSize int
}

// Reader owns the background goroutine that reads the device. The main loop
// only ever receives from Events.
type Reader struct {
	path string
	opts Options
	open func(path string, grab bool) (Device, error)

	events chan model.Event

	stop     chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	started  atomic.Bool
	done     chan struct{}

	dropped   atomic.Uint64
	malformed atomic.Uint64
}

// NewReader prepares a reader for the device at path. Nothing is opened
// until Start.
func NewReader(path string, opts Options) *Reader {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	return &Reader{
		path:   path,
		opts:   opts,
		open:   openDevice,
		events: make(chan model.Event, opts.QueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Events is the consumer side of the queue. It is closed when the reader
// goroutine exits.
func (r *Reader) Events() <-chan model.Event { return r.events }

// Dropped reports how many position events were discarded because the
// queue was full.
func (r *Reader) Dropped() uint64 { return r.dropped.Load() }

// Malformed reports how many records were discarded as malformed.
func (r *Reader) Malformed() uint64 { return r.malformed.Load() }

// Start opens the device, retrying with backoff, and launches the read loop.
// On failure the returned error wraps model.ErrDeviceUnavailable and the
// reader stays inert.
func (r *Reader) Start() error {
	if !r.started.CompareAndSwap(false, true) {
		return errors.New("touch: reader already started")
	}

	dev, err := r.openWithRetry()
	if err != nil {
		close(r.done)
		close(r.events)
		return err
	}

	appLog.Info("touch device opened", "device", r.path, "grab", r.opts.Grab)
	go r.run(dev)
	return nil
}

func (r *Reader) openWithRetry() (Device, error) {
	delay := r.opts.RetryDelay
	for attempt := 0; ; attempt++ {
		dev, err := r.open(r.path, r.opts.Grab)
		if err == nil {
			return dev, nil
		}
		if attempt >= r.opts.Retries {
			return nil, fmt.Errorf("touch: open %s: %w: %w", r.path, model.ErrDeviceUnavailable, err)
		}
		appLog.Warn("touch device open failed, retrying", "device", r.path, "attempt", attempt+1, "delay", delay, "err", err)
		select {
		case <-time.After(delay):
		case <-r.stop:
			return nil, fmt.Errorf("touch: open %s: stopped: %w", r.path, model.ErrDeviceUnavailable)
		}
		delay = time.Duration(float64(delay) * 1.7)
	}
}

// Stop raises the stop flag and waits up to timeout for the read loop to
// exit. It reports whether the loop finished in time; shutdown proceeds
// either way.
func (r *Reader) Stop(timeout time.Duration) bool {
	r.stopOnce.Do(func() {
		r.stopped.Store(true)
		close(r.stop)
	})
	if !r.started.Load() {
		return true
	}
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		appLog.Warn("touch reader did not stop in time", "timeout", timeout)
		return false
	}
}

func (r *Reader) run(dev Device) {
	defer close(r.done)
	defer close(r.events)
	defer dev.Close()

	dec := NewDecoder(r.opts.RecordSize)
	var sample RawSample
	emit := func(rec Record) {
		if ev, ok := sample.Apply(rec); ok {
			r.push(ev)
		}
	}

	buf := make([]byte, dec.Size()*64)
	for !r.stopped.Load() {
		// Files without poller support (replays, some devices) reject
		// deadlines; those reads simply block.
		_ = dev.SetReadDeadline(time.Now().Add(pollInterval))

		n, err := dev.Read(buf)
		if n > 0 {
			if bad := dec.Feed(buf[:n], emit); bad > 0 {
				r.malformed.Add(uint64(bad))
				appLog.Debug("discarded malformed touch records", "count", bad)
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			continue
		}
		if partial := dec.Discard(); partial > 0 {
			r.malformed.Add(1)
			appLog.Debug("discarded partial touch record", "bytes", partial)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
			appLog.Info("touch device closed", "device", r.path)
		} else {
			appLog.Error("touch device read failed", err, "device", r.path)
		}
		return
	}
}

// push never blocks on position events: when the queue is full they are
// dropped. Button events wait for room so a release is never lost, but give
// up when the reader is stopped.
func (r *Reader) push(ev model.Event) {
	if ev.Kind == model.EventPosition {
		select {
		case r.events <- ev:
		default:
			r.dropped.Add(1)
		}
		return
	}
	select {
	case r.events <- ev:
	case <-r.stop:
	}
}
