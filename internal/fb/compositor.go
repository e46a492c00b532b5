package fb

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"tagtapper/internal/convert"
	appLog "tagtapper/internal/log"
	"tagtapper/internal/model"
)

// Region is writable device memory.
type Region interface {
	Bytes() []byte
	// Flush pushes pending writes to the device.
	Flush() error
	// Close unmaps the region and closes the device.
	Close() error
}

// Compositor writes whole frames into a Region. It does not double-buffer;
// each Composite overwrites the frame from offset 0.
type Compositor struct {
	geom   Geometry
	region Region
	device string

	mu     sync.Mutex
	closed bool
}

// Open maps device and returns a compositor sized from sysfs. Failures wrap
// model.ErrDeviceUnavailable.
func Open(device, sysfsRoot string) (*Compositor, error) {
	geom, err := ReadGeometry(sysfsRoot, device)
	if err != nil {
		appLog.Warn("framebuffer size unknown, using default", "device", device, "width", geom.Width, "height", geom.Height, "err", err)
	}

	region, err := mapDevice(device, convert.FrameSize(geom.Width, geom.Height))
	if err != nil {
		return nil, fmt.Errorf("fb: map %s: %w: %w", device, model.ErrDeviceUnavailable, err)
	}
	appLog.Info("framebuffer mapped", "device", device, "width", geom.Width, "height", geom.Height)
	return newCompositor(device, geom, region)
}

func newCompositor(device string, geom Geometry, region Region) (*Compositor, error) {
	if need := convert.FrameSize(geom.Width, geom.Height); len(region.Bytes()) < need {
		_ = region.Close()
		return nil, fmt.Errorf("fb: %s region holds %d bytes, need %d: %w", device, len(region.Bytes()), need, model.ErrDeviceUnavailable)
	}
	return &Compositor{geom: geom, region: region, device: device}, nil
}

// Geometry returns the native size.
func (c *Compositor) Geometry() Geometry { return c.geom }

// Composite rescales img if needed, converts it to RGB565 and writes it.
func (c *Compositor) Composite(img image.Image) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("fb: compositor closed")
	}
	frame := convert.Fit(img, c.geom.Width, c.geom.Height)
	return convert.PackRGB565(c.region.Bytes(), frame)
}

// Close flushes and unmaps. It is safe to call more than once.
func (c *Compositor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return errors.Join(c.region.Flush(), c.region.Close())
}
