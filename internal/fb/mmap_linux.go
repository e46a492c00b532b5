//go:build linux

package fb

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

type mmapRegion struct {
	f    *os.File
	data []byte
}

// mapDevice opens the framebuffer read/write and maps size bytes shared.
func mapDevice(device string, size int) (Region, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mmapRegion{f: f, data: data}, nil
}

func (r *mmapRegion) Bytes() []byte { return r.data }

func (r *mmapRegion) Flush() error {
	return unix.Msync(r.data, unix.MS_SYNC)
}

func (r *mmapRegion) Close() error {
	err := unix.Munmap(r.data)
	r.data = nil
	return errors.Join(err, r.f.Close())
}
