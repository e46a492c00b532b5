//go:build linux

package touch

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// eviocgrab is _IOW('E', 0x90, int).
const eviocgrab = 0x40044590

// openDevice opens an evdev node for reading and optionally grabs it.
// The descriptor is touched through SyscallConn so the file stays in
// non-blocking mode and read deadlines keep working.
func openDevice(path string, grab bool) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	if !grab {
		return f, nil
	}

	rc, err := f.SyscallConn()
	if err != nil {
		f.Close()
		return nil, err
	}
	var ioctlErr error
	if err := rc.Control(func(fd uintptr) {
		ioctlErr = unix.IoctlSetInt(int(fd), eviocgrab, 1)
	}); err != nil {
		f.Close()
		return nil, err
	}
	if ioctlErr != nil {
		f.Close()
		return nil, fmt.Errorf("EVIOCGRAB: %w", ioctlErr)
	}
	return f, nil
}
