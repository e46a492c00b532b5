//go:build !linux

package touch

import "os"

// openDevice opens path for reading. There is no evdev outside Linux, so
// grab is ignored; this keeps recorded event streams replayable on
// development machines.
func openDevice(path string, _ bool) (Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}
