//go:build !linux

package fb

import "errors"

func mapDevice(string, int) (Region, error) {
	return nil, errors.New("framebuffer mapping is only available on linux")
}
