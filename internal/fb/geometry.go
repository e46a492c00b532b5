// Package fb composites RGB frames into a memory-mapped RGB565 framebuffer.
package fb

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"tagtapper/internal/model"
)

// Geometry is the visible size of the framebuffer in pixels.
type Geometry struct {
	Width  int
	Height int
}

// DefaultGeometry is used when sysfs does not report a size.
var DefaultGeometry = Geometry{Width: model.DefaultScreenWidth, Height: model.DefaultScreenHeight}

var sizeRe = regexp.MustCompile(`(\d+)[x,](\d+)`)

// ReadGeometry discovers the size of device from sysfsRoot/<fbN>/virtual_size
// ("480,320") and falls back to the first line of modes ("U:480x320p-0").
// If neither yields a size, DefaultGeometry is returned with the last error.
func ReadGeometry(sysfsRoot, device string) (Geometry, error) {
	base := filepath.Join(sysfsRoot, filepath.Base(device))

	var lastErr error
	for _, name := range []string{"virtual_size", "modes"} {
		data, err := os.ReadFile(filepath.Join(base, name))
		if err != nil {
			lastErr = err
			continue
		}
		line, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
		g, err := parseSize(line)
		if err != nil {
			lastErr = fmt.Errorf("fb: %s: %w", name, err)
			continue
		}
		return g, nil
	}
	return DefaultGeometry, lastErr
}

func parseSize(s string) (Geometry, error) {
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return Geometry{}, fmt.Errorf("no size in %q", s)
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	if w <= 0 || h <= 0 {
		return Geometry{}, fmt.Errorf("invalid size %q", s)
	}
	return Geometry{Width: w, Height: h}, nil
}
