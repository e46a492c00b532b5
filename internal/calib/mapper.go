// Package calib turns raw digitizer readings into screen pixels.
package calib

import "tagtapper/internal/model"

// Map converts raw axis values into a clamped screen point using p.
// It is pure: identical inputs always yield the identical point.
func Map(rawX, rawY int, p model.CalibrationProfile) model.ScreenPoint {
	return model.ScreenPoint{
		X: scale(axisFraction(rawX, p.RawXMin, p.RawXMax), p.ScreenWidth),
		Y: scale(axisFraction(rawY, p.RawYMin, p.RawYMax), p.ScreenHeight),
	}
}

// axisFraction normalizes raw into [0,1]. A degenerate range is treated as
// a span of 1; an inverted range (max < min) flips the fraction so raw == min
// still maps to 0.
func axisFraction(raw, min, max int) float64 {
	span := max - min
	if span == 0 {
		span = 1
	}
	mag := span
	if mag < 0 {
		mag = -mag
	}
	f := float64(raw-min) / float64(mag)
	if span < 0 {
		f = -f
	}
	return clamp01(f)
}

func scale(f float64, dim int) int {
	if dim <= 1 {
		return 0
	}
	return int(f * float64(dim-1))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
