// Package calibrate implements the interactive five-point touch
// calibration that rewrites the touch_calibration record.
package calibrate

import (
	"fmt"
	"math"

	"tagtapper/internal/config"
	"tagtapper/internal/model"
)

// Margin is the distance of the corner targets from the screen edges.
const Margin = 40

// Target is one on-screen calibration target.
type Target struct {
	X, Y  int
	Label string
}

// Targets returns the corner targets and the center in prompt order.
func Targets(w, h int) []Target {
	return []Target{
		{Margin, Margin, "1"},
		{w - Margin, Margin, "2"},
		{w / 2, h / 2, "3"},
		{Margin, h - Margin, "4"},
		{w - Margin, h - Margin, "5"},
	}
}

// Solve derives a profile from recorded points. Each axis is fitted with a
// least-squares line raw = a + b*screen and evaluated at the first and last
// pixel, so the margin targets map back onto themselves.
func Solve(points []config.CalibrationPoint, w, h int) (model.CalibrationProfile, error) {
	if len(points) < 2 {
		return model.CalibrationProfile{}, fmt.Errorf("calibrate: need at least 2 points, got %d", len(points))
	}
	xs := make([][2]float64, len(points))
	ys := make([][2]float64, len(points))
	for i, p := range points {
		xs[i] = [2]float64{float64(p.ScreenX), float64(p.RawX)}
		ys[i] = [2]float64{float64(p.ScreenY), float64(p.RawY)}
	}

	xmin, xmax, err := fitAxis(xs, w)
	if err != nil {
		return model.CalibrationProfile{}, fmt.Errorf("calibrate: x axis: %w", err)
	}
	ymin, ymax, err := fitAxis(ys, h)
	if err != nil {
		return model.CalibrationProfile{}, fmt.Errorf("calibrate: y axis: %w", err)
	}

	p := model.CalibrationProfile{
		RawXMin: xmin, RawXMax: xmax,
		RawYMin: ymin, RawYMax: ymax,
		ScreenWidth: w, ScreenHeight: h,
	}
	return p, p.Validate()
}

// fitAxis returns the raw values at screen 0 and screen dim-1.
func fitAxis(samples [][2]float64, dim int) (int, int, error) {
	var sx, sy, sxx, sxy float64
	n := float64(len(samples))
	for _, s := range samples {
		sx += s[0]
		sy += s[1]
		sxx += s[0] * s[0]
		sxy += s[0] * s[1]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, 0, model.ErrCalibrationDegenerate
	}
	b := (n*sxy - sx*sy) / den
	a := (sy - b*sx) / n
	if b == 0 {
		return 0, 0, model.ErrCalibrationDegenerate
	}
	lo := int(math.Round(a))
	hi := int(math.Round(a + b*float64(dim-1)))
	return lo, hi, nil
}
