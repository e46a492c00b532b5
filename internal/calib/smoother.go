package calib

import "tagtapper/internal/model"

// DefaultDepth is the number of points averaged by a Smoother.
const DefaultDepth = 4

// Smoother is a fixed-depth moving average over mapped points. It damps
// single-sample digitizer jitter. Not safe for concurrent use; it belongs to
// the main loop.
type Smoother struct {
	buf  []model.ScreenPoint
	next int
	n    int
}

// NewSmoother returns a smoother averaging the last depth points.
// depth <= 0 selects DefaultDepth.
func NewSmoother(depth int) *Smoother {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Smoother{buf: make([]model.ScreenPoint, depth)}
}

// Add buffers p and returns the truncated mean of all buffered points.
func (s *Smoother) Add(p model.ScreenPoint) model.ScreenPoint {
	s.buf[s.next] = p
	s.next = (s.next + 1) % len(s.buf)
	if s.n < len(s.buf) {
		s.n++
	}

	var sx, sy int
	for i := 0; i < s.n; i++ {
		sx += s.buf[i].X
		sy += s.buf[i].Y
	}
	return model.ScreenPoint{X: sx / s.n, Y: sy / s.n}
}

// Len reports how many points are buffered.
func (s *Smoother) Len() int { return s.n }

// Reset drops all buffered points. Called when a press/release cycle ends.
func (s *Smoother) Reset() {
	s.n = 0
	s.next = 0
}
