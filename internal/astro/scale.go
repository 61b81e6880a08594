package astro

import (
	"errors"
	"fmt"
)

// ErrBreakpoints reports an invalid piecewise-linear breakpoint table.
var ErrBreakpoints = errors.New("invalid breakpoints")

// Default distance breakpoints: geocentric AU → display radius.
// The second break keeps the Moon off the Earth marker.
var (
	DefaultAUBreaks     = []float64{0.0, 0.0035, 2.0, 4.0, 11.0, 40.0}
	DefaultRadiusBreaks = []float64{0.0, 1.8, 6.0, 8.0, 11.0, 14.0}
)

// DefaultRadiusScale maps geocentric distance (AU) to chart radius.
var DefaultRadiusScale = MustRadiusScale(DefaultAUBreaks, DefaultRadiusBreaks)

// RadiusScale is a validated piecewise-linear mapping.
type RadiusScale struct {
	xs []float64
	ys []float64
}

// NewRadiusScale validates and copies a breakpoint table.
// xs must be non-decreasing and the same length as ys, with at least two points.
func NewRadiusScale(xs, ys []float64) (RadiusScale, error) {
	if len(xs) != len(ys) {
		return RadiusScale{}, fmt.Errorf("%w: %d x breaks, %d y breaks", ErrBreakpoints, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return RadiusScale{}, fmt.Errorf("%w: need at least 2 points", ErrBreakpoints)
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			return RadiusScale{}, fmt.Errorf("%w: x breaks decrease at index %d", ErrBreakpoints, i)
		}
	}
	s := RadiusScale{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}
	return s, nil
}

// MustRadiusScale is NewRadiusScale for package-level tables; it panics on error.
func MustRadiusScale(xs, ys []float64) RadiusScale {
	s, err := NewRadiusScale(xs, ys)
	if err != nil {
		panic(err)
	}
	return s
}

// Map evaluates the scale at x, clamping outside the breakpoint range.
func (s RadiusScale) Map(x float64) float64 {
	last := len(s.xs) - 1
	if last < 1 {
		return 0
	}
	if x <= s.xs[0] {
		return s.ys[0]
	}
	if x >= s.xs[last] {
		return s.ys[last]
	}

	i := 0
	for i < last-1 && x > s.xs[i+1] {
		i++
	}

	x0, x1 := s.xs[i], s.xs[i+1]
	y0, y1 := s.ys[i], s.ys[i+1]
	if x1 == x0 {
		return y1
	}
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}
