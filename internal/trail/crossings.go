package trail

import (
	"fmt"
	"sort"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
)

// FindAngleCrossings returns the interpolated instants where a circular
// series crosses target. Each value is compared as value-target wrapped to
// [-π, π); a sample sitting exactly on target is reported as is.
func FindAngleCrossings(times []time.Time, valuesRad []float64, targetRad float64) ([]time.Time, error) {
	n := len(times)
	if len(valuesRad) != n {
		return nil, fmt.Errorf("%w: %d times, %d values", ErrLengthMismatch, n, len(valuesRad))
	}
	if n < 2 {
		return nil, nil
	}

	delta := make([]float64, n)
	for i, v := range valuesRad {
		delta[i] = astro.WrapToPi(v - targetRad)
	}

	var out []time.Time
	for i := 0; i < n-1; i++ {
		d0, d1 := delta[i], delta[i+1]
		switch {
		case d0 == 0:
			out = append(out, times[i])
			continue
		case d0 == d1:
			continue
		case d0 > 0 && d1 > 0, d0 < 0 && d1 < 0:
			continue
		}
		out = append(out, lerpTime(times[i], times[i+1], -d0/(d1-d0)))
	}
	return out, nil
}

// uniqueTimes sorts instants and drops any closer than minSpacing to the
// previous kept one.
func uniqueTimes(times []time.Time, minSpacing time.Duration) []time.Time {
	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var out []time.Time
	for _, t := range sorted {
		if len(out) == 0 || absDuration(t.Sub(out[len(out)-1])) >= minSpacing {
			out = append(out, t)
		}
	}
	return out
}

// localMaxima returns indices strictly above the left neighbor and not
// below the right one. End points never qualify.
func localMaxima(values []float64) []int {
	var out []int
	for i := 1; i < len(values)-1; i++ {
		if values[i] > values[i-1] && values[i] >= values[i+1] {
			out = append(out, i)
		}
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
