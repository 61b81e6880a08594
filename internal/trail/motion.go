package trail

import (
	"errors"
	"fmt"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
)

// ErrLengthMismatch reports parallel slices of different lengths.
var ErrLengthMismatch = errors.New("length mismatch")

// MotionKind classifies apparent motion along the ecliptic.
type MotionKind int

const (
	MotionDirect MotionKind = iota
	MotionRetrograde
	MotionStationary
)

func (m MotionKind) String() string {
	switch m {
	case MotionDirect:
		return "direct"
	case MotionRetrograde:
		return "retrograde"
	case MotionStationary:
		return "stationary"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name.
func (m MotionKind) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// StationKind is the direction a body turns to at a station.
type StationKind string

const (
	StationRetrograde StationKind = "station_retro"  // direct → retrograde
	StationDirect     StationKind = "station_direct" // retrograde → direct
)

// Station is an interpolated reversal of apparent motion.
type Station struct {
	Kind StationKind `json:"kind"`
	Time time.Time   `json:"time"`
}

// DerivativeDegPerDay estimates angular velocity at each sample: centered
// differences inside, one-sided at both ends. A zero time step yields 0.
func DerivativeDegPerDay(times []time.Time, lonUnwrappedRad []float64) ([]float64, error) {
	n := len(times)
	if len(lonUnwrappedRad) != n {
		return nil, fmt.Errorf("%w: %d times, %d longitudes", ErrLengthMismatch, n, len(lonUnwrappedRad))
	}
	out := make([]float64, n)
	if n < 2 {
		return out, nil
	}

	slope := func(i0, i1 int) float64 {
		dt := times[i1].Sub(times[i0])
		if dt == 0 {
			return 0
		}
		dLonDeg := astro.RadToDeg(lonUnwrappedRad[i1] - lonUnwrappedRad[i0])
		return dLonDeg / astro.DurationDays(dt)
	}

	out[0] = slope(0, 1)
	for i := 1; i < n-1; i++ {
		out[i] = slope(i-1, i+1)
	}
	out[n-1] = slope(n-2, n-1)
	return out, nil
}

// ClassifyMotion returns retrograde below -eps, direct above +eps, and
// stationary in between.
func ClassifyMotion(degPerDay, eps float64) MotionKind {
	switch {
	case degPerDay > eps:
		return MotionDirect
	case degPerDay < -eps:
		return MotionRetrograde
	default:
		return MotionStationary
	}
}

// heading is the last non-neutral direction seen and where.
type heading struct {
	dir int // +1 direct, -1 retrograde
	idx int
}

func direction(v, eps float64) int {
	switch {
	case v > eps:
		return 1
	case v < -eps:
		return -1
	default:
		return 0
	}
}

// DetectStations records a station wherever the velocity sign flips between
// two non-neutral samples. Samples within eps of zero are transitional and
// neither record nor reset the tracked direction. The instant is linearly
// interpolated on velocity between the bracketing samples.
func DetectStations(times []time.Time, degPerDay []float64, eps float64) ([]Station, error) {
	n := len(times)
	if len(degPerDay) != n {
		return nil, fmt.Errorf("%w: %d times, %d velocities", ErrLengthMismatch, n, len(degPerDay))
	}
	if n < 2 {
		return nil, nil
	}

	var out []Station
	var last *heading

	for i, v := range degPerDay {
		dir := direction(v, eps)
		if dir == 0 {
			continue
		}
		if last == nil || dir == last.dir {
			last = &heading{dir: dir, idx: i}
			continue
		}

		d0, d1 := degPerDay[last.idx], v
		frac := 0.5
		if d1 != d0 {
			frac = -d0 / (d1 - d0)
		}
		t0, t1 := times[last.idx], times[i]

		kind := StationDirect
		if last.dir > 0 {
			kind = StationRetrograde
		}
		out = append(out, Station{Kind: kind, Time: lerpTime(t0, t1, frac)})

		last = &heading{dir: dir, idx: i}
	}
	return out, nil
}

// lerpTime interpolates between two instants with the fraction clamped to [0, 1].
func lerpTime(t0, t1 time.Time, frac float64) time.Time {
	frac = clamp01(frac)
	return t0.Add(time.Duration(frac * float64(t1.Sub(t0))))
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
