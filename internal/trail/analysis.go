package trail

import (
	"fmt"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/ephem"
)

// StationState pairs a station with the body state at its instant.
type StationState struct {
	Station
	State ephem.State `json:"state"`
}

// Analysis is the motion summary of one body over a sample window.
type Analysis struct {
	Body          ephem.Body
	Center        time.Time
	WindowDays    float64
	StepHours     float64
	EpsDegPerDay  float64
	Current       ephem.State    // state at Center
	Samples       []ephem.State  // sample grid, ascending
	Velocities    []float64      // degrees/day per sample
	Motion        []MotionKind   // per sample
	Stations      []Station      // ascending
	StationStates []StationState // parallel to Stations
}

// Segment is a run of samples sharing one motion kind. Adjacent segments
// share their boundary sample so a drawn trail has no gaps.
type Segment struct {
	Kind  MotionKind `json:"kind"`
	Start int        `json:"start"` // first sample index
	End   int        `json:"end"`   // last sample index, inclusive
}

// TrailAnalysis samples body around center and derives velocity, motion,
// and stations. A provider miss at the center, at any sample, or at a
// station instant fails the whole call.
func (e *Engine) TrailAnalysis(body ephem.Body, center time.Time, windowDays, stepHours, eps float64) (*Analysis, error) {
	grid, center := gridKey(center, windowDays, stepHours)
	key := trailKey{body: body, timesKey: grid, eps: eps}

	return e.trails.GetOrCompute(key, func() (*Analysis, error) {
		current, err := e.provider.State(body, center)
		if err != nil {
			return nil, &SampleError{Body: body, Time: center, Err: err}
		}

		samples, err := e.BodySamples(body, center, windowDays, stepHours)
		if err != nil {
			return nil, err
		}

		times := make([]time.Time, len(samples))
		lons := make([]float64, len(samples))
		for i, s := range samples {
			times[i] = s.Time
			lons[i] = s.LonRad
		}

		velocities, err := DerivativeDegPerDay(times, astro.UnwrapRadians(lons))
		if err != nil {
			return nil, err
		}
		motion := make([]MotionKind, len(velocities))
		for i, v := range velocities {
			motion[i] = ClassifyMotion(v, eps)
		}

		stations, err := DetectStations(times, velocities, eps)
		if err != nil {
			return nil, err
		}
		stationStates := make([]StationState, 0, len(stations))
		for _, st := range stations {
			s, err := e.provider.State(body, st.Time)
			if err != nil {
				return nil, fmt.Errorf("station state: %w", &SampleError{Body: body, Time: st.Time, Err: err})
			}
			stationStates = append(stationStates, StationState{Station: st, State: s})
		}

		return &Analysis{
			Body:          body,
			Center:        center,
			WindowDays:    windowDays,
			StepHours:     stepHours,
			EpsDegPerDay:  eps,
			Current:       current,
			Samples:       samples,
			Velocities:    velocities,
			Motion:        motion,
			Stations:      stations,
			StationStates: stationStates,
		}, nil
	})
}

// Segments splits the samples into runs of equal motion. Each interval
// takes the kind of its first sample.
func (a *Analysis) Segments() []Segment {
	n := len(a.Samples)
	if n < 2 || len(a.Motion) != n {
		return nil
	}

	var out []Segment
	cur := Segment{Kind: a.Motion[0], Start: 0, End: 0}
	for i := 0; i < n-1; i++ {
		if k := a.Motion[i]; k != cur.Kind && cur.End > cur.Start {
			out = append(out, cur)
			cur = Segment{Kind: k, Start: i, End: i}
		}
		cur.End = i + 1
	}
	if cur.End > cur.Start {
		out = append(out, cur)
	}
	return out
}

// CurrentIndex returns the index of the sample nearest Center, or -1.
func (a *Analysis) CurrentIndex() int {
	best, bestDist := -1, time.Duration(-1)
	for i, s := range a.Samples {
		d := absDuration(s.Time.Sub(a.Center))
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// CurrentMotion classifies the motion at the sample nearest Center.
func (a *Analysis) CurrentMotion() (MotionKind, float64) {
	i := a.CurrentIndex()
	if i < 0 {
		return MotionStationary, 0
	}
	return a.Motion[i], a.Velocities[i]
}
