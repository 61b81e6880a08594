package trail

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/ephem"
)

// ErrInvalidGrid reports a non-positive step, a negative window, or a grid
// too large to represent.
var ErrInvalidGrid = errors.New("invalid sample grid")

// MaxSamples bounds the number of instants in one grid.
const MaxSamples = 1 << 20

// maxSpan is the largest half-window or step in nanoseconds. Twice this
// still fits in a time.Duration.
const maxSpan = float64(math.MaxInt64 / 2)

// SampleError reports the first instant a provider could not supply while
// sampling. It wraps the provider error.
type SampleError struct {
	Body ephem.Body
	Time time.Time
	Err  error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %s at %s: %v", e.Body, e.Time.UTC().Format(time.RFC3339), e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }

// SampleTimes returns every instant from center-windowDays to
// center+windowDays, stepHours apart. The upper bound has half a step of
// tolerance so the final point survives rounding.
func SampleTimes(center time.Time, windowDays, stepHours float64) ([]time.Time, error) {
	if !(stepHours > 0) || !(windowDays >= 0) ||
		!(windowDays*float64(astro.Day) < maxSpan) || !(stepHours*float64(time.Hour) < maxSpan) {
		return nil, fmt.Errorf("%w: window %v days, step %v hours", ErrInvalidGrid, windowDays, stepHours)
	}
	step := astro.HoursToDuration(stepHours)
	if step <= 0 {
		return nil, fmt.Errorf("%w: step %v hours rounds to zero", ErrInvalidGrid, stepHours)
	}

	half := astro.DaysToDuration(windowDays)
	n := math.Floor(float64(2*half)/float64(step)) + 2
	if n > MaxSamples+1 {
		return nil, fmt.Errorf("%w: window %v days at %v hours exceeds %d samples", ErrInvalidGrid, windowDays, stepHours, MaxSamples)
	}
	start := center.Add(-half)
	end := center.Add(half).Add(step / 2)

	times := make([]time.Time, 0, int(n))
	for t := start; !t.After(end); t = t.Add(step) {
		times = append(times, t)
	}
	return times, nil
}

// SampleStates queries the provider once per instant, in order. The first
// miss aborts the whole call with a *SampleError; no partial results.
func SampleStates(p ephem.Provider, body ephem.Body, times []time.Time) ([]ephem.State, error) {
	out := make([]ephem.State, 0, len(times))
	for _, t := range times {
		s, err := p.State(body, t)
		if err != nil {
			return nil, &SampleError{Body: body, Time: t, Err: err}
		}
		out = append(out, s)
	}
	return out, nil
}
