package trail

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/ephem/ephemtest"
)

func TestSampleTimes(t *testing.T) {
	center := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		windowDays float64
		stepHours  float64
		wantLen    int
		wantErr    bool
	}{
		{"one day hourly", 1, 1, 49, false},
		{"two days half-daily", 2, 12, 9, false},
		{"zero window", 0, 6, 1, false},
		{"uneven step", 1, 7, 8, false},
		{"zero step", 1, 0, 0, true},
		{"negative step", 1, -2, 0, true},
		{"negative window", -1, 1, 0, true},
		{"NaN window", math.NaN(), 1, 0, true},
		{"infinite window", math.Inf(1), 1, 0, true},
		{"wide window coarse step", 50000, 240, 10001, false},
		{"window past duration range", 60000, 24, 0, true},
		{"window far past duration range", 200000, 24, 0, true},
		{"step past duration range", 1, 1e13, 0, true},
		{"too many samples", 1000, 0.001, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times, err := SampleTimes(center, tt.windowDays, tt.stepHours)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGrid) {
					t.Fatalf("SampleTimes() error = %v, want ErrInvalidGrid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SampleTimes() error = %v", err)
			}
			if len(times) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(times), tt.wantLen)
			}
			wantStart := center.Add(-time.Duration(tt.windowDays * 24 * float64(time.Hour)))
			if !times[0].Equal(wantStart) {
				t.Errorf("first = %v, want %v", times[0], wantStart)
			}
			for i := 1; i < len(times); i++ {
				if got := times[i].Sub(times[i-1]); got != time.Duration(tt.stepHours*float64(time.Hour)) {
					t.Fatalf("step %d = %v", i, got)
				}
			}
		})
	}
}

func TestSampleTimesWideWindowSpan(t *testing.T) {
	center := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	times, err := SampleTimes(center, 50000, 240)
	if err != nil {
		t.Fatal(err)
	}
	span := 50000 * 24 * time.Hour
	if first := times[0]; !first.Equal(center.Add(-span)) {
		t.Errorf("first = %v, want center-%v", first, span)
	}
	if last := times[len(times)-1]; !last.Equal(center.Add(span)) {
		t.Errorf("last = %v, want center+%v", last, span)
	}
}

func TestSampleTimesEndsAtWindowEdge(t *testing.T) {
	center := time.Unix(0, 0).UTC()
	times, err := SampleTimes(center, 2, 12)
	if err != nil {
		t.Fatal(err)
	}
	if last := times[len(times)-1]; !last.Equal(center.Add(48 * time.Hour)) {
		t.Errorf("last = %v, want center+48h", last)
	}
}

func TestSampleStates(t *testing.T) {
	base := ephemtest.NewLinear(ephem.Mars, 0.01, 1.5)
	times, _ := SampleTimes(time.Unix(0, 0), 1, 6)

	t.Run("complete", func(t *testing.T) {
		states, err := SampleStates(base, ephem.Mars, times)
		if err != nil {
			t.Fatalf("SampleStates() error = %v", err)
		}
		if len(states) != len(times) {
			t.Fatalf("len = %d, want %d", len(states), len(times))
		}
		for i, s := range states {
			if !s.Time.Equal(times[i]) {
				t.Errorf("states[%d].Time = %v, want %v", i, s.Time, times[i])
			}
		}
	})

	t.Run("gap aborts", func(t *testing.T) {
		gapAt := times[3]
		p := &ephemtest.GapProvider{
			Inner: base,
			Gaps:  func(_ ephem.Body, t time.Time) bool { return t.Equal(gapAt) },
		}
		states, err := SampleStates(p, ephem.Mars, times)
		if states != nil {
			t.Errorf("states = %d entries, want nil", len(states))
		}
		var se *SampleError
		if !errors.As(err, &se) {
			t.Fatalf("error = %v, want *SampleError", err)
		}
		if !se.Time.Equal(gapAt) || se.Body != ephem.Mars {
			t.Errorf("SampleError = %+v", se)
		}
		if !errors.Is(err, ephem.ErrNoData) {
			t.Errorf("error does not wrap ErrNoData: %v", err)
		}
	})
}
