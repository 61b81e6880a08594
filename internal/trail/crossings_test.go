package trail

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
)

func TestFindAngleCrossings(t *testing.T) {
	times := dailyTimes(5)

	tests := []struct {
		name     string
		values   []float64
		target   float64
		wantDays []float64
	}{
		{"rising through zero", degs(-20, -10, 10, 20, 30), 0, []float64{1.5}},
		{"sample on target", degs(-10, 0, 10, 20, 30), 0, []float64{1, 1}},
		{"wraps past 360", degs(340, 350, 5, 15, 25), 0, []float64{1 + 10.0/15}},
		{"opposition", degs(170, 175, 185, 190, 200), math.Pi, []float64{1.5}},
		{"no crossing", degs(10, 20, 30, 40, 50), 0, nil},
		{"flat", degs(10, 10, 10, 10, 10), 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindAngleCrossings(times, tt.values, tt.target)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.wantDays) {
				t.Fatalf("got %v, want %d crossings", got, len(tt.wantDays))
			}
			for i, days := range tt.wantDays {
				want := times[0].Add(astro.DaysToDuration(days))
				if diff := absDuration(got[i].Sub(want)); diff > time.Second {
					t.Errorf("crossing %d = %v, want %v", i, got[i], want)
				}
			}
		})
	}
}

func TestFindAngleCrossingsEdgeCases(t *testing.T) {
	if got, err := FindAngleCrossings(dailyTimes(1), degs(0), 0); err != nil || got != nil {
		t.Errorf("single sample = %v, %v", got, err)
	}
	if _, err := FindAngleCrossings(dailyTimes(2), degs(0), 0); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("error = %v, want ErrLengthMismatch", err)
	}
}

func TestUniqueTimes(t *testing.T) {
	base := time.Unix(0, 0).UTC()
	in := []time.Time{
		base.Add(10 * time.Hour),
		base,
		base.Add(time.Hour),
		base.Add(10 * time.Hour),
		base.Add(30 * time.Hour),
	}
	got := uniqueTimes(in, 9*time.Hour)
	want := []time.Time{base, base.Add(10 * time.Hour), base.Add(30 * time.Hour)}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(uniqueTimes(nil, time.Hour)) != 0 {
		t.Error("uniqueTimes(nil) not empty")
	}
}

func TestLocalMaxima(t *testing.T) {
	tests := []struct {
		in   []float64
		want []int
	}{
		{[]float64{1, 3, 2}, []int{1}},
		{[]float64{1, 3, 3, 2}, []int{1}},
		{[]float64{3, 2, 1}, nil},
		{[]float64{1, 2, 1, 2, 1}, []int{1, 3}},
		{[]float64{1}, nil},
	}
	for _, tt := range tests {
		got := localMaxima(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("localMaxima(%v) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("localMaxima(%v) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}
