package astro

import (
	"errors"
	"math"
	"testing"
)

func TestNewRadiusScaleRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
	}{
		{"length mismatch", []float64{0, 1}, []float64{0}},
		{"single point", []float64{0}, []float64{1}},
		{"empty", nil, nil},
		{"decreasing", []float64{0, 2, 1}, []float64{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRadiusScale(tt.xs, tt.ys)
			if !errors.Is(err, ErrBreakpoints) {
				t.Errorf("NewRadiusScale() error = %v, want ErrBreakpoints", err)
			}
		})
	}
}

func TestRadiusScaleMap(t *testing.T) {
	s := DefaultRadiusScale

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"below domain", -1, 0},
		{"origin", 0, 0},
		{"moon break", 0.0035, 1.8},
		{"midpoint of second segment", (0.0035 + 2.0) / 2, 3.9},
		{"break 2", 2, 6},
		{"between 2 and 4", 3, 7},
		{"break 11", 11, 11},
		{"top break", 40, 14},
		{"above domain", 50, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Map(tt.x)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Map(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestRadiusScaleMonotone(t *testing.T) {
	s := DefaultRadiusScale
	prev := s.Map(-5)
	for x := -5.0; x <= 60; x += 0.05 {
		got := s.Map(x)
		if got < prev-1e-12 {
			t.Fatalf("Map(%v) = %v decreased from %v", x, got, prev)
		}
		prev = got
	}
}

func TestRadiusScaleCopiesInput(t *testing.T) {
	xs := []float64{0, 1}
	ys := []float64{0, 10}
	s, err := NewRadiusScale(xs, ys)
	if err != nil {
		t.Fatalf("NewRadiusScale() error = %v", err)
	}
	ys[1] = 100
	if got := s.Map(1); got != 10 {
		t.Errorf("Map(1) = %v after caller mutation, want 10", got)
	}
}
