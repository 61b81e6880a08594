package astro

import "testing"

func TestZodiacIndex(t *testing.T) {
	tests := []struct {
		deg  float64
		want int
	}{
		{0, 0},
		{29.9, 0},
		{30.1, 1},
		{125, 4},
		{359.9, 11},
		{-10, 11},
		{370, 0},
	}

	for _, tt := range tests {
		if got := ZodiacIndex(DegToRad(tt.deg)); got != tt.want {
			t.Errorf("ZodiacIndex(%v°) = %d, want %d", tt.deg, got, tt.want)
		}
	}
}

func TestFormatZodiacPosition(t *testing.T) {
	tests := []struct {
		name string
		deg  float64
		want string
	}{
		{"start of aries", 0, "0°00' ♈"},
		{"leo", 125.5, "5°30' ♌"},
		{"pisces", 345.25, "15°15' ♓"},
		{"rounds into next sign", 59.9999, "0°00' ♊"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatZodiacPosition(DegToRad(tt.deg)); got != tt.want {
				t.Errorf("FormatZodiacPosition(%v°) = %q, want %q", tt.deg, got, tt.want)
			}
		})
	}
}

func TestFormatSignedDegrees(t *testing.T) {
	tests := []struct {
		deg    float64
		digits int
		want   string
	}{
		{12.34, 1, "+12.3°"},
		{-47.5, 0, "−48°"},
		{0, 2, "+0.00°"},
	}

	for _, tt := range tests {
		if got := FormatSignedDegrees(tt.deg, tt.digits); got != tt.want {
			t.Errorf("FormatSignedDegrees(%v, %d) = %q, want %q", tt.deg, tt.digits, got, tt.want)
		}
	}
}
