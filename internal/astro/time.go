package astro

import (
	"math"
	"time"
)

// Day is the length of a civil day.
const Day = 24 * time.Hour

// J2000 is the Julian Date of the J2000.0 epoch.
const J2000 = 2451545.0

// JulianDate calculates the Julian Date for a given time.
func JulianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	// Time of day as fraction
	h := float64(t.Hour())
	min := float64(t.Minute())
	sec := float64(t.Second())
	ns := float64(t.Nanosecond())

	dayFrac := (h + min/60 + sec/3600 + ns/3600e9) / 24.0

	// Adjust for January/February (treat as months 13/14 of previous year)
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + B - 1524.5
}

// JulianCenturies returns Julian centuries since J2000.0 (UTC, no ΔT).
func JulianCenturies(t time.Time) float64 {
	return (JulianDate(t) - J2000) / 36525.0
}

// DaysToDuration converts fractional days to a Duration.
func DaysToDuration(days float64) time.Duration {
	return time.Duration(days * float64(Day))
}

// HoursToDuration converts fractional hours to a Duration.
func HoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

// DurationDays expresses a Duration in fractional days.
func DurationDays(d time.Duration) float64 {
	return float64(d) / float64(Day)
}
