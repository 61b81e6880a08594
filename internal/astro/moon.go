package astro

import (
	"math"
	"time"
)

// MeanLunarNode returns the mean longitude of the Moon's ascending node (Meeus),
// in radians within [0, 2π).
func MeanLunarNode(t time.Time) float64 {
	T := JulianCenturies(t)
	lonDeg := 125.04452 -
		1934.136261*T +
		0.0020708*T*T +
		T*T*T/450000
	return WrapTo2Pi(DegToRad(lonDeg))
}

// MoonIllumination approximates the illuminated fraction of the Moon from its
// elongation: 0 at new Moon, 1 at full.
func MoonIllumination(elongationRad float64) float64 {
	raw := 0.5 * (1 - math.Cos(elongationRad))
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	return math.Min(1, math.Max(0, raw))
}
