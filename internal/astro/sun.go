package astro

import (
	"math"
	"time"
)

// SunEcliptic calculates the apparent geocentric ecliptic longitude of the Sun
// (radians, [0, 2π)) and the Earth-Sun distance in AU.
// Uses a simplified solar ephemeris based on the Astronomical Almanac.
// Accuracy: ~0.01 degrees in longitude, sufficient for event timing at hour scale.
func SunEcliptic(t time.Time) (lonRad, distAU float64) {
	_, apparentLon, r := sunSeries(JulianCenturies(t))
	return WrapTo2Pi(DegToRad(apparentLon)), r
}

// SunGeometric returns the geometric (no aberration/nutation) geocentric
// position of the Sun in ecliptic coordinates, in AU.
func SunGeometric(t time.Time) Vec3 {
	trueLon, _, r := sunSeries(JulianCenturies(t))
	lon := DegToRad(trueLon)
	return Vec3{X: r * math.Cos(lon), Y: r * math.Sin(lon)}
}

// sunSeries returns the true and apparent longitude of the Sun in degrees
// and the radius vector in AU for T Julian centuries since J2000.
func sunSeries(T float64) (trueLon, apparentLon, r float64) {
	// Mean longitude of the Sun (degrees)
	L0 := normalizeAngle360(280.46646 + 36000.76983*T + 0.0003032*T*T)

	// Mean anomaly of the Sun (degrees)
	M := normalizeAngle360(357.52911 + 35999.05029*T - 0.0001537*T*T)
	Mrad := DegToRad(M)

	// Eccentricity of Earth's orbit
	e := 0.016708634 - 0.000042037*T - 0.0000001267*T*T

	// Sun's equation of center (degrees)
	C := (1.914602 - 0.004817*T - 0.000014*T*T) * math.Sin(Mrad)
	C += (0.019993 - 0.000101*T) * math.Sin(2*Mrad)
	C += 0.000289 * math.Sin(3*Mrad)

	trueLon = L0 + C
	v := DegToRad(M + C)

	r = (1.000001018 * (1 - e*e)) / (1 + e*math.Cos(v))

	// Apparent longitude (correcting for aberration and nutation)
	omega := 125.04 - 1934.136*T
	apparentLon = trueLon - 0.00569 - 0.00478*math.Sin(DegToRad(omega))

	return normalizeAngle360(trueLon), normalizeAngle360(apparentLon), r
}
