// Package astro provides angle math, time scales, and low-precision sky helpers
// used by the trail and event engine.
package astro

import "math"

// Tau is a full turn in radians.
const Tau = 2 * math.Pi

// WrapTo2Pi normalizes an angle into [0, 2π).
func WrapTo2Pi(rad float64) float64 {
	x := math.Mod(rad, Tau)
	if x < 0 {
		x += Tau
	}
	// math.Mod can return Tau itself after the correction for tiny negatives.
	if x >= Tau {
		x -= Tau
	}
	return x
}

// WrapToPi normalizes an angle into [-π, π). Used for signed differences.
func WrapToPi(rad float64) float64 {
	x := math.Mod(rad+math.Pi, Tau)
	if x < 0 {
		x += Tau
	}
	if x >= Tau {
		x -= Tau
	}
	return x - math.Pi
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// UnwrapRadians removes artificial 2π jumps from a sequence of angles.
// Consecutive differences are folded into (-π, π] and accumulated, so the
// output winds continuously. The first element passes through unchanged.
// A non-finite difference yields NaN from that point on.
func UnwrapRadians(lons []float64) []float64 {
	if len(lons) == 0 {
		return []float64{}
	}

	out := make([]float64, len(lons))
	out[0] = lons[0]
	for i := 1; i < len(lons); i++ {
		d := math.Remainder(lons[i]-lons[i-1], Tau)
		if d <= -math.Pi {
			d += Tau
		}
		out[i] = out[i-1] + d
	}
	return out
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
