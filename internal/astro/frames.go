package astro

import "math"

// AU is the Astronomical Unit in kilometers.
const AU = 149597870.7

// Vec3 represents a 3D vector in any reference frame.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale returns the vector scaled by a factor.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{X: v.X + u.X, Y: v.Y + u.Y, Z: v.Z + u.Z}
}

// EclipticLonLat returns the ecliptic longitude in [0, 2π), the latitude in
// [-π/2, π/2], and the length of an ecliptic vector.
func EclipticLonLat(v Vec3) (lonRad, latRad, r float64) {
	r = v.Norm()
	if r == 0 {
		return 0, 0, 0
	}
	lonRad = WrapTo2Pi(math.Atan2(v.Y, v.X))
	latRad = math.Asin(v.Z / r)
	return lonRad, latRad, r
}

// EclipticUnit returns the unit vector for an ecliptic longitude/latitude.
func EclipticUnit(lonRad, latRad float64) Vec3 {
	cosB := math.Cos(latRad)
	return Vec3{
		X: cosB * math.Cos(lonRad),
		Y: cosB * math.Sin(lonRad),
		Z: math.Sin(latRad),
	}
}

// KmToAU converts kilometers to Astronomical Units.
func KmToAU(km float64) float64 {
	return km / AU
}

// LightTimeFromAU returns the one-way light time in seconds for a distance in AU.
func LightTimeFromAU(au float64) float64 {
	// Light travels 1 AU in ~499.005 seconds
	return au * 499.005
}
