package astro

// Elongation is the signed angular separation body − Sun in [-π, π).
// 0 means conjunction; ±π means opposition.
func Elongation(bodyLonRad, sunLonRad float64) float64 {
	return WrapToPi(bodyLonRad - sunLonRad)
}

// SynodicPhase is the elongation remapped to [0, 2π), 0 at conjunction.
func SynodicPhase(bodyLonRad, sunLonRad float64) float64 {
	return WrapTo2Pi(bodyLonRad - sunLonRad)
}
