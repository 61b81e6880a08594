package astro

// DistanceRange is the approximate span of a body's geocentric distance.
type DistanceRange struct {
	MinAU float64
	MaxAU float64
}

// Closeness maps a distance to [0, 1]: 1 at perigee, 0 at apogee.
// An empty or inverted range yields 0.
func (r DistanceRange) Closeness(distAU float64) float64 {
	denom := r.MaxAU - r.MinAU
	if denom <= 0 {
		return 0
	}
	raw := (r.MaxAU - distAU) / denom
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}
