package ephem

import (
	"math"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
)

// Mean geocentric distance of the Moon, used for the lunar node.
const meanLunarDistanceAU = 0.00257

// General precession in longitude, degrees per Julian century.
const precessionDegPerCentury = 1.396971

// keplerElements holds J2000 mean orbital elements and their rates per
// Julian century: a (AU), e, I, L, ϖ (longitude of perihelion), Ω (degrees).
type keplerElements struct {
	a, aRate       float64
	e, eRate       float64
	i, iRate       float64
	l, lRate       float64
	peri, periRate float64
	node, nodeRate float64
}

// Approximate planetary elements valid 1800-2050 (Standish, JPL).
var planetElements = map[Body]keplerElements{
	Mercury: {0.38709927, 0.00000037, 0.20563593, 0.00001906, 7.00497902, -0.00594749,
		252.25032350, 149472.67411175, 77.45779628, 0.16047689, 48.33076593, -0.12534081},
	Venus: {0.72333566, 0.00000390, 0.00677672, -0.00004107, 3.39467605, -0.00078890,
		181.97909950, 58517.81538729, 131.60246718, 0.00268329, 76.67984255, -0.27769418},
	Mars: {1.52371034, 0.00001847, 0.09339410, 0.00007882, 1.84969142, -0.00813131,
		-4.55343205, 19140.30268499, -23.94362959, 0.44441088, 49.55953891, -0.29257343},
	Jupiter: {5.20288700, -0.00011607, 0.04838624, -0.00013253, 1.30439695, -0.00183714,
		34.39644051, 3034.74612775, 14.72847983, 0.21252668, 100.47390909, 0.20469106},
	Saturn: {9.53667594, -0.00125060, 0.05386179, -0.00050991, 2.48599187, 0.00193609,
		49.95424423, 1222.49362201, 92.59887831, -0.41897216, 113.66242448, -0.28867794},
	Uranus: {19.18916464, -0.00196176, 0.04725744, -0.00004397, 0.77263783, -0.00242939,
		313.23810451, 428.48202785, 170.95427630, 0.40805281, 74.01692503, 0.04240589},
	Neptune: {30.06992276, 0.00026291, 0.00859048, 0.00005105, 1.77004347, 0.00035372,
		-55.12002969, 218.45945325, 44.96476227, -0.32241464, 131.78422574, -0.00508664},
	Pluto: {39.48211675, -0.00031596, 0.24882730, 0.00005170, 17.14001206, 0.00004818,
		238.92903833, 145.20780515, 224.06891629, -0.04062942, 110.30393684, -0.01183482},
}

// AnalyticProvider computes low-precision geocentric states offline.
// Planets use Keplerian mean elements, the Sun and Moon use almanac series.
// Accuracy is a few arcminutes for the Sun and planets and roughly 0.3° for
// the Moon: ample for day-scale event timing. Safe for concurrent use.
type AnalyticProvider struct{}

// NewAnalyticProvider creates an analytic provider.
func NewAnalyticProvider() *AnalyticProvider {
	return &AnalyticProvider{}
}

// Name implements Provider.
func (p *AnalyticProvider) Name() string {
	return "Analytic"
}

// State implements Provider.
func (p *AnalyticProvider) State(body Body, t time.Time) (State, error) {
	s := State{Body: body, Time: t}

	switch body {
	case Sun:
		s.LonRad, s.DistAU = astro.SunEcliptic(t)
	case Moon:
		s.LonRad, s.LatRad, s.DistAU = moonPosition(t)
	case MeanNode:
		s.LonRad = astro.MeanLunarNode(t)
		s.DistAU = meanLunarDistanceAU
	default:
		el, ok := planetElements[body]
		if !ok {
			return State{}, noData(body, t, "not covered by analytic series")
		}
		geo := heliocentric(el, t).Add(astro.SunGeometric(t))
		s.LonRad, s.LatRad, s.DistAU = astro.EclipticLonLat(geo)
	}

	return s, nil
}

// heliocentric returns the heliocentric ecliptic position of a planet in AU,
// referred to the ecliptic and equinox of date.
func heliocentric(el keplerElements, t time.Time) astro.Vec3 {
	T := astro.JulianCenturies(t)

	a := el.a + el.aRate*T
	e := el.e + el.eRate*T
	inc := astro.DegToRad(el.i + el.iRate*T)
	L := el.l + el.lRate*T
	peri := el.peri + el.periRate*T
	node := astro.DegToRad(el.node + el.nodeRate*T)

	argPeri := astro.DegToRad(peri) - node
	M := astro.WrapToPi(astro.DegToRad(L - peri))
	E := solveKepler(M, e)

	// Position in the orbital plane
	xp := a * (math.Cos(E) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(E)

	cw, sw := math.Cos(argPeri), math.Sin(argPeri)
	cn, sn := math.Cos(node), math.Sin(node)
	ci, si := math.Cos(inc), math.Sin(inc)

	j2000 := astro.Vec3{
		X: (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp,
		Y: (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp,
		Z: (sw*si)*xp + (cw*si)*yp,
	}

	// Precess J2000 longitude to the equinox of date so it matches the Sun series.
	lon, lat, r := astro.EclipticLonLat(j2000)
	lon += astro.DegToRad(precessionDegPerCentury * T)
	return astro.EclipticUnit(lon, lat).Scale(r)
}

// solveKepler solves M = E - e·sin(E) for E by Newton iteration.
func solveKepler(M, e float64) float64 {
	E := M
	if e > 0.8 {
		E = math.Pi
	}
	for i := 0; i < 30; i++ {
		dE := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	return E
}

// moonPosition returns the Moon's geocentric ecliptic longitude, latitude
// (radians), and distance (AU) from the Astronomical Almanac low-precision series.
func moonPosition(t time.Time) (lon, lat, dist float64) {
	T := astro.JulianCenturies(t)
	sin := func(deg float64) float64 { return math.Sin(astro.DegToRad(deg)) }
	cos := func(deg float64) float64 { return math.Cos(astro.DegToRad(deg)) }

	lonDeg := 218.32 + 481267.881*T +
		6.29*sin(135.0+477198.87*T) -
		1.27*sin(259.3-413335.36*T) +
		0.66*sin(235.7+890534.22*T) +
		0.21*sin(269.9+954397.74*T) -
		0.19*sin(357.5+35999.05*T) -
		0.11*sin(186.5+966404.03*T)

	latDeg := 5.13*sin(93.3+483202.02*T) +
		0.28*sin(228.2+960400.89*T) -
		0.28*sin(318.3+6003.15*T) -
		0.17*sin(217.6-407332.21*T)

	parallaxDeg := 0.9508 +
		0.0518*cos(135.0+477198.87*T) +
		0.0095*cos(259.3-413335.36*T) +
		0.0078*cos(235.7+890534.22*T) +
		0.0028*cos(269.9+954397.74*T)

	// Earth equatorial radius over sin(parallax), km → AU
	distKm := 6378.14 / sin(parallaxDeg)

	return astro.WrapTo2Pi(astro.DegToRad(lonDeg)), astro.DegToRad(latDeg), astro.KmToAU(distKm)
}
