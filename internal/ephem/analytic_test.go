package ephem

import (
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
)

func elongationDeg(t *testing.T, p Provider, body Body, at time.Time) float64 {
	t.Helper()
	b, err := p.State(body, at)
	if err != nil {
		t.Fatalf("State(%s) error = %v", body, err)
	}
	s, err := p.State(Sun, at)
	if err != nil {
		t.Fatalf("State(sun) error = %v", err)
	}
	return astro.RadToDeg(astro.Elongation(b.LonRad, s.LonRad))
}

func TestAnalyticKnownEvents(t *testing.T) {
	p := NewAnalyticProvider()

	tests := []struct {
		name    string
		body    Body
		at      time.Time
		wantAbs float64 // expected |elongation|, degrees
		tol     float64
	}{
		{"Jupiter opposition 2024", Jupiter, time.Date(2024, 12, 8, 0, 0, 0, 0, time.UTC), 180, 3},
		{"Mars opposition 2025", Mars, time.Date(2025, 1, 16, 3, 0, 0, 0, time.UTC), 180, 3},
		{"Saturn conjunction 2025", Saturn, time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), 0, 2},
		{"Venus inferior conjunction 2025", Venus, time.Date(2025, 3, 23, 0, 0, 0, 0, time.UTC), 0, 2},
		{"new Moon January 2024", Moon, time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC), 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := math.Abs(elongationDeg(t, p, tt.body, tt.at))
			if math.Abs(got-tt.wantAbs) > tt.tol {
				t.Errorf("|elongation| = %.2f°, want %.0f° ± %.0f°", got, tt.wantAbs, tt.tol)
			}
		})
	}
}

func TestAnalyticDistancesWithinRanges(t *testing.T) {
	p := NewAnalyticProvider()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, info := range Bodies {
		if info.Body == MeanNode {
			continue
		}
		t.Run(string(info.Body), func(t *testing.T) {
			// Small slack: the ranges are display hints, not hard limits.
			lo, hi := info.Range.MinAU*0.97, info.Range.MaxAU*1.03
			for d := 0; d < 800; d += 5 {
				at := start.Add(time.Duration(d) * astro.Day)
				s, err := p.State(info.Body, at)
				if err != nil {
					t.Fatalf("State() error = %v", err)
				}
				if s.DistAU < lo || s.DistAU > hi {
					t.Fatalf("%s dist = %.5f AU, outside [%.5f, %.5f]", at.Format("2006-01-02"), s.DistAU, lo, hi)
				}
				if s.LonRad < 0 || s.LonRad >= astro.Tau {
					t.Fatalf("lon %v outside [0, 2π)", s.LonRad)
				}
				if s.Body != info.Body || !s.Time.Equal(at) {
					t.Fatalf("state not stamped with body/time: %+v", s)
				}
			}
		})
	}
}

func TestAnalyticInnerPlanetsStayNearSun(t *testing.T) {
	p := NewAnalyticProvider()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	limits := map[Body]float64{Mercury: 28.5, Venus: 48.0}
	for body, limit := range limits {
		for d := 0; d < 600; d += 2 {
			e := math.Abs(elongationDeg(t, p, body, start.Add(time.Duration(d)*astro.Day)))
			if e > limit {
				t.Errorf("%s elongation %.2f° exceeds %.1f° on day %d", body, e, limit, d)
				break
			}
		}
	}
}

func TestAnalyticSunAndNode(t *testing.T) {
	p := NewAnalyticProvider()
	at := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

	sun, err := p.State(Sun, at)
	if err != nil {
		t.Fatalf("State(sun) error = %v", err)
	}
	lon, dist := astro.SunEcliptic(at)
	if sun.LonRad != lon || sun.DistAU != dist || sun.LatRad != 0 {
		t.Errorf("sun state %+v does not match SunEcliptic", sun)
	}

	node, err := p.State(MeanNode, at)
	if err != nil {
		t.Fatalf("State(mean_node) error = %v", err)
	}
	if node.LonRad != astro.MeanLunarNode(at) || node.LatRad != 0 || node.DistAU != meanLunarDistanceAU {
		t.Errorf("node state %+v", node)
	}
}

func TestAnalyticUnknownBody(t *testing.T) {
	_, err := NewAnalyticProvider().State(Body("ceres"), time.Now())
	if err == nil {
		t.Fatal("expected error for unknown body")
	}
}

func TestSolveKepler(t *testing.T) {
	for _, e := range []float64{0, 0.1, 0.25, 0.9} {
		for _, M := range []float64{-3, -1, 0, 0.5, 2, 3.1} {
			E := solveKepler(M, e)
			if got := E - e*math.Sin(E); math.Abs(got-M) > 1e-10 {
				t.Errorf("solveKepler(%v, %v) residual %v", M, e, got-M)
			}
		}
	}
}
