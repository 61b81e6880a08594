package ui

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/ephem/ephemtest"
	"github.com/litescript/ls-synodic/internal/state"
	"github.com/litescript/ls-synodic/internal/trail"
)

// venusSnapshot swings Venus ±30° with an 8-day period around day 4, so the
// window holds stations at days 2 and 6.
func venusSnapshot(t *testing.T) state.Snapshot {
	t.Helper()
	p := &ephemtest.FuncProvider{
		Body: ephem.Venus,
		Lon: func(d float64) float64 {
			return astro.DegToRad(30) * math.Sin(2*math.Pi*d/8)
		},
		DistAU: 0.7,
	}
	a, err := trail.NewEngine(p).TrailAnalysis(ephem.Venus, epochDays(4), 4, 3, 0.03)
	if err != nil {
		t.Fatalf("TrailAnalysis() error = %v", err)
	}
	if len(a.Stations) != 2 {
		t.Fatalf("stations = %d, want 2", len(a.Stations))
	}
	return state.Snapshot{
		Body:        ephem.Venus,
		Instant:     epochDays(4),
		View:        &trail.View{Analysis: a},
		ViewBody:    ephem.Venus,
		ViewInstant: epochDays(4),
	}
}

func TestTrailModel_View(t *testing.T) {
	m := NewTrailModel().SetSize(100, 20).UpdateData(venusSnapshot(t))

	out := m.View()
	for _, want := range []string{"Venus longitude", "65 samples every 3h", "1970-01-01", "1970-01-09"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	if m.mode != PlotVelocity {
		t.Fatal("v should switch to velocity")
	}
	if out := m.View(); !strings.Contains(out, "Venus velocity") || !strings.Contains(out, "°/d") {
		t.Error("velocity title or unit missing")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	if m.mode != PlotLongitude {
		t.Error("second v should switch back")
	}
}

func TestTrailModel_RenderPlot(t *testing.T) {
	m := NewTrailModel().UpdateData(venusSnapshot(t))
	a := m.analysis()

	values, _ := m.series(a)
	lo, hi := seriesRange(values)
	if math.Abs(lo+30) > 0.01 || math.Abs(hi-30) > 0.01 {
		t.Errorf("range = [%.3f, %.3f], want ±30", lo, hi)
	}

	c := m.renderPlot(a, values, lo, hi, 60, 10)
	top := strings.Split(c.plain(), "\n")[0]
	if got := strings.Count(top, "S"); got != 2 {
		t.Errorf("station markers = %d, want 2 in %q", got, top)
	}
	// The session instant sits mid-window.
	if got := c.at(30, 5); got != '│' && got != '•' && got != '◦' {
		t.Errorf("instant column = %q", got)
	}

	m.mode = PlotVelocity
	values, _ = m.series(a)
	lo, hi = seriesRange(values)
	c = m.renderPlot(a, values, lo, hi, 60, 10)
	if !strings.Contains(c.plain(), "─") {
		t.Error("velocity plot should draw the zero line")
	}
}

func TestTrailModel_NoTrail(t *testing.T) {
	s := venusSnapshot(t)
	s.Body = ephem.Mars

	m := NewTrailModel().SetSize(100, 20).UpdateData(s)
	if got := m.View(); !strings.Contains(got, "no trail for Mars") {
		t.Errorf("View() = %q", got)
	}

	m = m.SetSize(20, 5)
	if got := m.View(); got != "Trail view requires larger terminal" {
		t.Errorf("View() = %q", got)
	}
}

func TestSeriesRange(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		lo, hi float64
	}{
		{"plain", []float64{3, -1, 2}, -1, 3},
		{"skips nan", []float64{math.NaN(), 5, 4}, 4, 5},
		{"skips inf", []float64{math.Inf(1), 1}, 1, 1},
		{"empty", nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := seriesRange(tt.values)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("seriesRange() = (%v, %v), want (%v, %v)", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}
