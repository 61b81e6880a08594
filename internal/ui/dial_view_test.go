package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/report"
	"github.com/litescript/ls-synodic/internal/state"
)

func marsExport(phase, chartRadius float64) *report.ViewExport {
	return &report.ViewExport{
		Body:  ephem.Mars,
		Label: "Mars",
		Glyph: "♂",
		Current: report.PositionExport{
			PhaseDeg:      phase,
			ElongationDeg: phase,
			Motion:        "direct",
			DistAU:        1.5,
			ChartRadius:   chartRadius,
		},
	}
}

func TestDialModel_RenderDial(t *testing.T) {
	// Height 20 gives radius 9 on a 41-wide canvas centered at (20, 10).
	tests := []struct {
		name   string
		hint   bool
		phase  float64
		radius float64
		wantX  int
		wantY  int
	}{
		{"quadrature on ring", false, 90, 7, 38, 10},
		{"opposition on ring", false, 180, 7, 20, 19},
		{"quadrature by distance", true, 90, 7, 29, 10},
		{"close body clamps", true, 270, 0.5, 15, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDialModel().SetSize(80, 24)
			m.distanceHint = tt.hint
			c := m.renderDial(marsExport(tt.phase, tt.radius), 20)

			if got := c.at(tt.wantX, tt.wantY); got != '♂' {
				t.Errorf("at(%d, %d) = %q, want ♂\n%s", tt.wantX, tt.wantY, got, c.plain())
			}
			if got := c.at(20, 1); got != '☉' {
				t.Errorf("sun = %q, want ☉", got)
			}
			if got := c.at(20, 10); got != '⊕' {
				t.Errorf("center = %q, want ⊕", got)
			}
		})
	}
}

func TestDialModel_View(t *testing.T) {
	lit := 0.5
	exp := marsExport(90, 7)
	exp.Illuminated = &lit
	m := NewDialModel().SetSize(80, 24).UpdateData(state.Snapshot{Body: ephem.Mars}, exp)

	out := m.View()
	for _, want := range []string{"phase 90.0°", "elongation +90.0°", "50% lit", "1.500 AU"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.distanceHint {
		t.Fatal("r should turn the distance hint off")
	}
	if strings.Contains(m.View(), " AU") {
		t.Error("distance shown without the hint")
	}
}

func TestDialModel_NoExport(t *testing.T) {
	m := NewDialModel().SetSize(80, 24).UpdateData(state.Snapshot{Body: ephem.Saturn}, marsExport(90, 7))
	if got := m.View(); !strings.Contains(got, "no phase for Saturn") {
		t.Errorf("View() = %q", got)
	}

	m = m.SetSize(10, 5)
	if got := m.View(); got != "Dial view requires larger terminal" {
		t.Errorf("View() = %q", got)
	}
}
