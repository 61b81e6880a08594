package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/report"
	"github.com/litescript/ls-synodic/internal/state"
)

const (
	colorRing = lipgloss.Color("60")
	colorSun  = lipgloss.Color("226")
	colorBody = lipgloss.Color("#9D4EDD")
	colorMark = lipgloss.Color("244")
)

// maxChartRadius is the outermost radius of astro.DefaultRadiusScale.
var maxChartRadius = astro.DefaultRadiusScale.Map(math.Inf(1))

// DialModel draws the synodic phase of the selected body as a dial with the
// Sun at the top and Earth at the center.
type DialModel struct {
	width        int
	height       int
	distanceHint bool // place the body by distance instead of on the ring
	snapshot     state.Snapshot
	export       *report.ViewExport
}

// NewDialModel creates a new dial view model.
func NewDialModel() DialModel {
	return DialModel{distanceHint: true}
}

// SetSize updates the viewport size.
func (m DialModel) SetSize(width, height int) DialModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data.
func (m DialModel) UpdateData(snapshot state.Snapshot, export *report.ViewExport) DialModel {
	m.snapshot = snapshot
	m.export = export
	return m
}

// Update handles input messages.
func (m DialModel) Update(msg tea.Msg) (DialModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "r" {
		m.distanceHint = !m.distanceHint
	}
	return m, nil
}

// View renders the dial and a readout.
func (m DialModel) View() string {
	if m.width < 24 || m.height < 12 {
		return "Dial view requires larger terminal"
	}
	exp := m.export
	if exp == nil || exp.Body != m.snapshot.Body {
		return labelStyle.Render("  no phase for " + m.snapshot.Body.Info().Label)
	}

	c := m.renderDial(exp, m.height-4)

	var b strings.Builder
	b.WriteString(c.String())
	b.WriteString("\n")

	cur := exp.Current
	readout := fmt.Sprintf("  phase %.1f°   elongation %s   %s",
		cur.PhaseDeg, astro.FormatSignedDegrees(cur.ElongationDeg, 1), cur.Motion)
	if exp.Illuminated != nil {
		readout += fmt.Sprintf("   %.0f%% lit", *exp.Illuminated*100)
	}
	if m.distanceHint {
		readout += fmt.Sprintf("   %.3f AU", cur.DistAU)
	}
	b.WriteString(rowStyle.Render(readout))
	return b.String()
}

// renderDial draws the ring, the aspect marks and the body on a canvas of
// the given height. Cells are about twice as tall as wide, so x spans double.
func (m DialModel) renderDial(exp *report.ViewExport, height int) *canvas {
	radius := (height - 2) / 2
	width := 4*radius + 5
	if width > m.width {
		width = m.width
	}
	c := newCanvas(width, height)
	cx, cy := width/2, height/2

	point := func(phaseDeg, frac float64) (int, int) {
		th := astro.DegToRad(phaseDeg)
		x := cx + int(math.Round(2*float64(radius)*frac*math.Sin(th)))
		y := cy - int(math.Round(float64(radius)*frac*math.Cos(th)))
		return x, y
	}

	for deg := 0.0; deg < 360; deg += 2 {
		x, y := point(deg, 1)
		c.set(x, y, '·', colorRing)
	}

	marks := []struct {
		deg   float64
		glyph rune
	}{
		{90, '□'},
		{180, '☍'},
		{270, '□'},
	}
	for _, mk := range marks {
		x, y := point(mk.deg, 1)
		c.set(x, y, mk.glyph, colorMark)
	}
	sx, sy := point(0, 1)
	c.set(sx, sy, '☉', colorSun)
	c.set(cx, cy, '⊕', colorRing)

	frac := 1.0
	if m.distanceHint && maxChartRadius > 0 {
		frac = math.Max(0.25, exp.Current.ChartRadius/maxChartRadius)
	}
	bx, by := point(exp.Current.PhaseDeg, frac)
	if c.at(bx, by) == '⊕' {
		by--
	}
	c.set(bx, by, glyphRune(exp.Glyph), colorBody)
	return c
}

func glyphRune(s string) rune {
	for _, r := range s {
		return r
	}
	return '?'
}
