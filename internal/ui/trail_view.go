package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/state"
	"github.com/litescript/ls-synodic/internal/trail"
)

// PlotMode selects what the trail strip charts.
type PlotMode int

const (
	PlotLongitude PlotMode = iota
	PlotVelocity
)

const (
	colorDirect     = lipgloss.Color("39")
	colorRetrograde = lipgloss.Color("#E84A27")
	colorStationary = lipgloss.Color("226")
	colorAxis       = lipgloss.Color("60")
	colorStation    = lipgloss.Color("205")
	colorNow        = lipgloss.Color("252")
)

// TrailModel charts the sampled trail of the selected body over its window.
type TrailModel struct {
	width    int
	height   int
	mode     PlotMode
	snapshot state.Snapshot
}

// NewTrailModel creates a new trail view model.
func NewTrailModel() TrailModel {
	return TrailModel{mode: PlotLongitude}
}

// SetSize updates the viewport size.
func (m TrailModel) SetSize(width, height int) TrailModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data.
func (m TrailModel) UpdateData(snapshot state.Snapshot) TrailModel {
	m.snapshot = snapshot
	return m
}

// Update handles input messages.
func (m TrailModel) Update(msg tea.Msg) (TrailModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "v" {
		if m.mode == PlotLongitude {
			m.mode = PlotVelocity
		} else {
			m.mode = PlotLongitude
		}
	}
	return m, nil
}

// analysis returns the stored analysis when it belongs to the selected body.
func (m TrailModel) analysis() *trail.Analysis {
	s := m.snapshot
	if s.View == nil || s.View.Analysis == nil || s.ViewBody != s.Body {
		return nil
	}
	return s.View.Analysis
}

// View renders the trail strip.
func (m TrailModel) View() string {
	if m.width < 30 || m.height < 8 {
		return "Trail view requires larger terminal"
	}
	a := m.analysis()
	if a == nil || len(a.Samples) < 2 {
		return labelStyle.Render("  no trail for " + m.snapshot.Body.Info().Label)
	}

	const axisWidth = 10
	plotW := m.width - axisWidth - 2
	plotH := m.height - 3

	values, unit := m.series(a)
	lo, hi := seriesRange(values)

	c := m.renderPlot(a, values, lo, hi, plotW, plotH)

	var b strings.Builder
	title := "longitude"
	if m.mode == PlotVelocity {
		title = "velocity"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("  %s %s %s", a.Body.Info().Glyph, a.Body.Info().Label, title)))
	b.WriteString(labelStyle.Render(fmt.Sprintf("   %d samples every %gh", len(a.Samples), a.StepHours)))
	b.WriteString("\n")

	lines := strings.Split(c.String(), "\n")
	for i, line := range lines {
		label := ""
		switch i {
		case 0:
			label = fmt.Sprintf("%.1f%s", hi, unit)
		case len(lines) - 1:
			label = fmt.Sprintf("%.1f%s", lo, unit)
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%*s", axisWidth, label)))
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	first := a.Samples[0].Time.UTC().Format("2006-01-02")
	last := a.Samples[len(a.Samples)-1].Time.UTC().Format("2006-01-02")
	pad := plotW - len(first) - len(last)
	if pad < 1 {
		pad = 1
	}
	b.WriteString(labelStyle.Render(strings.Repeat(" ", axisWidth+1) + first + strings.Repeat(" ", pad) + last))
	return b.String()
}

// series returns the charted values: unwrapped longitude or velocity.
func (m TrailModel) series(a *trail.Analysis) ([]float64, string) {
	if m.mode == PlotVelocity {
		return a.Velocities, "°/d"
	}
	lons := make([]float64, len(a.Samples))
	for i, s := range a.Samples {
		lons[i] = s.LonRad
	}
	unwrapped := astro.UnwrapRadians(lons)
	out := make([]float64, len(unwrapped))
	for i, v := range unwrapped {
		out[i] = astro.RadToDeg(v)
	}
	return out, "°"
}

// renderPlot draws samples colored by motion, station columns and the
// session instant onto a plotW × plotH canvas.
func (m TrailModel) renderPlot(a *trail.Analysis, values []float64, lo, hi float64, plotW, plotH int) *canvas {
	c := newCanvas(plotW, plotH)
	n := len(values)
	start, end := a.Samples[0].Time, a.Samples[n-1].Time

	xAt := func(t time.Time) int {
		span := end.Sub(start)
		if span <= 0 {
			return 0
		}
		return int(math.Round(float64(t.Sub(start)) / float64(span) * float64(plotW-1)))
	}
	yAt := func(v float64) int {
		if hi == lo {
			return plotH / 2
		}
		return int(math.Round((hi - v) / (hi - lo) * float64(plotH-1)))
	}

	if m.mode == PlotVelocity && lo < 0 && hi > 0 {
		y := yAt(0)
		for x := 0; x < plotW; x++ {
			c.set(x, y, '─', colorAxis)
		}
	}

	if inst := m.snapshot.Instant; !inst.Before(start) && !inst.After(end) {
		x := xAt(inst)
		for y := 0; y < plotH; y++ {
			c.set(x, y, '│', colorNow)
		}
	}

	for _, st := range a.Stations {
		x := xAt(st.Time)
		for y := 1; y < plotH; y++ {
			c.set(x, y, '┊', colorStation)
		}
	}

	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		glyph, color := '•', colorDirect
		switch a.Motion[i] {
		case trail.MotionRetrograde:
			color = colorRetrograde
		case trail.MotionStationary:
			glyph, color = '◦', colorStationary
		}
		c.set(xAt(a.Samples[i].Time), yAt(v), glyph, color)
	}

	// Station labels stay visible over the samples.
	for _, st := range a.Stations {
		c.set(xAt(st.Time), 0, 'S', colorStation)
	}
	return c
}

// seriesRange returns the finite min and max of values.
func seriesRange(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}
