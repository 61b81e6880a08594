package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/report"
	"github.com/litescript/ls-synodic/internal/state"
)

// Styles for the dashboard
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	retroStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E84A27"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9D4EDD"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// upcomingEvents is how many events after the instant the dashboard lists.
const upcomingEvents = 5

// DashboardModel lists the bodies and details the selected one.
type DashboardModel struct {
	width    int
	height   int
	snapshot state.Snapshot
	export   *report.ViewExport
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel() DashboardModel {
	return DashboardModel{}
}

// Init implements the Bubble Tea model interface.
func (m DashboardModel) Init() tea.Cmd {
	return nil
}

// SetSize updates the viewport size.
func (m DashboardModel) SetSize(width, height int) DashboardModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data.
func (m DashboardModel) UpdateData(snapshot state.Snapshot, export *report.ViewExport) DashboardModel {
	m.snapshot = snapshot
	m.export = export
	return m
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	list := m.renderBodyList()
	detail := m.renderDetail()
	return lipgloss.JoinHorizontal(lipgloss.Top, list, "   ", detail)
}

func (m DashboardModel) renderBodyList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Bodies"))
	b.WriteString("\n")

	for _, info := range ephem.Bodies {
		row := fmt.Sprintf(" %s %-10s", info.Glyph, info.Label)
		if info.Body == m.snapshot.Body {
			b.WriteString(selectedRowStyle.Render(row))
		} else {
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m DashboardModel) renderDetail() string {
	var b strings.Builder
	info := m.snapshot.Body.Info()
	b.WriteString(titleStyle.Render(info.Glyph + " " + info.Label))
	b.WriteString("\n")

	if err := m.snapshot.LastError; err != nil {
		b.WriteString(errorStyle.Render("Error: " + err.Error()))
		b.WriteString("\n")
	}

	// A view of the same body at an earlier instant stays up while the
	// next one computes.
	exp := m.export
	if exp == nil || exp.Body != m.snapshot.Body {
		if m.snapshot.LastError == nil {
			b.WriteString(labelStyle.Render("computing..."))
			b.WriteString("\n")
		}
		return b.String()
	}

	cur := exp.Current
	field := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", label)))
		b.WriteString(rowStyle.Render(value))
		b.WriteString("\n")
	}

	field("Position", fmt.Sprintf("%s  (%s, %.3f°)", cur.Zodiac, cur.Sign, cur.LonDeg))
	field("Latitude", astro.FormatSignedDegrees(cur.LatDeg, 2))

	motion := fmt.Sprintf("%s  %+.3f°/day", cur.Motion, cur.DegPerDay)
	if cur.Motion == "retrograde" {
		motion = retroStyle.Render(motion)
	}
	field("Motion", motion)

	if exp.Body != ephem.Sun {
		field("Elongation", astro.FormatSignedDegrees(cur.ElongationDeg, 1))
		field("Phase", fmt.Sprintf("%.1f°", cur.PhaseDeg))
	}
	field("Distance", fmt.Sprintf("%.4f AU", cur.DistAU))
	field("Light time", formatLightTime(astro.LightTimeFromAU(cur.DistAU)))
	if info.Range.MaxAU > 0 {
		field("Closeness", m.renderBar(cur.Closeness, 20))
	}
	if exp.Illuminated != nil {
		field("Illuminated", m.renderBar(*exp.Illuminated, 20)+fmt.Sprintf(" %.0f%%", *exp.Illuminated*100))
	}
	field("Window", fmt.Sprintf("±%g days around %s", exp.WindowDays, exp.Center.UTC().Format("2006-01-02")))

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Stations"))
	b.WriteString("\n")
	if len(exp.Stations) == 0 {
		b.WriteString(labelStyle.Render("  none in window"))
		b.WriteString("\n")
	}
	for _, st := range exp.Stations {
		b.WriteString(fmt.Sprintf("  %s  %-15s %s\n", st.Time.UTC().Format("2006-01-02 15:04"), st.Kind, st.Zodiac))
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Upcoming"))
	b.WriteString("\n")
	shown := 0
	for _, ev := range exp.Events {
		if ev.Time.Before(m.snapshot.Instant) {
			continue
		}
		line := fmt.Sprintf("  %s  %-4s %s", ev.Time.UTC().Format("2006-01-02 15:04"), ev.Label, ev.Zodiac)
		if ev.Details != "" {
			line += "  " + ev.Details
		}
		b.WriteString(line)
		b.WriteString("\n")
		shown++
		if shown == upcomingEvents {
			break
		}
	}
	if shown == 0 {
		b.WriteString(labelStyle.Render("  none in window"))
		b.WriteString("\n")
	}

	return b.String()
}

// formatLightTime renders a one-way light time in seconds.
func formatLightTime(sec float64) string {
	if sec < 90 {
		return fmt.Sprintf("%.1fs", sec)
	}
	return fmt.Sprintf("%.1f min", sec/60)
}

// renderBar draws a fraction in [0, 1] as a bracketed bar of width cells.
func (m DashboardModel) renderBar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return "[" + barStyle.Render(bar) + "]"
}
