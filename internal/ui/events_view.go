package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/state"
	"github.com/litescript/ls-synodic/internal/trail"
)

// EventsModel lists the window's events, or the crossings logged while
// stepping through time.
type EventsModel struct {
	width         int
	height        int
	offset        int
	showCrossings bool
	snapshot      state.Snapshot
	kinds         trail.KindSet
}

// NewEventsModel creates a new events view model.
func NewEventsModel() EventsModel {
	return EventsModel{}
}

// SetSize updates the viewport size.
func (m EventsModel) SetSize(width, height int) EventsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data and the event filter.
func (m EventsModel) UpdateData(snapshot state.Snapshot, kinds trail.KindSet) EventsModel {
	if snapshot.Body != m.snapshot.Body {
		m.offset = 0
	}
	m.snapshot = snapshot
	m.kinds = kinds
	if n := m.rowCount(); m.offset >= n {
		m.offset = max(0, n-1)
	}
	return m
}

// Update handles input messages.
func (m EventsModel) Update(msg tea.Msg) (EventsModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.offset > 0 {
			m.offset--
		}
	case "down", "j":
		if m.offset < m.rowCount()-1 {
			m.offset++
		}
	case "home":
		m.offset = 0
	case "c":
		m.showCrossings = !m.showCrossings
		m.offset = 0
	}
	return m, nil
}

// events returns the filtered events of the selected body's view.
func (m EventsModel) events() []trail.Event {
	s := m.snapshot
	if s.View == nil || s.ViewBody != s.Body {
		return nil
	}
	return trail.FilterEvents(s.View.Events, m.kinds)
}

// crossings returns logged crossings that pass the filter, newest first.
func (m EventsModel) crossings() []state.Crossing {
	all := m.snapshot.Crossings
	out := make([]state.Crossing, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if m.kinds.Has(all[i].Event.Kind) {
			out = append(out, all[i])
		}
	}
	return out
}

func (m EventsModel) rowCount() int {
	if m.showCrossings {
		return len(m.crossings())
	}
	return len(m.events())
}

func (m EventsModel) visibleRows() int {
	rows := m.height - 3
	if rows < 3 {
		rows = 3
	}
	return rows
}

// View renders the list.
func (m EventsModel) View() string {
	if m.showCrossings {
		return m.renderCrossings()
	}
	return m.renderEvents()
}

func (m EventsModel) renderEvents() string {
	var b strings.Builder
	info := m.snapshot.Body.Info()
	b.WriteString(titleStyle.Render(fmt.Sprintf("  %s %s events", info.Glyph, info.Label)))
	b.WriteString("\n")

	events := m.events()
	if len(events) == 0 {
		b.WriteString(labelStyle.Render("  no events"))
		return b.String()
	}

	next := -1
	for i, ev := range events {
		if !ev.Time.Before(m.snapshot.Instant) {
			next = i
			break
		}
	}

	end := min(len(events), m.offset+m.visibleRows())
	for i := m.offset; i < end; i++ {
		ev := events[i]
		row := fmt.Sprintf("  %s  %-4s %-10s %-8s %s",
			ev.Time.UTC().Format("2006-01-02 15:04"),
			ev.Label,
			astro.FormatZodiacPosition(ev.Body.LonRad),
			astro.FormatSignedDegrees(astro.RadToDeg(ev.Elongation()), 1),
			ev.Details)
		switch {
		case i == next:
			b.WriteString(selectedRowStyle.Render(row))
		case ev.Time.Before(m.snapshot.Instant):
			b.WriteString(labelStyle.Render(row))
		default:
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if len(events) > m.visibleRows() {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  Showing %d-%d of %d events", m.offset+1, end, len(events))))
	}
	return b.String()
}

func (m EventsModel) renderCrossings() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  Crossed while stepping"))
	b.WriteString("\n")

	crossings := m.crossings()
	if len(crossings) == 0 {
		b.WriteString(labelStyle.Render("  none yet; step with ←/→ or play with space"))
		return b.String()
	}

	end := min(len(crossings), m.offset+m.visibleRows())
	for _, cr := range crossings[m.offset:end] {
		arrow := "→"
		if cr.Direction == state.Backward {
			arrow = "←"
		}
		info := cr.Event.Body.Body.Info()
		row := fmt.Sprintf("  %s %s %s %-4s %s",
			arrow,
			cr.Event.Time.UTC().Format("2006-01-02 15:04"),
			info.Glyph,
			cr.Event.Label,
			cr.Event.Details)
		b.WriteString(rowStyle.Render(row))
		b.WriteString("\n")
	}
	return b.String()
}
