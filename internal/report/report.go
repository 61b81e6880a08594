// Package report renders trail views as JSON exports and plain-text tables
// for headless use.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/trail"
)

// ViewExport is the JSON-serializable representation of one body's view.
type ViewExport struct {
	Body        ephem.Body      `json:"body"`
	Label       string          `json:"label"`
	Glyph       string          `json:"glyph"`
	Ref         time.Time       `json:"ref,omitzero"`
	Center      time.Time       `json:"center"`
	WindowDays  float64         `json:"window_days"`
	StepHours   float64         `json:"step_hours"`
	Current     PositionExport  `json:"current"`
	Stations    []StationExport `json:"stations"`
	Segments    []SegmentExport `json:"segments"`
	Events      []EventExport   `json:"events"`
	Illuminated *float64        `json:"illuminated,omitempty"` // Moon only
}

// PositionExport describes the body at the view center.
type PositionExport struct {
	Time          time.Time `json:"time"`
	LonDeg        float64   `json:"lon_deg"`
	LatDeg        float64   `json:"lat_deg"`
	DistAU        float64   `json:"dist_au"`
	Zodiac        string    `json:"zodiac"`
	Sign          string    `json:"sign"`
	Motion        string    `json:"motion"`
	DegPerDay     float64   `json:"deg_per_day"`
	ElongationDeg float64   `json:"elongation_deg"`
	PhaseDeg      float64   `json:"phase_deg"`
	Closeness     float64   `json:"closeness"`
	ChartRadius   float64   `json:"chart_radius"`
}

// StationExport is a JSON-friendly station.
type StationExport struct {
	Kind   trail.StationKind `json:"kind"`
	Time   time.Time         `json:"time"`
	LonDeg float64           `json:"lon_deg"`
	Zodiac string            `json:"zodiac"`
}

// SegmentExport is a run of equal motion between two sample instants.
type SegmentExport struct {
	Motion string    `json:"motion"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// EventExport is a JSON-friendly synodic event.
type EventExport struct {
	Kind          trail.EventKind `json:"kind"`
	Label         string          `json:"label"`
	Details       string          `json:"details,omitempty"`
	Time          time.Time       `json:"time"`
	LonDeg        float64         `json:"lon_deg"`
	Zodiac        string          `json:"zodiac"`
	ElongationDeg float64         `json:"elongation_deg"`
}

// ExportView converts a view to an exportable form. sun is the Sun's state
// at the view center; it drives elongation and phase.
func ExportView(view *trail.View, ref time.Time, sun ephem.State) *ViewExport {
	if view == nil || view.Analysis == nil {
		return &ViewExport{Ref: ref}
	}
	a := view.Analysis
	info := a.Body.Info()

	out := &ViewExport{
		Body:       a.Body,
		Label:      info.Label,
		Glyph:      info.Glyph,
		Ref:        ref,
		Center:     view.Window.Center,
		WindowDays: view.Window.WindowDays,
		StepHours:  a.StepHours,
		Stations:   []StationExport{},
		Segments:   []SegmentExport{},
		Events:     []EventExport{},
	}
	out.Current = exportPosition(a, info, sun)

	if a.Body == ephem.Moon {
		illum := astro.MoonIllumination(astro.Elongation(a.Current.LonRad, sun.LonRad))
		out.Illuminated = &illum
	}

	for i, st := range a.Stations {
		se := StationExport{Kind: st.Kind, Time: st.Time}
		if i < len(a.StationStates) {
			lon := a.StationStates[i].State.LonRad
			se.LonDeg = astro.RadToDeg(lon)
			se.Zodiac = astro.FormatZodiacPosition(lon)
		}
		out.Stations = append(out.Stations, se)
	}

	for _, seg := range a.Segments() {
		out.Segments = append(out.Segments, SegmentExport{
			Motion: seg.Kind.String(),
			Start:  a.Samples[seg.Start].Time,
			End:    a.Samples[seg.End].Time,
		})
	}

	for _, ev := range view.Events {
		out.Events = append(out.Events, ExportEvent(ev))
	}
	return out
}

// Build computes the view for req and exports it.
func Build(e *trail.Engine, req trail.Request) (*ViewExport, error) {
	_, exp, err := BuildView(e, req)
	return exp, err
}

// BuildView is Build that also returns the underlying view. The Sun's state
// at the resolved center comes from the engine's provider.
func BuildView(e *trail.Engine, req trail.Request) (*trail.View, *ViewExport, error) {
	view, err := e.View(req)
	if err != nil {
		return nil, nil, err
	}
	sun, err := e.Provider().State(ephem.Sun, view.Window.Center)
	if err != nil {
		return nil, nil, fmt.Errorf("sun at center: %w", err)
	}
	return view, ExportView(view, req.Ref, sun), nil
}

func exportPosition(a *trail.Analysis, info ephem.BodyInfo, sun ephem.State) PositionExport {
	cur := a.Current
	motion, vel := a.CurrentMotion()
	elong := astro.Elongation(cur.LonRad, sun.LonRad)

	return PositionExport{
		Time:          cur.Time,
		LonDeg:        astro.RadToDeg(cur.LonRad),
		LatDeg:        astro.RadToDeg(cur.LatRad),
		DistAU:        cur.DistAU,
		Zodiac:        astro.FormatZodiacPosition(cur.LonRad),
		Sign:          astro.Zodiac[astro.ZodiacIndex(cur.LonRad)].Label,
		Motion:        motion.String(),
		DegPerDay:     vel,
		ElongationDeg: astro.RadToDeg(elong),
		PhaseDeg:      astro.RadToDeg(astro.SynodicPhase(cur.LonRad, sun.LonRad)),
		Closeness:     info.Range.Closeness(cur.DistAU),
		ChartRadius:   astro.DefaultRadiusScale.Map(cur.DistAU),
	}
}

// ExportEvent converts one event to its JSON-friendly form.
func ExportEvent(ev trail.Event) EventExport {
	return EventExport{
		Kind:          ev.Kind,
		Label:         ev.Label,
		Details:       ev.Details,
		Time:          ev.Time,
		LonDeg:        astro.RadToDeg(ev.Body.LonRad),
		Zodiac:        astro.FormatZodiacPosition(ev.Body.LonRad),
		ElongationDeg: astro.RadToDeg(ev.Elongation()),
	}
}

// WriteJSON writes the export as indented JSON.
func (v *ViewExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSON writes a list of exports as one indented JSON array.
func WriteJSON(w io.Writer, views []*ViewExport) error {
	if views == nil {
		views = []*ViewExport{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}

// SummaryRow is one line of the summary table.
type SummaryRow struct {
	Glyph      string
	Label      string
	Zodiac     string
	Motion     string
	Velocity   string
	Elongation string
	Distance   string
	Next       string
	Err        error
}

// SummaryRows builds table rows from exports, skipping nil entries.
func SummaryRows(views []*ViewExport) []SummaryRow {
	rows := make([]SummaryRow, 0, len(views))
	for _, v := range views {
		if v == nil {
			continue
		}
		row := SummaryRow{
			Glyph:      v.Glyph,
			Label:      v.Label,
			Zodiac:     v.Current.Zodiac,
			Motion:     v.Current.Motion,
			Velocity:   fmt.Sprintf("%+.3f°/d", v.Current.DegPerDay),
			Elongation: astro.FormatSignedDegrees(v.Current.ElongationDeg, 1),
			Distance:   formatDistance(v.Current.DistAU),
			Next:       nextEvent(v.Events, v.Ref),
		}
		if v.Body == ephem.Sun {
			row.Elongation = "-"
		}
		rows = append(rows, row)
	}
	return rows
}

// ErrorRow is a summary row for a body whose view could not be computed.
func ErrorRow(b ephem.Body, err error) SummaryRow {
	info := b.Info()
	return SummaryRow{Glyph: info.Glyph, Label: info.Label, Err: err}
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const rulerWidth = 96

// WriteSummaryTable writes a text table of rows to w.
func WriteSummaryTable(w io.Writer, rows []SummaryRow, at time.Time) {
	fmt.Fprintln(w, headingStyle.Render("Synodic summary @ "+at.UTC().Format(time.RFC3339)))
	fmt.Fprintln(w, strings.Repeat("─", rulerWidth))

	if len(rows) == 0 {
		fmt.Fprintln(w, "No bodies")
		return
	}

	fmt.Fprintf(w, "%-2s %-10s %-10s %-11s %-11s %-8s %-9s %s\n",
		"", "Body", "Position", "Motion", "Speed", "Elong", "Dist", "Next event")
	fmt.Fprintln(w, strings.Repeat("─", rulerWidth))

	failed := 0
	for _, r := range rows {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "%-2s %-10s %s\n", r.Glyph, truncateStr(r.Label, 10),
				errorStyle.Render("error: "+r.Err.Error()))
			continue
		}
		fmt.Fprintf(w, "%-2s %-10s %-10s %-11s %-11s %-8s %-9s %s\n",
			r.Glyph,
			truncateStr(r.Label, 10),
			r.Zodiac,
			r.Motion,
			r.Velocity,
			r.Elongation,
			r.Distance,
			r.Next,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d bodies", len(rows))
	if failed > 0 {
		fmt.Fprintf(w, ", %d failed", failed)
	}
	fmt.Fprintln(w)
}

// WriteEvents writes the events of one export as a list, at most n when n > 0.
func WriteEvents(w io.Writer, v *ViewExport, n int) {
	if v == nil {
		return
	}
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("%s %s events, ±%g days around %s",
		v.Glyph, v.Label, v.WindowDays, v.Center.UTC().Format("2006-01-02"))))
	fmt.Fprintln(w, strings.Repeat("─", rulerWidth))

	if len(v.Events) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}
	events := v.Events
	if n > 0 && len(events) > n {
		events = events[:n]
	}
	for _, ev := range events {
		line := fmt.Sprintf("%s  %-10s %-10s %s",
			ev.Time.UTC().Format("2006-01-02 15:04"),
			ev.Label,
			ev.Zodiac,
			astro.FormatSignedDegrees(ev.ElongationDeg, 1))
		if ev.Details != "" {
			line += "  " + ev.Details
		}
		fmt.Fprintln(w, line)
	}
}

// nextEvent returns the label and date of the first event at or after ref.
func nextEvent(events []EventExport, ref time.Time) string {
	for _, ev := range events {
		if !ev.Time.Before(ref) {
			return ev.Label + " " + ev.Time.UTC().Format("Jan 02")
		}
	}
	return "-"
}

func formatDistance(au float64) string {
	if au < 0.01 {
		return fmt.Sprintf("%.0fkm", au*astro.AU)
	}
	return fmt.Sprintf("%.3fAU", au)
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
