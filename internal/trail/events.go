package trail

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/ephem"
)

// EventKind names a synodic event.
type EventKind string

const (
	EventConjunction   EventKind = "conjunction"
	EventOpposition    EventKind = "opposition"
	EventSquare        EventKind = "square"
	EventStationRetro  EventKind = EventKind(StationRetrograde)
	EventStationDirect EventKind = EventKind(StationDirect)
	EventMaxElongation EventKind = "max_elongation"
)

// AllEventKinds lists every kind in display order.
var AllEventKinds = []EventKind{
	EventConjunction,
	EventOpposition,
	EventSquare,
	EventStationRetro,
	EventStationDirect,
	EventMaxElongation,
}

// Event is one synodic event with the exact states at its instant.
type Event struct {
	Kind    EventKind
	Time    time.Time
	Body    ephem.State
	Sun     ephem.State
	Label   string // short glyph: ☌ ☍ □ S℞ Sᴅ El
	Details string // optional, e.g. "Inferior conjunction"
}

// Elongation returns the signed body-Sun separation at the event.
func (ev Event) Elongation() float64 {
	return astro.Elongation(ev.Body.LonRad, ev.Sun.LonRad)
}

// EventOptions holds the orb and threshold settings for event detection.
type EventOptions struct {
	OrbDeg              float64 // general orb for all aspects
	InnerConjOrbDeg     float64 // orb for Mercury/Venus conjunctions
	MaxElongationMinDeg float64 // smallest |elongation| peak reported
	StationEpsDegPerDay float64 // stationary threshold
}

// DefaultEventOptions returns the stock orbs and thresholds.
func DefaultEventOptions() EventOptions {
	return EventOptions{
		OrbDeg:              1.0,
		InnerConjOrbDeg:     1.5,
		MaxElongationMinDeg: 10,
		StationEpsDegPerDay: 0.03,
	}
}

// withDefaults fills unset fields from DefaultEventOptions. A zero
// elongation minimum is kept; orbs and the station threshold must be
// positive.
func (o EventOptions) withDefaults() EventOptions {
	d := DefaultEventOptions()
	if !(o.OrbDeg > 0) {
		o.OrbDeg = d.OrbDeg
	}
	if !(o.InnerConjOrbDeg > 0) {
		o.InnerConjOrbDeg = d.InnerConjOrbDeg
	}
	if !(o.MaxElongationMinDeg >= 0) {
		o.MaxElongationMinDeg = d.MaxElongationMinDeg
	}
	if !(o.StationEpsDegPerDay > 0) {
		o.StationEpsDegPerDay = d.StationEpsDegPerDay
	}
	return o
}

// Fraction of the step below which two crossings are the same event.
const crossingSpacing = 0.75

// Maximum number of max-elongation events per window.
const maxElongationPeaks = 2

// aspect is one target elongation searched for crossings.
type aspect struct {
	kind    EventKind
	target  float64
	label   string
	details string
}

var aspects = []aspect{
	{kind: EventConjunction, target: 0, label: "☌"},
	{kind: EventOpposition, target: -math.Pi, label: "☍"},
	{kind: EventSquare, target: math.Pi / 2, label: "□", details: "Square +90°"},
	{kind: EventSquare, target: -math.Pi / 2, label: "□", details: "Square −90°"},
}

// SynodicEvents finds conjunctions, oppositions, squares, stations, and (for
// Mercury and Venus) maximum elongations in the window around ref. The
// window center is bucketed with CenterFor. Sampling failures are returned;
// a provider miss while refining one candidate only drops that candidate.
// The Sun has no events. Unset option fields take their defaults.
func (e *Engine) SynodicEvents(body ephem.Body, ref time.Time, windowDays, stepHours float64, opts EventOptions) ([]Event, error) {
	if body.IsSun() {
		return []Event{}, nil
	}
	opts = opts.withDefaults()

	grid, center := gridKey(CenterFor(ref, windowDays), windowDays, stepHours)
	key := eventsKey{
		body:        body,
		timesKey:    grid,
		orb:         opts.OrbDeg,
		innerOrb:    opts.InnerConjOrbDeg,
		maxElongMin: opts.MaxElongationMinDeg,
		eps:         opts.StationEpsDegPerDay,
	}

	return e.events.GetOrCompute(key, func() ([]Event, error) {
		return e.computeEvents(body, center, windowDays, stepHours, opts)
	})
}

func (e *Engine) computeEvents(body ephem.Body, center time.Time, windowDays, stepHours float64, opts EventOptions) ([]Event, error) {
	analysis, err := e.TrailAnalysis(body, center, windowDays, stepHours, opts.StationEpsDegPerDay)
	if err != nil {
		return nil, err
	}
	sunSamples, err := e.BodySamples(ephem.Sun, center, windowDays, stepHours)
	if err != nil {
		return nil, err
	}
	if len(sunSamples) != len(analysis.Samples) {
		return nil, fmt.Errorf("%w: %d body samples, %d sun samples", ErrLengthMismatch, len(analysis.Samples), len(sunSamples))
	}

	times := make([]time.Time, len(analysis.Samples))
	elong := make([]float64, len(analysis.Samples))
	for i, s := range analysis.Samples {
		times[i] = s.Time
		elong[i] = astro.Elongation(s.LonRad, sunSamples[i].LonRad)
	}

	inner := body.IsInner()
	orbRad := astro.DegToRad(opts.OrbDeg)
	conjOrbRad := orbRad
	if inner {
		conjOrbRad = astro.DegToRad(opts.InnerConjOrbDeg)
	}
	minSpacing := time.Duration(crossingSpacing * float64(astro.HoursToDuration(stepHours)))

	var out []Event

	for _, asp := range aspects {
		crossings, err := FindAngleCrossings(times, elong, asp.target)
		if err != nil {
			return nil, err
		}
		orb := orbRad
		if asp.kind == EventConjunction {
			orb = conjOrbRad
		}

		for _, t := range uniqueTimes(crossings, minSpacing) {
			bs, ss, ok := e.statesAt(body, t)
			if !ok {
				continue
			}
			residual := math.Abs(astro.WrapToPi(astro.Elongation(bs.LonRad, ss.LonRad) - asp.target))
			if residual > orb {
				continue
			}

			ev := Event{Kind: asp.kind, Time: t, Body: bs, Sun: ss, Label: asp.label, Details: asp.details}
			if asp.kind == EventConjunction && inner {
				ev.Details = conjunctionDetails(bs, ss)
			}
			out = append(out, ev)
		}
	}

	for _, st := range analysis.StationStates {
		ss, err := e.provider.State(ephem.Sun, st.Time)
		if err != nil {
			continue
		}
		label := "Sᴅ"
		if st.Kind == StationRetrograde {
			label = "S℞"
		}
		out = append(out, Event{Kind: EventKind(st.Kind), Time: st.Time, Body: st.State, Sun: ss, Label: label})
	}

	if inner {
		out = append(out, e.maxElongations(body, times, elong, opts.MaxElongationMinDeg)...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if out == nil {
		out = []Event{}
	}
	return out, nil
}

// maxElongations reports up to two local maxima of |elongation| at or above
// minDeg, taken at the discrete sample instant.
func (e *Engine) maxElongations(body ephem.Body, times []time.Time, elong []float64, minDeg float64) []Event {
	abs := make([]float64, len(elong))
	for i, v := range elong {
		abs[i] = math.Abs(v)
	}

	minPeak := astro.DegToRad(minDeg)
	var peaks []int
	for _, i := range localMaxima(abs) {
		if abs[i] >= minPeak {
			peaks = append(peaks, i)
		}
	}
	sort.SliceStable(peaks, func(a, b int) bool { return abs[peaks[a]] > abs[peaks[b]] })
	if len(peaks) > maxElongationPeaks {
		peaks = peaks[:maxElongationPeaks]
	}

	var out []Event
	for _, i := range peaks {
		bs, ss, ok := e.statesAt(body, times[i])
		if !ok {
			continue
		}
		el := astro.Elongation(bs.LonRad, ss.LonRad)
		out = append(out, Event{
			Kind:    EventMaxElongation,
			Time:    times[i],
			Body:    bs,
			Sun:     ss,
			Label:   "El",
			Details: "Max elong " + astro.FormatSignedDegrees(astro.RadToDeg(el), 0),
		})
	}
	return out
}

// statesAt queries body and Sun at t; ok is false if either is missing.
func (e *Engine) statesAt(body ephem.Body, t time.Time) (bs, ss ephem.State, ok bool) {
	bs, err := e.provider.State(body, t)
	if err != nil {
		return bs, ss, false
	}
	ss, err = e.provider.State(ephem.Sun, t)
	if err != nil {
		return bs, ss, false
	}
	return bs, ss, true
}

// conjunctionDetails labels an inner-planet conjunction by which of the
// body and the Sun is nearer. Equal distances get no label.
func conjunctionDetails(bs, ss ephem.State) string {
	switch {
	case bs.DistAU < ss.DistAU:
		return "Inferior conjunction"
	case bs.DistAU > ss.DistAU:
		return "Superior conjunction"
	default:
		return ""
	}
}

// KindSet selects event kinds. A nil set selects every kind.
type KindSet map[EventKind]bool

// ParseKindSet parses a comma-separated list of kinds. "all" or an empty
// string selects every kind. "station" selects both station kinds.
func ParseKindSet(s string) (KindSet, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return nil, nil
	}
	set := make(KindSet)
	for _, part := range strings.Split(s, ",") {
		k := EventKind(strings.ToLower(strings.TrimSpace(part)))
		switch k {
		case "":
			continue
		case "station", "stations":
			set[EventStationRetro] = true
			set[EventStationDirect] = true
			continue
		}
		if !k.Valid() {
			return nil, fmt.Errorf("unknown event kind %q", part)
		}
		set[k] = true
	}
	return set, nil
}

// Has reports whether k is selected.
func (s KindSet) Has(k EventKind) bool {
	return s == nil || s[k]
}

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	for _, known := range AllEventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// FilterEvents returns the events whose kind is in kinds, keeping order.
func FilterEvents(events []Event, kinds KindSet) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if kinds.Has(ev.Kind) {
			out = append(out, ev)
		}
	}
	return out
}
