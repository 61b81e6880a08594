package trail

import (
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/ephem/ephemtest"
)

func epochDays(days float64) time.Time {
	return time.Unix(0, 0).UTC().Add(astro.DaysToDuration(days))
}

func TestSynodicEventsLinearMotion(t *testing.T) {
	// 90°/day against a fixed Sun: conjunction, square, opposition, square,
	// conjunction one day apart over [0d, 4d].
	e := NewEngine(ephemtest.NewLinear(ephem.Mars, math.Pi/2, 1.5))

	events, err := e.SynodicEvents(ephem.Mars, epochDays(2), 2, 12, DefaultEventOptions())
	if err != nil {
		t.Fatalf("SynodicEvents() error = %v", err)
	}

	wantKinds := []EventKind{EventConjunction, EventSquare, EventOpposition, EventSquare, EventConjunction}
	if len(events) != len(wantKinds) {
		t.Fatalf("got %d events %+v, want %d", len(events), events, len(wantKinds))
	}
	for i, ev := range events {
		if ev.Kind != wantKinds[i] {
			t.Errorf("events[%d].Kind = %s, want %s", i, ev.Kind, wantKinds[i])
		}
		day := math.Round(astro.DurationDays(ev.Time.Sub(time.Unix(0, 0))))
		if day != float64(i) {
			t.Errorf("events[%d] on day %v, want %d", i, day, i)
		}
		if ev.Body.Body != ephem.Mars || ev.Sun.Body != ephem.Sun {
			t.Errorf("events[%d] states = %s/%s", i, ev.Body.Body, ev.Sun.Body)
		}
	}

	if events[1].Details != "Square +90°" || events[3].Details != "Square −90°" {
		t.Errorf("square details = %q, %q", events[1].Details, events[3].Details)
	}
	if events[0].Label != "☌" || events[2].Label != "☍" || events[1].Label != "□" {
		t.Errorf("labels = %q %q %q", events[0].Label, events[1].Label, events[2].Label)
	}
	if events[0].Details != "" {
		t.Errorf("outer conjunction details = %q, want empty", events[0].Details)
	}
}

func TestSynodicEventsInnerConjunction(t *testing.T) {
	tests := []struct {
		name   string
		distAU float64
		want   string
	}{
		{"inferior", 0.5, "Inferior conjunction"},
		{"superior", 1.5, "Superior conjunction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(ephemtest.NewLinear(ephem.Mercury, math.Pi/2, tt.distAU))
			opts := DefaultEventOptions()
			opts.MaxElongationMinDeg = 200

			events, err := e.SynodicEvents(ephem.Mercury, epochDays(0), 1, 12, opts)
			if err != nil {
				t.Fatal(err)
			}
			var conj *Event
			for i := range events {
				if events[i].Kind == EventConjunction {
					conj = &events[i]
					break
				}
			}
			if conj == nil {
				t.Fatalf("no conjunction in %+v", events)
			}
			if conj.Details != tt.want {
				t.Errorf("Details = %q, want %q", conj.Details, tt.want)
			}
		})
	}
}

func TestSynodicEventsMaxElongation(t *testing.T) {
	// Venus swings ±30° about the Sun with an 8 day period.
	p := &ephemtest.FuncProvider{
		Body:   ephem.Venus,
		Lon:    func(days float64) float64 { return astro.DegToRad(30 * math.Sin(2*math.Pi*days/8)) },
		DistAU: 0.7,
	}

	t.Run("peaks reported", func(t *testing.T) {
		e := NewEngine(p)
		events, err := e.SynodicEvents(ephem.Venus, epochDays(4), 4, 24, DefaultEventOptions())
		if err != nil {
			t.Fatal(err)
		}
		got := FilterEvents(events, KindSet{EventMaxElongation: true})
		if len(got) != 2 {
			t.Fatalf("got %d max elongations, want 2: %+v", len(got), events)
		}
		if !got[0].Time.Equal(epochDays(2)) || got[0].Details != "Max elong +30°" {
			t.Errorf("first = %v %q", got[0].Time, got[0].Details)
		}
		if !got[1].Time.Equal(epochDays(6)) || got[1].Details != "Max elong −30°" {
			t.Errorf("second = %v %q", got[1].Time, got[1].Details)
		}
	})

	t.Run("below threshold", func(t *testing.T) {
		e := NewEngine(p)
		opts := DefaultEventOptions()
		opts.MaxElongationMinDeg = 31
		events, err := e.SynodicEvents(ephem.Venus, epochDays(4), 4, 24, opts)
		if err != nil {
			t.Fatal(err)
		}
		if got := FilterEvents(events, KindSet{EventMaxElongation: true}); len(got) != 0 {
			t.Errorf("got %d max elongations, want 0", len(got))
		}
	})

	t.Run("stations reported", func(t *testing.T) {
		e := NewEngine(p)
		events, err := e.SynodicEvents(ephem.Venus, epochDays(4), 4, 24, DefaultEventOptions())
		if err != nil {
			t.Fatal(err)
		}
		got := FilterEvents(events, KindSet{EventStationRetro: true, EventStationDirect: true})
		if len(got) != 2 || got[0].Kind != EventStationRetro || got[1].Kind != EventStationDirect {
			t.Fatalf("stations = %+v", got)
		}
		if got[0].Label != "S℞" || got[1].Label != "Sᴅ" {
			t.Errorf("labels = %q, %q", got[0].Label, got[1].Label)
		}
	})
}

func TestSynodicEventsSorted(t *testing.T) {
	e := NewEngine(ephemtest.NewLinear(ephem.Venus, 0.3, 0.7))
	events, err := e.SynodicEvents(ephem.Venus, epochDays(10), 30, 6, DefaultEventOptions())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Time.Before(events[i-1].Time) {
			t.Fatalf("events out of order at %d", i)
		}
	}
}

func TestSynodicEventsSun(t *testing.T) {
	e := NewEngine(ephemtest.NewLinear(ephem.Mars, 1, 1))
	events, err := e.SynodicEvents(ephem.Sun, epochDays(0), 10, 6, DefaultEventOptions())
	if err != nil || events == nil || len(events) != 0 {
		t.Errorf("got %v, %v; want empty non-nil", events, err)
	}
}

func TestSynodicEventsSamplingFailure(t *testing.T) {
	e := NewEngine(ephemtest.NewLinear(ephem.Mars, 1, 1))
	if _, err := e.SynodicEvents(ephem.Jupiter, epochDays(0), 1, 6, DefaultEventOptions()); err == nil {
		t.Fatal("expected error for a body the provider cannot serve")
	}
}

func TestSynodicEventsRefinementMiss(t *testing.T) {
	// Step 10h puts the +90° square at 24h between the 20h and 30h samples.
	// The provider has no Mars data strictly inside that bracket, so the
	// grid samples fine and only the square's refinement misses.
	gap := &ephemtest.GapProvider{
		Inner: ephemtest.NewLinear(ephem.Mars, math.Pi/2, 1.5),
		Gaps: func(body ephem.Body, at time.Time) bool {
			h := at.Sub(time.Unix(0, 0)).Hours()
			return body == ephem.Mars && h > 20 && h < 30
		},
	}
	e := NewEngine(gap)

	events, err := e.SynodicEvents(ephem.Mars, epochDays(2), 2, 10, DefaultEventOptions())
	if err != nil {
		t.Fatalf("SynodicEvents() error = %v, want nil", err)
	}

	wantKinds := []EventKind{EventConjunction, EventOpposition, EventSquare, EventConjunction}
	wantDays := []float64{0, 2, 3, 4}
	if len(events) != len(wantKinds) {
		t.Fatalf("got %d events %+v, want %d", len(events), events, len(wantKinds))
	}
	for i, ev := range events {
		if ev.Kind != wantKinds[i] {
			t.Errorf("events[%d].Kind = %s, want %s", i, ev.Kind, wantKinds[i])
		}
		if day := math.Round(astro.DurationDays(ev.Time.Sub(time.Unix(0, 0)))); day != wantDays[i] {
			t.Errorf("events[%d] on day %v, want %v", i, day, wantDays[i])
		}
		if ev.Details == "Square +90°" {
			t.Errorf("events[%d] is the square inside the gap", i)
		}
	}
	if events[2].Details != "Square −90°" {
		t.Errorf("remaining square details = %q", events[2].Details)
	}
}

func TestSynodicEventsZeroOptions(t *testing.T) {
	p := ephemtest.NewCounting(ephemtest.NewLinear(ephem.Mars, math.Pi/2, 1.5))
	e := NewEngine(p)

	want, err := e.SynodicEvents(ephem.Mars, epochDays(2), 2, 12, DefaultEventOptions())
	if err != nil {
		t.Fatal(err)
	}
	calls := p.Total()

	got, err := e.SynodicEvents(ephem.Mars, epochDays(2), 2, 12, EventOptions{})
	if err != nil {
		t.Fatalf("SynodicEvents() error = %v", err)
	}
	if len(got) != len(want) || len(got) != 5 {
		t.Fatalf("zero options gave %d events, defaults gave %d", len(got), len(want))
	}
	if p.Total() != calls {
		t.Errorf("zero options missed the defaults' cache entry: %d more provider calls", p.Total()-calls)
	}
}

func TestEventOptionsWithDefaults(t *testing.T) {
	d := DefaultEventOptions()
	tests := []struct {
		name string
		in   EventOptions
		want EventOptions
	}{
		{"zero", EventOptions{}, EventOptions{OrbDeg: d.OrbDeg, InnerConjOrbDeg: d.InnerConjOrbDeg, StationEpsDegPerDay: d.StationEpsDegPerDay}},
		{"negative", EventOptions{OrbDeg: -1, InnerConjOrbDeg: -1, MaxElongationMinDeg: -1, StationEpsDegPerDay: -1}, d},
		{"NaN orb", EventOptions{OrbDeg: math.NaN(), InnerConjOrbDeg: 2, MaxElongationMinDeg: 5, StationEpsDegPerDay: 0.1}, EventOptions{OrbDeg: d.OrbDeg, InnerConjOrbDeg: 2, MaxElongationMinDeg: 5, StationEpsDegPerDay: 0.1}},
		{"set", EventOptions{OrbDeg: 2, InnerConjOrbDeg: 3, MaxElongationMinDeg: 15, StationEpsDegPerDay: 0.05}, EventOptions{OrbDeg: 2, InnerConjOrbDeg: 3, MaxElongationMinDeg: 15, StationEpsDegPerDay: 0.05}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.withDefaults(); got != tt.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseKindSet(t *testing.T) {
	tests := []struct {
		in      string
		want    []EventKind
		all     bool
		wantErr bool
	}{
		{in: "", all: true},
		{in: "all", all: true},
		{in: "conjunction", want: []EventKind{EventConjunction}},
		{in: "opposition, square", want: []EventKind{EventOpposition, EventSquare}},
		{in: "stations", want: []EventKind{EventStationRetro, EventStationDirect}},
		{in: "eclipse", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			set, err := ParseKindSet(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tt.all {
				if set != nil {
					t.Errorf("set = %v, want nil", set)
				}
				for _, k := range AllEventKinds {
					if !set.Has(k) {
						t.Errorf("nil set missing %s", k)
					}
				}
				return
			}
			if len(set) != len(tt.want) {
				t.Fatalf("set = %v, want %v", set, tt.want)
			}
			for _, k := range tt.want {
				if !set.Has(k) {
					t.Errorf("set missing %s", k)
				}
			}
		})
	}
}

func TestEventElongation(t *testing.T) {
	ev := Event{
		Body: ephem.State{LonRad: astro.DegToRad(10)},
		Sun:  ephem.State{LonRad: astro.DegToRad(350)},
	}
	if got := astro.RadToDeg(ev.Elongation()); math.Abs(got-20) > 1e-9 {
		t.Errorf("Elongation() = %v°, want 20°", got)
	}
}
