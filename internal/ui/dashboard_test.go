package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/report"
	"github.com/litescript/ls-synodic/internal/state"
)

func TestRenderBar(t *testing.T) {
	m := NewDashboardModel()

	tests := []struct {
		name       string
		frac       float64
		wantFilled int
	}{
		{"empty", 0, 0},
		{"half", 0.5, 10},
		{"full", 1, 20},
		{"over", 1.5, 20},
		{"negative", -0.2, 0},
		{"rounds down", 0.49, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := m.renderBar(tt.frac, 20)
			if got := strings.Count(bar, "█"); got != tt.wantFilled {
				t.Errorf("filled = %d, want %d", got, tt.wantFilled)
			}
			if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != 20 {
				t.Errorf("bar width = %d, want 20", got)
			}
		})
	}
}

func TestDashboard_BodyList(t *testing.T) {
	m := NewDashboardModel().SetSize(100, 30)
	m = m.UpdateData(state.Snapshot{Body: ephem.Venus, Instant: epochDays(2)}, nil)

	out := m.View()
	for _, info := range ephem.Bodies {
		if !strings.Contains(out, info.Label) {
			t.Errorf("body list missing %s", info.Label)
		}
	}
	if !strings.Contains(out, "computing...") {
		t.Error("detail should wait for a view")
	}
}

func TestDashboard_Error(t *testing.T) {
	m := NewDashboardModel().SetSize(100, 30)
	m = m.UpdateData(state.Snapshot{
		Body:      ephem.Saturn,
		LastError: errors.New("no data for saturn"),
	}, nil)

	out := m.View()
	if !strings.Contains(out, "Error: no data for saturn") {
		t.Error("missing error line")
	}
	if strings.Contains(out, "computing...") {
		t.Error("failed body should not show computing")
	}
}

func TestDashboard_Detail(t *testing.T) {
	lit := 0.25
	exp := &report.ViewExport{
		Body:       ephem.Moon,
		Label:      "Moon",
		Glyph:      "☽",
		Center:     epochDays(2),
		WindowDays: 30,
		Current: report.PositionExport{
			Zodiac:        "12°30' ♉",
			Sign:          "Taurus",
			Motion:        "direct",
			DegPerDay:     13.2,
			ElongationDeg: -60,
			PhaseDeg:      300,
			DistAU:        0.0026,
			Closeness:     0.5,
		},
		Stations: []report.StationExport{},
		Events: []report.EventExport{
			{Label: "☌", Time: epochDays(1), Zodiac: "0°00' ♈"},
			{Label: "□", Time: epochDays(3), Zodiac: "10°00' ♊", Details: "waxing"},
		},
		Illuminated: &lit,
	}
	m := NewDashboardModel().SetSize(120, 30)
	m = m.UpdateData(state.Snapshot{Body: ephem.Moon, Instant: epochDays(2)}, exp)

	out := m.View()
	for _, want := range []string{
		"12°30' ♉", "Taurus", "+13.200°/day", "−60.0°", "300.0°",
		"25%", "1.3s", "none in window", "1970-01-04 00:00", "waxing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q", want)
		}
	}
	if strings.Contains(out, "1970-01-02 00:00") {
		t.Error("past events should not be listed as upcoming")
	}
	if !strings.Contains(out, "±30 days around 1970-01-03") {
		t.Error("missing window line")
	}
}

func TestFormatLightTime(t *testing.T) {
	tests := []struct {
		sec  float64
		want string
	}{
		{1.28, "1.3s"},
		{89.9, "89.9s"},
		{499.005, "8.3 min"},
	}
	for _, tt := range tests {
		if got := formatLightTime(tt.sec); got != tt.want {
			t.Errorf("formatLightTime(%v) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}
