package trail

import (
	"time"

	"github.com/litescript/ls-synodic/internal/ephem"
)

// Request describes one full analysis of a body around a reference instant.
type Request struct {
	Body       ephem.Body
	Ref        time.Time
	WindowDays float64 // base window, days either side
	StepHours  float64
	Window     WindowOptions
	Events     EventOptions
}

// View bundles the resolved window with its analysis and events.
type View struct {
	Window   Window
	Analysis *Analysis
	Events   []Event
}

// View resolves the window, then analyzes motion and finds events over it.
func (e *Engine) View(req Request) (*View, error) {
	req.Events = req.Events.withDefaults()
	w := e.ResolveWindow(req.Body, req.Ref, req.WindowDays, req.StepHours, req.Window)

	analysis, err := e.TrailAnalysis(req.Body, w.Center, w.WindowDays, req.StepHours, req.Events.StationEpsDegPerDay)
	if err != nil {
		return nil, err
	}

	events, err := e.SynodicEvents(req.Body, w.Center, w.WindowDays, req.StepHours, req.Events)
	if err != nil {
		return nil, err
	}

	return &View{Window: w, Analysis: analysis, Events: events}, nil
}
