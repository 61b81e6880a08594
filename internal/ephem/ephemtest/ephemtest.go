// Package ephemtest provides synthetic ephemeris providers for tests.
package ephemtest

import (
	"fmt"
	"sync"
	"time"

	"github.com/litescript/ls-synodic/internal/astro"
	"github.com/litescript/ls-synodic/internal/ephem"
)

// LinearProvider moves one body at constant angular velocity against a
// fixed Sun at longitude 0 and distance 1 AU. Other bodies have no data.
type LinearProvider struct {
	Body           ephem.Body
	OmegaRadPerDay float64
	DistAU         float64
	Epoch          time.Time // longitude 0 at Epoch; zero means the Unix epoch
}

// NewLinear returns a LinearProvider anchored at the Unix epoch.
func NewLinear(body ephem.Body, omegaRadPerDay, distAU float64) *LinearProvider {
	return &LinearProvider{Body: body, OmegaRadPerDay: omegaRadPerDay, DistAU: distAU}
}

// Name implements ephem.Provider.
func (p *LinearProvider) Name() string {
	return "Linear"
}

// State implements ephem.Provider.
func (p *LinearProvider) State(body ephem.Body, t time.Time) (ephem.State, error) {
	switch body {
	case ephem.Sun:
		return ephem.State{Body: body, Time: t, DistAU: 1}, nil
	case p.Body:
		epoch := p.Epoch
		if epoch.IsZero() {
			epoch = time.Unix(0, 0)
		}
		days := astro.DurationDays(t.Sub(epoch))
		return ephem.State{
			Body:   body,
			Time:   t,
			LonRad: astro.WrapTo2Pi(p.OmegaRadPerDay * days),
			DistAU: p.DistAU,
		}, nil
	default:
		return ephem.State{}, fmt.Errorf("%w: %s", ephem.ErrNoData, body)
	}
}

// FuncProvider moves one body along Lon, a function of days since the Unix
// epoch, against a fixed Sun at longitude 0 and distance 1 AU.
type FuncProvider struct {
	Body   ephem.Body
	Lon    func(days float64) float64 // radians
	DistAU float64
}

// Name implements ephem.Provider.
func (p *FuncProvider) Name() string {
	return "Func"
}

// State implements ephem.Provider.
func (p *FuncProvider) State(body ephem.Body, t time.Time) (ephem.State, error) {
	switch body {
	case ephem.Sun:
		return ephem.State{Body: body, Time: t, DistAU: 1}, nil
	case p.Body:
		days := astro.DurationDays(t.Sub(time.Unix(0, 0)))
		return ephem.State{Body: body, Time: t, LonRad: astro.WrapTo2Pi(p.Lon(days)), DistAU: p.DistAU}, nil
	default:
		return ephem.State{}, fmt.Errorf("%w: %s", ephem.ErrNoData, body)
	}
}

// GapProvider wraps a provider and reports no data for chosen instants.
type GapProvider struct {
	Inner ephem.Provider
	Gaps  func(body ephem.Body, t time.Time) bool
}

// Name implements ephem.Provider.
func (p *GapProvider) Name() string {
	return p.Inner.Name()
}

// State implements ephem.Provider.
func (p *GapProvider) State(body ephem.Body, t time.Time) (ephem.State, error) {
	if p.Gaps != nil && p.Gaps(body, t) {
		return ephem.State{}, fmt.Errorf("%w: gap for %s", ephem.ErrNoData, body)
	}
	return p.Inner.State(body, t)
}

// CountingProvider wraps a provider and counts calls per body.
type CountingProvider struct {
	Inner ephem.Provider

	mu    sync.Mutex
	calls map[ephem.Body]int
}

// NewCounting wraps inner.
func NewCounting(inner ephem.Provider) *CountingProvider {
	return &CountingProvider{Inner: inner, calls: make(map[ephem.Body]int)}
}

// Name implements ephem.Provider.
func (p *CountingProvider) Name() string {
	return p.Inner.Name()
}

// State implements ephem.Provider.
func (p *CountingProvider) State(body ephem.Body, t time.Time) (ephem.State, error) {
	p.mu.Lock()
	p.calls[body]++
	p.mu.Unlock()
	return p.Inner.State(body, t)
}

// Calls returns the number of State calls made for body.
func (p *CountingProvider) Calls(body ephem.Body) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[body]
}

// Total returns the number of State calls across all bodies.
func (p *CountingProvider) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}
