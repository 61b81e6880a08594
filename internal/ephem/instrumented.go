package ephem

import (
	"errors"
	"time"
)

// CallObserver receives the outcome of each provider call.
type CallObserver interface {
	ObserveProviderCall(provider string, body Body, d time.Duration, outcome string)
}

// Call outcomes reported to a CallObserver.
const (
	OutcomeOK     = "ok"
	OutcomeNoData = "no_data"
	OutcomeError  = "error"
)

// Instrumented wraps a provider and reports every call to an observer.
type Instrumented struct {
	inner Provider
	obs   CallObserver
}

// Instrument wraps p. A nil observer returns p unchanged.
func Instrument(p Provider, obs CallObserver) Provider {
	if obs == nil {
		return p
	}
	return &Instrumented{inner: p, obs: obs}
}

// Name implements Provider.
func (p *Instrumented) Name() string {
	return p.inner.Name()
}

// State implements Provider.
func (p *Instrumented) State(body Body, t time.Time) (State, error) {
	start := time.Now()
	s, err := p.inner.State(body, t)

	outcome := OutcomeOK
	switch {
	case errors.Is(err, ErrNoData):
		outcome = OutcomeNoData
	case err != nil:
		outcome = OutcomeError
	}
	p.obs.ObserveProviderCall(p.inner.Name(), body, time.Since(start), outcome)

	return s, err
}
