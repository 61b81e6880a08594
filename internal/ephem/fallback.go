package ephem

import (
	"sync/atomic"
	"time"

	"github.com/litescript/ls-synodic/internal/logging"
)

// FallbackProvider asks a primary provider first and a secondary one when
// the primary has no data.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
	log       *logging.Logger

	fallbacks atomic.Int64
	warned    atomic.Bool
}

// NewFallbackProvider creates a provider that tries primary, then secondary.
func NewFallbackProvider(primary, secondary Provider, log *logging.Logger) *FallbackProvider {
	if log == nil {
		log = logging.Discard()
	}
	return &FallbackProvider{
		primary:   primary,
		secondary: secondary,
		log:       log.Named("fallback"),
	}
}

// Name implements Provider.
func (p *FallbackProvider) Name() string {
	return p.primary.Name() + "+" + p.secondary.Name()
}

// State implements Provider.
func (p *FallbackProvider) State(body Body, t time.Time) (State, error) {
	s, err := p.primary.State(body, t)
	if err == nil {
		return s, nil
	}

	p.fallbacks.Add(1)
	if !p.warned.Swap(true) {
		p.log.Warn("%s unavailable, using %s: %v", p.primary.Name(), p.secondary.Name(), err)
	}
	return p.secondary.State(body, t)
}

// Fallbacks returns how many calls were served by the secondary provider.
func (p *FallbackProvider) Fallbacks() int64 {
	return p.fallbacks.Load()
}
