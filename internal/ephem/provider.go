// Package ephem provides geocentric ecliptic states for solar-system bodies.
package ephem

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoData reports that a provider has no state for a body at an instant.
var ErrNoData = errors.New("no ephemeris data")

// State is one geocentric ecliptic sample. Values are immutable once returned.
type State struct {
	Body   Body
	Time   time.Time
	LonRad float64 // ecliptic longitude, [0, 2π)
	LatRad float64 // ecliptic latitude
	DistAU float64 // geocentric distance
}

// Provider defines the interface for ephemeris data sources.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// State returns the geocentric ecliptic state of body at t.
	// Absent data is an error wrapping ErrNoData.
	State(body Body, t time.Time) (State, error)
}

// noData builds an ErrNoData error naming the body and instant.
func noData(body Body, t time.Time, reason string) error {
	return fmt.Errorf("%w: %s at %s: %s", ErrNoData, body, t.UTC().Format(time.RFC3339), reason)
}

// Mode represents which ephemeris source to use.
type Mode int

const (
	ModeAuto     Mode = iota // Try Horizons, fall back to analytic (default)
	ModeAnalytic             // Offline analytic series only
	ModeHorizons             // JPL Horizons only
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeAnalytic:
		return "analytic"
	case ModeHorizons:
		return "horizons"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string.
func ParseMode(s string) Mode {
	switch s {
	case "analytic":
		return ModeAnalytic
	case "horizons":
		return ModeHorizons
	case "auto":
		return ModeAuto
	default:
		return ModeAuto
	}
}

// NewProvider builds the provider for a mode. Horizons settings are ignored
// in analytic mode.
func NewProvider(mode Mode, cfg HorizonsConfig) Provider {
	switch mode {
	case ModeAnalytic:
		return NewAnalyticProvider()
	case ModeHorizons:
		return NewHorizonsProvider(cfg)
	default:
		return NewFallbackProvider(NewHorizonsProvider(cfg), NewAnalyticProvider(), cfg.Logger)
	}
}
