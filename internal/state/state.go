// Package state provides thread-safe session state: the selected body, the
// instant being viewed, playback, and a log of events the instant crossed.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/trail"
)

// Direction is the way the instant moved across an event.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// Crossing records the session instant moving past an event.
type Crossing struct {
	Event     trail.Event `json:"event"`
	Direction Direction   `json:"direction"`
	At        time.Time   `json:"at"` // session instant after the move
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents int
	Step      time.Duration
	MinStep   time.Duration
	MaxStep   time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents: 50,
		Step:      6 * time.Hour,
		MinStep:   time.Hour,
		MaxStep:   30 * 24 * time.Hour,
	}
}

// Manager handles session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Selection
	body    ephem.Body
	instant time.Time

	// Playback
	step    time.Duration
	minStep time.Duration
	maxStep time.Duration
	playing bool

	// Last computed view
	view        *trail.View
	viewBody    ephem.Body
	viewInstant time.Time
	lastUpdate  time.Time
	lastError   error
	duration    time.Duration

	// Crossing log (ring buffer)
	crossings []Crossing
	maxEvents int
	writeAt   int
}

// NewManager creates a session for body at instant.
func NewManager(cfg Config, body ephem.Body, instant time.Time) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	m := &Manager{
		body:      body,
		instant:   instant.UTC(),
		step:      cfg.Step,
		minStep:   cfg.MinStep,
		maxStep:   cfg.MaxStep,
		maxEvents: maxEvents,
		crossings: make([]Crossing, 0, maxEvents),
	}
	if m.minStep <= 0 {
		m.minStep = time.Minute
	}
	if m.maxStep < m.minStep {
		m.maxStep = m.minStep
	}
	m.step = clampStep(m.step, m.minStep, m.maxStep)
	return m
}

// Body returns the selected body.
func (m *Manager) Body() ephem.Body {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.body
}

// Instant returns the instant being viewed.
func (m *Manager) Instant() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instant
}

// SetBody selects a body. The crossing log is kept.
func (m *Manager) SetBody(b ephem.Body) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.body = b
}

// SetInstant jumps to t.
func (m *Manager) SetInstant(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instant = t.UTC()
}

// Advance moves the instant by n playback steps (negative goes back) and
// returns the new instant.
func (m *Manager) Advance(n int) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instant = m.instant.Add(time.Duration(n) * m.step)
	return m.instant
}

// Step returns the playback step.
func (m *Manager) Step() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.step
}

// Faster doubles the playback step, up to the configured maximum.
func (m *Manager) Faster() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = clampStep(m.step*2, m.minStep, m.maxStep)
	return m.step
}

// Slower halves the playback step, down to the configured minimum.
func (m *Manager) Slower() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = clampStep(m.step/2, m.minStep, m.maxStep)
	return m.step
}

// TogglePlay starts or pauses playback and reports whether it is playing.
func (m *Manager) TogglePlay() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = !m.playing
	return m.playing
}

// Playing reports whether playback is running.
func (m *Manager) Playing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playing
}

// Update stores the view computed for body at instant. Events of the new
// view lying between the previous and the new instant for the same body are
// logged as crossings. A nil view records only the error.
func (m *Manager) Update(body ephem.Body, instant time.Time, view *trail.View, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastUpdate = time.Now()
	m.lastError = err
	m.duration = d

	if view == nil {
		return
	}

	instant = instant.UTC()
	if m.view != nil && m.viewBody == body {
		m.detectCrossings(view.Events, m.viewInstant, instant)
	}

	m.view = view
	m.viewBody = body
	m.viewInstant = instant
}

// detectCrossings logs events in (from, to] moving forward or [to, from)
// moving back.
func (m *Manager) detectCrossings(events []trail.Event, from, to time.Time) {
	switch {
	case to.After(from):
		for _, ev := range events {
			if ev.Time.After(from) && !ev.Time.After(to) {
				m.addCrossing(Crossing{Event: ev, Direction: Forward, At: to})
			}
		}
	case to.Before(from):
		for i := len(events) - 1; i >= 0; i-- {
			ev := events[i]
			if ev.Time.Before(from) && !ev.Time.Before(to) {
				m.addCrossing(Crossing{Event: ev, Direction: Backward, At: to})
			}
		}
	}
}

// addCrossing adds a crossing to the ring buffer.
func (m *Manager) addCrossing(c Crossing) {
	if len(m.crossings) < m.maxEvents {
		m.crossings = append(m.crossings, c)
	} else {
		m.crossings[m.writeAt] = c
		m.writeAt = (m.writeAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Body        ephem.Body
	Instant     time.Time
	Step        time.Duration
	Playing     bool
	View        *trail.View // shared with the engine caches; read only
	ViewBody    ephem.Body
	ViewInstant time.Time
	LastUpdate  time.Time
	LastError   error
	Duration    time.Duration
	Crossings   []Crossing
}

// Stale reports whether the stored view was computed for another body or
// instant than the current selection.
func (s Snapshot) Stale() bool {
	return s.View == nil || s.ViewBody != s.Body || !s.ViewInstant.Equal(s.Instant)
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		Body:        m.body,
		Instant:     m.instant,
		Step:        m.step,
		Playing:     m.playing,
		View:        m.view,
		ViewBody:    m.viewBody,
		ViewInstant: m.viewInstant,
		LastUpdate:  m.lastUpdate,
		LastError:   m.lastError,
		Duration:    m.duration,
		Crossings:   m.crossingsOrdered(),
	}
}

// crossingsOrdered returns crossings oldest first.
func (m *Manager) crossingsOrdered() []Crossing {
	if len(m.crossings) == 0 {
		return nil
	}

	if len(m.crossings) < m.maxEvents {
		result := make([]Crossing, len(m.crossings))
		copy(result, m.crossings)
		return result
	}

	result := make([]Crossing, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		result[i] = m.crossings[(m.writeAt+i)%m.maxEvents]
	}
	return result
}

// RecentCrossings returns the last n crossings.
func (m *Manager) RecentCrossings(n int) []Crossing {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.crossingsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// HasView reports whether at least one view has been stored.
func (m *Manager) HasView() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view != nil
}

func clampStep(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
