// Package trail samples a body's apparent path, classifies its motion,
// detects synodic events, and sizes the sampling window. Results are
// memoized in bounded LRU caches owned by an Engine.
package trail

import (
	"time"

	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/lru"
)

// Cache names, as reported to an lru.Recorder.
const (
	CacheTimes   = "times"
	CacheStates  = "states"
	CacheTrails  = "trails"
	CacheEvents  = "events"
	CacheWindows = "windows"
)

// Capacities sets the entry limit of each cache.
type Capacities struct {
	Times   int
	States  int
	Trails  int
	Events  int
	Windows int
}

// DefaultCapacities returns the stock cache sizes.
func DefaultCapacities() Capacities {
	return Capacities{
		Times:   24,
		States:  64,
		Trails:  24,
		Events:  32,
		Windows: 48,
	}
}

type engineOptions struct {
	caps Capacities
	rec  lru.Recorder
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithCapacities overrides the cache sizes.
func WithCapacities(c Capacities) Option {
	return func(o *engineOptions) { o.caps = c }
}

// WithRecorder reports cache hits, misses, and evictions.
func WithRecorder(rec lru.Recorder) Option {
	return func(o *engineOptions) { o.rec = rec }
}

// Engine binds a provider to its caches, so cached results never mix
// providers. Safe for concurrent use. Returned slices and analyses are
// shared with the caches and must not be modified.
type Engine struct {
	provider ephem.Provider

	times   *lru.Cache[timesKey, []time.Time]
	states  *lru.Cache[statesKey, []ephem.State]
	trails  *lru.Cache[trailKey, *Analysis]
	events  *lru.Cache[eventsKey, []Event]
	windows *lru.Cache[windowKey, Window]
}

type timesKey struct {
	centerMs   int64
	windowDays float64
	stepHours  float64
}

type statesKey struct {
	body ephem.Body
	timesKey
}

type trailKey struct {
	body ephem.Body
	timesKey
	eps float64
}

type eventsKey struct {
	body ephem.Body
	timesKey
	orb         float64
	innerOrb    float64
	maxElongMin float64
	eps         float64
}

type windowKey struct {
	body      ephem.Body
	refMs     int64
	base      float64
	step      float64
	ensure    bool
	margin    float64
	searchMax float64
	nearZero  float64
	maxWindow float64
}

// NewEngine creates an engine with empty caches.
func NewEngine(p ephem.Provider, opts ...Option) *Engine {
	o := engineOptions{caps: DefaultCapacities()}
	for _, opt := range opts {
		opt(&o)
	}

	var cacheOpts []lru.Option
	if o.rec != nil {
		cacheOpts = append(cacheOpts, lru.WithRecorder(o.rec))
	}

	return &Engine{
		provider: p,
		times:    lru.New[timesKey, []time.Time](CacheTimes, o.caps.Times, cacheOpts...),
		states:   lru.New[statesKey, []ephem.State](CacheStates, o.caps.States, cacheOpts...),
		trails:   lru.New[trailKey, *Analysis](CacheTrails, o.caps.Trails, cacheOpts...),
		events:   lru.New[eventsKey, []Event](CacheEvents, o.caps.Events, cacheOpts...),
		windows:  lru.New[windowKey, Window](CacheWindows, o.caps.Windows, cacheOpts...),
	}
}

// Provider returns the bound provider.
func (e *Engine) Provider() ephem.Provider {
	return e.provider
}

// CacheSizes reports the current entry count of each cache by name.
func (e *Engine) CacheSizes() map[string]int {
	return map[string]int{
		CacheTimes:   e.times.Len(),
		CacheStates:  e.states.Len(),
		CacheTrails:  e.trails.Len(),
		CacheEvents:  e.events.Len(),
		CacheWindows: e.windows.Len(),
	}
}

// gridKey truncates center to the millisecond the caches are keyed on.
func gridKey(center time.Time, windowDays, stepHours float64) (timesKey, time.Time) {
	ms := center.UnixMilli()
	return timesKey{centerMs: ms, windowDays: windowDays, stepHours: stepHours}, time.UnixMilli(ms).UTC()
}

// SampleTimes returns the cached sample grid around center.
func (e *Engine) SampleTimes(center time.Time, windowDays, stepHours float64) ([]time.Time, error) {
	key, center := gridKey(center, windowDays, stepHours)
	return e.times.GetOrCompute(key, func() ([]time.Time, error) {
		return SampleTimes(center, windowDays, stepHours)
	})
}

// BodySamples returns the cached states of body over the sample grid.
func (e *Engine) BodySamples(body ephem.Body, center time.Time, windowDays, stepHours float64) ([]ephem.State, error) {
	grid, _ := gridKey(center, windowDays, stepHours)
	return e.states.GetOrCompute(statesKey{body: body, timesKey: grid}, func() ([]ephem.State, error) {
		times, err := e.SampleTimes(center, windowDays, stepHours)
		if err != nil {
			return nil, err
		}
		return SampleStates(e.provider, body, times)
	})
}
