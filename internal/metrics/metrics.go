// Package metrics exposes Prometheus metrics for the trail caches, the
// ephemeris providers, and the HTTP API.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/lru"
)

// Cache event results.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultEvict = "evict"
)

// Collector bundles the ls-synodic metrics. It implements lru.Recorder and
// ephem.CallObserver. A nil *Collector records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	CacheEvents      *prometheus.CounterVec
	CacheEntries     *prometheus.GaugeVec
	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

var (
	_ lru.Recorder       = (*Collector)(nil)
	_ ephem.CallObserver = (*Collector)(nil)
)

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice against one registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.CacheEvents, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ls_synodic_cache_events_total",
		Help: "Trail cache lookups and evictions, labeled by cache and result.",
	}, []string{"cache", "result"})); err != nil {
		return nil, err
	}
	if c.CacheEntries, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ls_synodic_cache_entries",
		Help: "Current number of entries in each trail cache.",
	}, []string{"cache"})); err != nil {
		return nil, err
	}
	if c.ProviderCalls, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ls_synodic_provider_calls_total",
		Help: "Ephemeris provider state queries, labeled by provider, body, and outcome.",
	}, []string{"provider", "body", "outcome"})); err != nil {
		return nil, err
	}
	if c.ProviderDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ls_synodic_provider_call_duration_seconds",
		Help:    "Ephemeris provider state query latency in seconds.",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	}, []string{"provider"})); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ls_synodic_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"route", "method", "code"})); err != nil {
		return nil, err
	}
	if c.HTTPDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ls_synodic_http_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})); err != nil {
		return nil, err
	}

	return c, nil
}

// CacheHit implements lru.Recorder.
func (c *Collector) CacheHit(cache string) { c.cacheEvent(cache, ResultHit) }

// CacheMiss implements lru.Recorder.
func (c *Collector) CacheMiss(cache string) { c.cacheEvent(cache, ResultMiss) }

// CacheEvict implements lru.Recorder.
func (c *Collector) CacheEvict(cache string) { c.cacheEvent(cache, ResultEvict) }

func (c *Collector) cacheEvent(cache, result string) {
	if c == nil {
		return
	}
	c.CacheEvents.WithLabelValues(cache, result).Inc()
}

// SetCacheSizes publishes the entry count of each cache.
func (c *Collector) SetCacheSizes(sizes map[string]int) {
	if c == nil {
		return
	}
	for name, n := range sizes {
		c.CacheEntries.WithLabelValues(name).Set(float64(n))
	}
}

// ObserveProviderCall implements ephem.CallObserver.
func (c *Collector) ObserveProviderCall(provider string, body ephem.Body, d time.Duration, outcome string) {
	if c == nil {
		return
	}
	c.ProviderCalls.WithLabelValues(provider, string(body), outcome).Inc()
	c.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// Handler exposes the metrics of the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration. route maps a served
// request to its label; it runs after the handler so router patterns are
// available. Empty labels become "other" to bound cardinality.
func (c *Collector) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			label := "other"
			if route != nil {
				if name := route(r); name != "" {
					label = name
				}
			}
			c.HTTPRequests.WithLabelValues(label, r.Method, strconv.Itoa(rw.statusCode)).Inc()
			c.HTTPDuration.WithLabelValues(label, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// register adds col to reg, returning the already registered collector of
// the same type if there is one.
func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %T", are.ExistingCollector)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
