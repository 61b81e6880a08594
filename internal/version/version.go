// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - HTTP API, Prometheus metrics, SQLite table cache, tracing
// 0.2.0 - Synodic events, conjunction-anchored trail windows, Horizons provider
// 0.1.0 - Initial release: analytic ephemeris, trail sampling, retrograde stations, TUI
