// Package config holds every tunable of ls-synodic. Defaults come from
// Default; Load layers a .env file and LS_SYNODIC_* environment variables
// on top. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/logging"
	"github.com/litescript/ls-synodic/internal/trail"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LS_SYNODIC_"

// ErrInvalid reports a configuration value out of range.
var ErrInvalid = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	Ephem    EphemConfig
	LogLevel logging.Level
	Bodies   map[ephem.Body]BodyConfig
	Events   EventConfig
	Window   trail.WindowOptions
	Cache    trail.Capacities
	Server   ServerConfig
	Tracing  TracingConfig
	Playback PlaybackConfig
}

// EphemConfig selects and tunes the ephemeris source.
type EphemConfig struct {
	Mode        ephem.Mode
	HorizonsURL string
	Timeout     time.Duration
	Chunk       time.Duration
	TableStep   time.Duration
	CacheDB     string        // SQLite path for fetched tables; empty disables
	CacheMaxAge time.Duration // stored tables older than this are pruned at startup
}

// BodyConfig is the per-body trail sampling and orb setup.
type BodyConfig struct {
	WindowDays      float64 `json:"window_days"` // days either side of the center
	StepHours       float64 `json:"step_hours"`
	OrbDeg          float64 `json:"orb_deg"`
	InnerConjOrbDeg float64 `json:"inner_conj_orb_deg"`
}

// EventConfig holds event thresholds shared by all bodies.
type EventConfig struct {
	StationEpsDegPerDay float64
	MaxElongationMinDeg float64
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// TracingConfig switches OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

// PlaybackConfig sets the instant step of the interactive session.
type PlaybackConfig struct {
	Step     time.Duration
	MinStep  time.Duration
	MaxStep  time.Duration
	EventLog int // crossed events kept in the session log
}

const (
	defaultOrbDeg       = 1.0
	defaultInnerConjOrb = 1.5
)

// defaultBodies is the per-body trail table: window and step, orbs.
var defaultBodies = map[ephem.Body]BodyConfig{
	ephem.Sun:      {WindowDays: 120, StepHours: 12, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultInnerConjOrb},
	ephem.Moon:     {WindowDays: 30, StepHours: 6, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultInnerConjOrb},
	ephem.Mercury:  {WindowDays: 60, StepHours: 6, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultInnerConjOrb},
	ephem.Venus:    {WindowDays: 60, StepHours: 6, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultInnerConjOrb},
	ephem.Mars:     {WindowDays: 240, StepHours: 12, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultOrbDeg},
	ephem.Jupiter:  {WindowDays: 365, StepHours: 12, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultOrbDeg},
	ephem.Saturn:   {WindowDays: 365, StepHours: 12, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultOrbDeg},
	ephem.Uranus:   {WindowDays: 540, StepHours: 24, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultOrbDeg},
	ephem.Neptune:  {WindowDays: 540, StepHours: 24, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultOrbDeg},
	ephem.Pluto:    {WindowDays: 540, StepHours: 24, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultOrbDeg},
	ephem.MeanNode: {WindowDays: 540, StepHours: 24, OrbDeg: defaultOrbDeg, InnerConjOrbDeg: defaultOrbDeg},
}

// Default returns the stock configuration.
func Default() Config {
	bodies := make(map[ephem.Body]BodyConfig, len(defaultBodies))
	for b, bc := range defaultBodies {
		bodies[b] = bc
	}

	window := trail.DefaultWindowOptions()
	window.EnsureConjunctions = true

	events := trail.DefaultEventOptions()

	return Config{
		Ephem: EphemConfig{
			Mode:        ephem.ModeAuto,
			HorizonsURL: ephem.HorizonsAPIURL,
			Timeout:     ephem.RequestTimeout,
			Chunk:       ephem.DefaultChunk,
			TableStep:   ephem.DefaultTableStep,
			CacheMaxAge: 30 * 24 * time.Hour,
		},
		LogLevel: logging.LevelInfo,
		Bodies:   bodies,
		Events: EventConfig{
			StationEpsDegPerDay: events.StationEpsDegPerDay,
			MaxElongationMinDeg: events.MaxElongationMinDeg,
		},
		Window: window,
		Cache:  trail.DefaultCapacities(),
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CorsOrigins:     []string{"*"},
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "ls-synodic",
		},
		Playback: PlaybackConfig{
			Step:     6 * time.Hour,
			MinStep:  time.Hour,
			MaxStep:  30 * 24 * time.Hour,
			EventLog: 50,
		},
	}
}

// Load returns Default overlaid with the given .env files (".env" when none
// are named; missing files are skipped) and then LS_SYNODIC_* variables.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	var errs []error
	env := envReader{errs: &errs}

	if v, ok := lookup("EPHEM"); ok {
		c.Ephem.Mode = ephem.ParseMode(v)
	}
	c.Ephem.HorizonsURL = env.getString("HORIZONS_URL", c.Ephem.HorizonsURL)
	c.Ephem.Timeout = env.getDuration("HORIZONS_TIMEOUT", c.Ephem.Timeout)
	c.Ephem.Chunk = env.getDuration("HORIZONS_CHUNK", c.Ephem.Chunk)
	c.Ephem.TableStep = env.getDuration("HORIZONS_STEP", c.Ephem.TableStep)
	c.Ephem.CacheDB = env.getString("CACHE_DB", c.Ephem.CacheDB)
	c.Ephem.CacheMaxAge = env.getDuration("CACHE_MAX_AGE", c.Ephem.CacheMaxAge)

	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = logging.ParseLevel(v)
	}

	c.Events.StationEpsDegPerDay = env.getFloat("STATION_EPS", c.Events.StationEpsDegPerDay)
	c.Events.MaxElongationMinDeg = env.getFloat("MAX_ELONG_MIN_DEG", c.Events.MaxElongationMinDeg)

	c.Window.EnsureConjunctions = env.getBool("WINDOW_ENSURE_CONJ", c.Window.EnsureConjunctions)
	c.Window.MarginDays = env.getFloat("WINDOW_MARGIN_DAYS", c.Window.MarginDays)
	c.Window.SearchMaxDays = env.getFloat("WINDOW_SEARCH_MAX_DAYS", c.Window.SearchMaxDays)
	c.Window.NearZeroDeg = env.getFloat("WINDOW_NEAR_ZERO_DEG", c.Window.NearZeroDeg)
	c.Window.MaxWindowDays = env.getFloat("WINDOW_MAX_DAYS", c.Window.MaxWindowDays)

	c.Cache.Times = env.getInt("CACHE_TIMES", c.Cache.Times)
	c.Cache.States = env.getInt("CACHE_STATES", c.Cache.States)
	c.Cache.Trails = env.getInt("CACHE_TRAILS", c.Cache.Trails)
	c.Cache.Events = env.getInt("CACHE_EVENTS", c.Cache.Events)
	c.Cache.Windows = env.getInt("CACHE_WINDOWS", c.Cache.Windows)

	c.Server.Addr = env.getString("SERVER_ADDR", c.Server.Addr)
	c.Server.ReadTimeout = env.getDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = env.getDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = env.getDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.CorsOrigins = env.getSlice("SERVER_CORS_ORIGINS", c.Server.CorsOrigins)

	c.Tracing.Enabled = env.getBool("TRACING", c.Tracing.Enabled)
	c.Tracing.ServiceName = env.getString("SERVICE_NAME", c.Tracing.ServiceName)

	c.Playback.Step = env.getDuration("PLAYBACK_STEP", c.Playback.Step)

	// Per-body overrides: LS_SYNODIC_MARS_WINDOW_DAYS, LS_SYNODIC_MARS_STEP_HOURS, ...
	for b, bc := range c.Bodies {
		name := strings.ToUpper(string(b)) + "_"
		bc.WindowDays = env.getFloat(name+"WINDOW_DAYS", bc.WindowDays)
		bc.StepHours = env.getFloat(name+"STEP_HOURS", bc.StepHours)
		bc.OrbDeg = env.getFloat(name+"ORB_DEG", bc.OrbDeg)
		bc.InnerConjOrbDeg = env.getFloat(name+"INNER_CONJ_ORB_DEG", bc.InnerConjOrbDeg)
		c.Bodies[b] = bc
	}

	return errors.Join(errs...)
}

// Validate rejects values the engine cannot work with.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, args...)...))
	}

	for _, info := range ephem.Bodies {
		bc, ok := c.Bodies[info.Body]
		if !ok {
			bad("no trail settings for %s", info.Body)
			continue
		}
		if !(bc.WindowDays > 0) {
			bad("%s window days %v", info.Body, bc.WindowDays)
		}
		if !(bc.StepHours > 0) {
			bad("%s step hours %v", info.Body, bc.StepHours)
		}
		if bc.OrbDeg < 0 || bc.InnerConjOrbDeg < 0 {
			bad("%s negative orb", info.Body)
		}
	}
	if c.Events.StationEpsDegPerDay < 0 {
		bad("station epsilon %v", c.Events.StationEpsDegPerDay)
	}
	if c.Window.MarginDays < 0 || !(c.Window.SearchMaxDays > 0) || !(c.Window.MaxWindowDays > 0) {
		bad("window options %+v", c.Window)
	}
	caps := c.Cache
	if caps.Times < 1 || caps.States < 1 || caps.Trails < 1 || caps.Events < 1 || caps.Windows < 1 {
		bad("cache capacities %+v", caps)
	}
	if c.Ephem.Chunk <= 0 || c.Ephem.TableStep <= 0 || c.Ephem.TableStep > c.Ephem.Chunk {
		bad("horizons chunk %v step %v", c.Ephem.Chunk, c.Ephem.TableStep)
	}
	if c.Playback.Step <= 0 {
		bad("playback step %v", c.Playback.Step)
	}
	return errors.Join(errs...)
}

// Body returns the trail settings for b. Bodies without an entry get the
// Sun's window and step with the default orbs.
func (c Config) Body(b ephem.Body) BodyConfig {
	if bc, ok := c.Bodies[b]; ok {
		return bc
	}
	bc := defaultBodies[ephem.Sun]
	bc.OrbDeg, bc.InnerConjOrbDeg = defaultOrbDeg, defaultOrbDeg
	return bc
}

// EventOptions returns the event detection options for b.
func (c Config) EventOptions(b ephem.Body) trail.EventOptions {
	bc := c.Body(b)
	return trail.EventOptions{
		OrbDeg:              bc.OrbDeg,
		InnerConjOrbDeg:     bc.InnerConjOrbDeg,
		MaxElongationMinDeg: c.Events.MaxElongationMinDeg,
		StationEpsDegPerDay: c.Events.StationEpsDegPerDay,
	}
}

// Request builds the full trail request for b around ref.
func (c Config) Request(b ephem.Body, ref time.Time) trail.Request {
	bc := c.Body(b)
	return trail.Request{
		Body:       b,
		Ref:        ref,
		WindowDays: bc.WindowDays,
		StepHours:  bc.StepHours,
		Window:     c.Window,
		Events:     c.EventOptions(b),
	}
}

// HorizonsConfig returns the provider settings, minus store and logger.
func (c Config) HorizonsConfig() ephem.HorizonsConfig {
	return ephem.HorizonsConfig{
		URL:     c.Ephem.HorizonsURL,
		Timeout: c.Ephem.Timeout,
		Chunk:   c.Ephem.Chunk,
		Step:    c.Ephem.TableStep,
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// envReader parses prefixed variables, collecting parse errors.
type envReader struct {
	errs *[]error
}

func (r envReader) fail(key, v string, err error) {
	*r.errs = append(*r.errs, fmt.Errorf("%w: %s%s=%q: %v", ErrInvalid, EnvPrefix, key, v, err))
}

func (r envReader) getString(key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

func (r envReader) getInt(key string, def int) int {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r envReader) getFloat(key string, def float64) float64 {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r envReader) getBool(key string, def bool) bool {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r envReader) getDuration(key string, def time.Duration) time.Duration {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r envReader) getSlice(key string, def []string) []string {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
