// Command ls-synodic samples planet trails, finds synodic events, and shows
// them in a terminal UI, as headless reports, or over an HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-synodic/internal/api"
	"github.com/litescript/ls-synodic/internal/config"
	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/logging"
	"github.com/litescript/ls-synodic/internal/metrics"
	"github.com/litescript/ls-synodic/internal/observability"
	"github.com/litescript/ls-synodic/internal/report"
	"github.com/litescript/ls-synodic/internal/state"
	"github.com/litescript/ls-synodic/internal/store"
	"github.com/litescript/ls-synodic/internal/trail"
	"github.com/litescript/ls-synodic/internal/ui"
)

// CLI flags for headless mode
var (
	summaryMode bool
	jsonMode    bool
	eventsLimit int
	serveMode   bool
	bodyName    string
	atFlag      string
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse flags; empty values keep the configured setting
	ephemMode := flag.String("ephem", "", "Ephemeris source (auto, analytic, horizons)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	cacheDB := flag.String("cache-db", "", "SQLite file caching Horizons tables")
	envFile := flag.String("env", ".env", "Environment file to load")
	addr := flag.String("addr", "", "Listen address for -serve")
	flag.StringVar(&bodyName, "body", "mars", "Body to show (sun, moon, mercury ... pluto, node)")
	flag.StringVar(&atFlag, "at", "", "Reference instant, RFC3339 or YYYY-MM-DD (default now)")
	flag.BoolVar(&summaryMode, "summary", false, "Print a summary of all bodies instead of TUI")
	flag.BoolVar(&jsonMode, "json", false, "Print JSON (the body's view, or all bodies with -summary)")
	flag.IntVar(&eventsLimit, "events", 0, "Print up to N events of the body")
	flag.BoolVar(&serveMode, "serve", false, "Serve the HTTP API instead of the TUI")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *ephemMode != "" {
		cfg.Ephem.Mode = ephem.ParseMode(*ephemMode)
	}
	if *logLevel != "" {
		cfg.LogLevel = logging.ParseLevel(*logLevel)
	}
	if *cacheDB != "" {
		cfg.Ephem.CacheDB = *cacheDB
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	body, err := ephem.ParseBody(bodyName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	at, err := parseAt(atFlag, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	headless := summaryMode || jsonMode || eventsLimit > 0 || !isTTY
	tui := !headless && !serveMode

	// Set up logging; the TUI owns the terminal
	logger := logging.New(cfg.LogLevel)
	if tui {
		logger.SetOutput(io.Discard)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	}, logger)
	if err != nil {
		logger.Error("Tracing setup failed: %v", err)
		return 1
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	// Initialize components
	hcfg := cfg.HorizonsConfig()
	hcfg.Logger = logger
	if cfg.Ephem.CacheDB != "" && cfg.Ephem.Mode != ephem.ModeAnalytic {
		st, err := openStore(ctx, cfg.Ephem, logger)
		if err != nil {
			logger.Error("Table cache: %v", err)
			return 1
		}
		defer st.Close()
		hcfg.Store = st
	}

	collector, err := metrics.NewCollector(nil)
	if err != nil {
		logger.Error("Metrics setup failed: %v", err)
		return 1
	}
	provider := ephem.Instrument(ephem.NewProvider(cfg.Ephem.Mode, hcfg), collector)
	engine := trail.NewEngine(provider,
		trail.WithCapacities(cfg.Cache),
		trail.WithRecorder(collector),
	)
	logger.Debug("Ephemeris source %s (mode %s)", provider.Name(), cfg.Ephem.Mode)

	if serveMode {
		if err := serve(ctx, cfg, engine, collector, logger); err != nil {
			logger.Error("Server: %v", err)
			return 1
		}
		return 0
	}

	// Headless mode: no TUI
	if headless {
		if err := runHeadless(engine, cfg, body, at); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	// Create TUI model
	stateMgr := state.NewManager(state.Config{
		MaxEvents: cfg.Playback.EventLog,
		Step:      cfg.Playback.Step,
		MinStep:   cfg.Playback.MinStep,
		MaxStep:   cfg.Playback.MaxStep,
	}, body, at)
	model := ui.New(stateMgr, engine, cfg)

	// Run TUI (blocks until quit)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return 1
	}
	return 0
}

// openStore opens the table cache and drops tables older than the
// configured age.
func openStore(ctx context.Context, cfg config.EphemConfig, logger *logging.Logger) (*store.Store, error) {
	st, err := store.Open(cfg.CacheDB)
	if err != nil {
		return nil, err
	}
	if cfg.CacheMaxAge > 0 {
		n, err := st.Prune(ctx, time.Now().Add(-cfg.CacheMaxAge))
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("prune: %w", err)
		}
		if n > 0 {
			logger.Info("Pruned %d cached tables older than %v", n, cfg.CacheMaxAge)
		}
	}
	if stats, err := st.Stats(ctx); err == nil {
		logger.Debug("Table cache %s: %d chunks, %d rows", cfg.CacheDB, stats.Chunks, stats.Rows)
	}
	return st, nil
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config, engine *trail.Engine, collector *metrics.Collector, logger *logging.Logger) error {
	srv := api.NewServer(cfg, engine, collector, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving API on %s", srv.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// runHeadless handles all headless modes without starting TUI.
func runHeadless(engine *trail.Engine, cfg config.Config, body ephem.Body, at time.Time) error {
	// Single body: JSON view or event list
	if !summaryMode && (jsonMode || eventsLimit > 0) {
		exp, err := report.Build(engine, cfg.Request(body, at))
		if err != nil {
			return err
		}
		if jsonMode {
			if err := exp.WriteJSON(os.Stdout); err != nil {
				return fmt.Errorf("write JSON to stdout: %w", err)
			}
			return nil
		}
		report.WriteEvents(os.Stdout, exp, eventsLimit)
		return nil
	}

	// Summary of every body
	var (
		views  []*report.ViewExport
		rows   []report.SummaryRow
		failed int
	)
	for _, info := range ephem.Bodies {
		exp, err := report.Build(engine, cfg.Request(info.Body, at))
		if err != nil {
			rows = append(rows, report.ErrorRow(info.Body, err))
			failed++
			continue
		}
		views = append(views, exp)
		rows = append(rows, report.SummaryRows([]*report.ViewExport{exp})...)
	}

	if jsonMode {
		if err := report.WriteJSON(os.Stdout, views); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
	} else {
		report.WriteSummaryTable(os.Stdout, rows, at)
	}

	if eventsLimit > 0 && !jsonMode {
		for _, v := range views {
			if v.Body == body {
				fmt.Println()
				report.WriteEvents(os.Stdout, v, eventsLimit)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d bodies failed", failed, len(ephem.Bodies))
	}
	return nil
}

// parseAt reads the -at flag; empty means now.
func parseAt(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid -at %q: want RFC3339 or YYYY-MM-DD", s)
}
