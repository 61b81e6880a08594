// Package api serves trail views, events and windows over HTTP as JSON.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/litescript/ls-synodic/internal/config"
	"github.com/litescript/ls-synodic/internal/logging"
	"github.com/litescript/ls-synodic/internal/metrics"
	"github.com/litescript/ls-synodic/internal/trail"
)

// Server is the HTTP front end over one trail engine.
type Server struct {
	cfg       config.Config
	engine    *trail.Engine
	collector *metrics.Collector
	log       *logging.Logger
	now       func() time.Time

	router *chi.Mux
	server *http.Server
}

// NewServer builds the router and the underlying http.Server. collector may
// be nil, in which case /metrics serves the default registry.
func NewServer(cfg config.Config, engine *trail.Engine, collector *metrics.Collector, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		cfg:       cfg,
		engine:    engine,
		collector: collector,
		log:       log.Named("api"),
		now:       time.Now,
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) routes() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(s.collector.Middleware(routePattern))
	if s.cfg.Server.WriteTimeout > 0 {
		router.Use(middleware.Timeout(s.cfg.Server.WriteTimeout))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CorsOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Route("/v1", func(r chi.Router) {
			r.Get("/summary", s.summary)

			r.Route("/bodies", func(r chi.Router) {
				r.Get("/", s.listBodies)
				r.Route("/{body}", func(r chi.Router) {
					r.Get("/", s.getTrail)
					r.Get("/events", s.getEvents)
					r.Get("/window", s.getWindow)
				})
			})
		})
	})

	router.Method(http.MethodGet, "/metrics", s.collector.Handler())
	return router
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// ListenAndServe starts the HTTP server. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// routePattern labels a request by its matched chi pattern.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

// requestLogger logs one line per request at debug level, warn for 5xx.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logf := s.log.Debug
		if status >= 500 {
			logf = s.log.Warn
		}
		logf("%s %s -> %d (%d bytes, %v) [%s]",
			r.Method, r.URL.RequestURI(), status, ww.BytesWritten(),
			time.Since(start).Round(time.Microsecond), middleware.GetReqID(r.Context()))
	})
}
