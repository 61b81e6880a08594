package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/litescript/ls-synodic/internal/ephem"
	"github.com/litescript/ls-synodic/internal/report"
	"github.com/litescript/ls-synodic/internal/trail"
	"github.com/litescript/ls-synodic/internal/version"
)

var tracer = otel.Tracer("github.com/litescript/ls-synodic/internal/api")

// errBadParam reports an unparseable or out-of-range query parameter.
var errBadParam = errors.New("bad parameter")

// BodyResponse describes one body in the registry listing.
type BodyResponse struct {
	Body       ephem.Body `json:"body"`
	Label      string     `json:"label"`
	Glyph      string     `json:"glyph"`
	NAIFID     int        `json:"naif_id,omitempty"`
	WindowDays float64    `json:"window_days"`
	StepHours  float64    `json:"step_hours"`
	OrbDeg     float64    `json:"orb_deg"`
}

// EventsResponse is the body of the events endpoint.
type EventsResponse struct {
	Body   ephem.Body           `json:"body"`
	Window trail.Window         `json:"window"`
	Events []report.EventExport `json:"events"`
}

// WindowResponse is the body of the window endpoint.
type WindowResponse struct {
	Body ephem.Body `json:"body"`
	Ref  time.Time  `json:"ref"`
	Base float64    `json:"base_window_days"`
	trail.Window
}

// SummaryEntry is one body of the summary endpoint; Error is set instead of
// View when the body could not be computed.
type SummaryEntry struct {
	Body  ephem.Body         `json:"body"`
	View  *report.ViewExport `json:"view,omitempty"`
	Error string             `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.collector.SetCacheSizes(s.engine.CacheSizes())
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  version.Version,
		"provider": s.engine.Provider().Name(),
		"caches":   s.engine.CacheSizes(),
	})
}

func (s *Server) listBodies(w http.ResponseWriter, r *http.Request) {
	out := make([]BodyResponse, 0, len(ephem.Bodies))
	for _, info := range ephem.Bodies {
		bc := s.cfg.Body(info.Body)
		out = append(out, BodyResponse{
			Body:       info.Body,
			Label:      info.Label,
			Glyph:      info.Glyph,
			NAIFID:     info.NAIFID,
			WindowDays: bc.WindowDays,
			StepHours:  bc.StepHours,
			OrbDeg:     bc.OrbDeg,
		})
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) getTrail(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseRequest(w, r)
	if !ok {
		return
	}

	_, span := tracer.Start(r.Context(), "api.trail", spanAttrs(req))
	defer span.End()

	exp, err := report.Build(s.engine, req)
	if err != nil {
		s.respondWithComputeError(w, span, err)
		return
	}
	s.collector.SetCacheSizes(s.engine.CacheSizes())
	respondWithJSON(w, http.StatusOK, exp)
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseRequest(w, r)
	if !ok {
		return
	}
	kinds, err := trail.ParseKindSet(r.URL.Query().Get("kinds"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, span := tracer.Start(r.Context(), "api.events", spanAttrs(req))
	defer span.End()

	view, err := s.engine.View(req)
	if err != nil {
		s.respondWithComputeError(w, span, err)
		return
	}
	s.collector.SetCacheSizes(s.engine.CacheSizes())

	filtered := trail.FilterEvents(view.Events, kinds)
	out := EventsResponse{
		Body:   req.Body,
		Window: view.Window,
		Events: make([]report.EventExport, 0, len(filtered)),
	}
	for _, ev := range filtered {
		out.Events = append(out.Events, report.ExportEvent(ev))
	}
	span.SetAttributes(attribute.Int("events", len(out.Events)))
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) getWindow(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseRequest(w, r)
	if !ok {
		return
	}

	_, span := tracer.Start(r.Context(), "api.window", spanAttrs(req))
	defer span.End()

	win := s.engine.ResolveWindow(req.Body, req.Ref, req.WindowDays, req.StepHours, req.Window)
	s.collector.SetCacheSizes(s.engine.CacheSizes())
	respondWithJSON(w, http.StatusOK, WindowResponse{
		Body:   req.Body,
		Ref:    req.Ref,
		Base:   req.WindowDays,
		Window: win,
	})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	ref, err := parseTime(r.URL.Query().Get("at"), s.now())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, span := tracer.Start(r.Context(), "api.summary",
		trace.WithAttributes(attribute.String("ref", ref.Format(time.RFC3339))))
	defer span.End()

	out := make([]SummaryEntry, 0, len(ephem.Bodies))
	failed := 0
	for _, info := range ephem.Bodies {
		entry := SummaryEntry{Body: info.Body}
		exp, err := report.Build(s.engine, s.cfg.Request(info.Body, ref))
		if err != nil {
			failed++
			entry.Error = err.Error()
			s.log.Debug("summary %s: %v", info.Body, err)
		} else {
			entry.View = exp
		}
		out = append(out, entry)
	}
	span.SetAttributes(attribute.Int("failed", failed))
	s.collector.SetCacheSizes(s.engine.CacheSizes())
	respondWithJSON(w, http.StatusOK, out)
}

// parseRequest builds a trail request from the path body and the at,
// window, step and ensure query parameters. On failure it has already
// written the error response.
func (s *Server) parseRequest(w http.ResponseWriter, r *http.Request) (trail.Request, bool) {
	body, err := ephem.ParseBody(chi.URLParam(r, "body"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return trail.Request{}, false
	}

	q := r.URL.Query()
	ref, err := parseTime(q.Get("at"), s.now())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return trail.Request{}, false
	}

	req := s.cfg.Request(body, ref)
	if req.WindowDays, err = parsePositive(q, "window", req.WindowDays); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return trail.Request{}, false
	}
	if req.StepHours, err = parsePositive(q, "step", req.StepHours); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return trail.Request{}, false
	}
	if v := q.Get("ensure"); v != "" {
		ensure, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("%v: ensure=%q", errBadParam, v))
			return trail.Request{}, false
		}
		req.Window.EnsureConjunctions = ensure
	}
	return req, true
}

// parseTime accepts RFC 3339 or Unix milliseconds; empty means def.
func parseTime(v string, def time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return def.UTC(), nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: at=%q is neither RFC 3339 nor Unix milliseconds", errBadParam, v)
	}
	return t.UTC(), nil
}

func parsePositive(q url.Values, key string, def float64) (float64, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !(f > 0) || f > 1e6 {
		return 0, fmt.Errorf("%w: %s=%q must be a positive number", errBadParam, key, v)
	}
	return f, nil
}

func spanAttrs(req trail.Request) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("body", string(req.Body)),
		attribute.String("ref", req.Ref.Format(time.RFC3339)),
		attribute.Float64("window_days", req.WindowDays),
		attribute.Float64("step_hours", req.StepHours),
	)
}

// respondWithComputeError maps engine errors: a bad grid is the caller's
// fault, missing ephemeris data is unprocessable, anything else is ours.
func (s *Server) respondWithComputeError(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	switch {
	case errors.Is(err, trail.ErrInvalidGrid):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ephem.ErrNoData):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error("compute: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
