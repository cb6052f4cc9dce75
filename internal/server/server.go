// Package server exposes prayer days, timer snapshots and timelines as a
// JSON feed for widgets and status displays.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-timer/internal/config"
	"github.com/smokyabdulrahman/prayer-timer/internal/logger"
	"github.com/smokyabdulrahman/prayer-timer/internal/manager"
	"github.com/smokyabdulrahman/prayer-timer/internal/metrics"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
	"github.com/smokyabdulrahman/prayer-timer/internal/timer"
)

const (
	defaultRangeDays = 7
	maxRangeDays     = 31
	maxTimelineLimit = 1000
	// maxCachedTimelines bounds the timeline cache; it is emptied when full.
	maxCachedTimelines = 64
	requestTimeout     = 30 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// Options configure a Server.
type Options struct {
	Request  prayer.Request
	Location *time.Location
	Mode     manager.Mode
	Limit    int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server serves the feed. Calculation inputs can be swapped at runtime by
// config bus events, which also drop cached timelines.
type Server struct {
	mgr *manager.Manager
	log zerolog.Logger
	now func() time.Time

	mu        sync.RWMutex
	req       prayer.Request
	loc       *time.Location
	mode      manager.Mode
	limit     int
	gen       uint64
	timelines map[string][]timer.Timer
}

// New returns a server backed by mgr.
func New(mgr *manager.Manager, opts Options, log zerolog.Logger) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Limit <= 0 {
		opts.Limit = 24
	}
	return &Server{
		mgr:       mgr,
		log:       log.With().Str("component", "server").Logger(),
		now:       opts.Now,
		req:       opts.Request,
		loc:       opts.Location,
		mode:      opts.Mode,
		limit:     opts.Limit,
		timelines: make(map[string][]timer.Timer),
	}
}

// Handler returns the routed feed with its middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestID,
		instrument(s.log),
		recovery(s.log),
		middleware.Timeout(requestTimeout),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, http.StatusNotFound, "no such endpoint", CodeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, http.StatusMethodNotAllowed, "method not allowed", CodeMethodNotAllowed)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/day", s.handleDay)
	r.Get("/timer", s.handleTimer)
	r.Get("/timeline", s.handleTimeline)
	r.Get("/range", s.handleRange)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("serving feed")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.log.Info().Msg("feed shut down")
	return nil
}

// Watch applies config bus changes until ctx is done or the bus closes.
// Each change replaces the request, zone and timer settings together and
// drops cached timelines. The returned channel is closed when watching stops.
func (s *Server) Watch(ctx context.Context, bus *config.Bus) <-chan struct{} {
	return config.Watch(ctx, bus, s.apply)
}

func (s *Server) apply(ev config.Event) {
	loc, err := ev.Config.Zone()
	if err != nil {
		s.log.Warn().Err(err).Msg("keeping previous time zone")
	}

	s.mu.Lock()
	s.req = ev.Config.Request()
	if loc != nil {
		s.loc = loc
	}
	s.mgr.SetSettings(ev.Config.Settings(s.loc))
	s.invalidate()
	s.mu.Unlock()

	s.log.Info().Str("group", string(ev.Group)).Strs("keys", ev.Keys).Msg("configuration applied")
}

// invalidate drops cached timelines. Callers hold mu.
func (s *Server) invalidate() {
	s.gen++
	clear(s.timelines)
}

func (s *Server) snapshot() (prayer.Request, *time.Location) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.req, s.loc
}

// ----------------------------------------------------------------------------
// Handlers
// ----------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = WriteSuccess(w, map[string]string{"status": "ok"})
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	req, loc := s.snapshot()
	date, err := prayer.ParseInstant(r.URL.Query().Get("date"), loc, s.now())
	if err != nil {
		_ = writeBadRequest(w, err.Error())
		return
	}
	day, err := s.mgr.FetchDay(r.Context(), date, req)
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}
	_ = WriteSuccess(w, day)
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	req, loc := s.snapshot()
	at, err := prayer.ParseInstant(r.URL.Query().Get("at"), loc, s.now())
	if err != nil {
		_ = writeBadRequest(w, err.Error())
		return
	}
	t, err := s.mgr.Timer(r.Context(), at, req)
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}
	_ = WriteSuccess(w, t)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.RLock()
	req, loc, mode, limit, gen := s.req, s.loc, s.mode, s.limit, s.gen
	s.mu.RUnlock()

	// Without an explicit start the feed is cached per minute.
	from, err := prayer.ParseInstant(q.Get("from"), loc, s.now().Truncate(time.Minute))
	if err != nil {
		_ = writeBadRequest(w, err.Error())
		return
	}
	if raw := q.Get("mode"); raw != "" {
		if mode, err = manager.ParseMode(raw); err != nil {
			_ = writeBadRequest(w, err.Error())
			return
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err = parseBounded(raw, 1, maxTimelineLimit); err != nil {
			_ = writeBadRequest(w, "limit: "+err.Error())
			return
		}
	}

	key := fmt.Sprintf("%s|%s|%d", from.Format(time.RFC3339), mode, limit)
	s.mu.RLock()
	entries, ok := s.timelines[key]
	s.mu.RUnlock()
	if ok {
		_ = WriteSuccess(w, entries)
		return
	}

	entries, err = s.mgr.FetchTimeline(r.Context(), from, mode, limit, req)
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}

	s.mu.Lock()
	// A config change while building makes the result stale.
	if s.gen == gen {
		if len(s.timelines) >= maxCachedTimelines {
			clear(s.timelines)
		}
		s.timelines[key] = entries
	}
	s.mu.Unlock()

	_ = WriteSuccess(w, entries)
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, loc := s.snapshot()

	from, err := prayer.ParseInstant(q.Get("from"), loc, s.now())
	if err != nil {
		_ = writeBadRequest(w, err.Error())
		return
	}
	days := defaultRangeDays
	if raw := q.Get("days"); raw != "" {
		if days, err = parseBounded(raw, 1, maxRangeDays); err != nil {
			_ = writeBadRequest(w, "days: "+err.Error())
			return
		}
	}

	start := prayer.StartOfDay(from)
	_ = WriteSuccess(w, s.mgr.FetchRange(r.Context(), start, start.AddDate(0, 0, days-1), req))
}

func (s *Server) writeCalcError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContext(r.Context(), s.log)
	l.Error().Err(err).Str("path", r.URL.Path).Msg("calculation failed")

	switch {
	case errors.Is(err, prayer.ErrTimetableFetch):
		_ = WriteError(w, http.StatusBadGateway, err.Error(), CodeUpstream)
	case errors.Is(err, prayer.ErrInvalidParameters),
		errors.Is(err, prayer.ErrInvalidTimes),
		errors.Is(err, prayer.ErrInvalidElevation),
		errors.Is(err, manager.ErrNoTimer):
		_ = WriteError(w, http.StatusUnprocessableEntity, err.Error(), CodeUnprocessable)
	default:
		_ = writeInternalError(w, err.Error())
	}
}

// ----------------------------------------------------------------------------
// Parameters
// ----------------------------------------------------------------------------

func parseBounded(raw string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d out of range %d-%d", n, lo, hi)
	}
	return n, nil
}
