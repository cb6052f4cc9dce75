package calc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/smokyabdulrahman/prayer-timer/internal/api"
	"github.com/smokyabdulrahman/prayer-timer/internal/astro"
	"github.com/smokyabdulrahman/prayer-timer/internal/cache"
	"github.com/smokyabdulrahman/prayer-timer/internal/metrics"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// yearTTL bounds how long a stored year stays valid. Published timetables are
// occasionally corrected, so stored copies are refreshed monthly.
const yearTTL = 30 * 24 * time.Hour

// Fetcher downloads yearly timetables. *api.Client satisfies it.
type Fetcher interface {
	FetchLondonYear(ctx context.Context, year int) (api.YearTable, error)
	FetchAladhanYear(ctx context.Context, year int, p api.AladhanParams) (api.YearTable, error)
}

// TableService serves prayer times from published yearly timetables. Years
// are kept in memory for the life of the process and optionally persisted in
// a cache.Store; concurrent misses for the same year share one download.
type TableService struct {
	client Fetcher
	store  cache.Store
	log    zerolog.Logger

	mu    sync.Mutex
	years map[string]api.YearTable
	group singleflight.Group
}

// NewTableService returns a timetable-backed service. store may be nil.
func NewTableService(client Fetcher, store cache.Store, log zerolog.Logger) *TableService {
	return &TableService{
		client: client,
		store:  store,
		log:    log.With().Str("service", "timetable").Logger(),
		years:  make(map[string]api.YearTable),
	}
}

// Calculate reads the rows for date and the following day. On December 31
// the following row comes from next year's table.
func (s *TableService) Calculate(ctx context.Context, date time.Time, loc *time.Location, req prayer.Request) (times []prayer.Time, err error) {
	source := req.Source()
	if source == prayer.SourceEngine {
		return nil, fmt.Errorf("%w: request has no timetable source", prayer.ErrInvalidParameters)
	}
	defer func() { metrics.Calculations.WithLabelValues(source, metrics.Result(err)).Inc() }()

	day := localDay(date, loc)
	today, err := s.raw(ctx, source, day, req)
	if err != nil {
		return nil, err
	}
	tomorrow, err := s.raw(ctx, source, day.AddDate(0, 0, 1), req)
	if err != nil {
		return nil, err
	}
	return finalize(day, today, tomorrow, req)
}

func (s *TableService) raw(ctx context.Context, source string, day time.Time, req prayer.Request) (astro.Times, error) {
	table, err := s.year(ctx, source, day.Year(), req)
	if err != nil {
		return astro.Times{}, err
	}
	key := day.Format(time.DateOnly)
	row, ok := table[key]
	if !ok {
		return astro.Times{}, fmt.Errorf("%w: %s timetable has no row for %s", prayer.ErrInvalidTimes, source, key)
	}
	return parseRow(row, day, req.Madhab)
}

// parseRow converts a timetable row to instants on day. Hanafi uses the
// second asr column when the table publishes one.
func parseRow(row api.DayTable, day time.Time, madhab prayer.Madhab) (astro.Times, error) {
	asr := row.Asr
	if madhab == prayer.Hanafi && row.AsrHanafi != "" {
		asr = row.AsrHanafi
	}

	var t astro.Times
	fields := []struct {
		dst *time.Time
		raw string
	}{
		{&t.Fajr, row.Fajr},
		{&t.Sunrise, row.Sunrise},
		{&t.Dhuhr, row.Dhuhr},
		{&t.Asr, asr},
		{&t.Maghrib, row.Maghrib},
		{&t.Isha, row.Isha},
	}
	for _, f := range fields {
		v, err := prayer.ParseClock(f.raw, day, day.Location())
		if err != nil {
			return astro.Times{}, fmt.Errorf("%w: %v", prayer.ErrInvalidTimes, err)
		}
		*f.dst = v
	}
	return t, nil
}

// yearKey identifies a cached year. Al Adhan tables depend on the position,
// method and school; the London table does not.
func yearKey(source string, year int, req prayer.Request) (string, api.AladhanParams) {
	if source == prayer.SourceLondon {
		return "timetable:" + cache.Key(source, year), api.AladhanParams{}
	}
	m, err := lookup(req)
	if err != nil {
		m = methods[prayer.MethodMWL]
	}
	p := api.AladhanParams{
		Latitude:  req.Coordinates.Latitude,
		Longitude: req.Coordinates.Longitude,
		Method:    m.aladhan,
		School:    aladhanSchool(req.Madhab),
	}
	return "timetable:" + cache.Key(source, year,
		fmt.Sprintf("%.4f", p.Latitude), fmt.Sprintf("%.4f", p.Longitude), p.Method, p.School), p
}

func (s *TableService) cached(key string) (api.YearTable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.years[key]
	return t, ok
}

func (s *TableService) put(key string, t api.YearTable) {
	s.mu.Lock()
	s.years[key] = t
	s.mu.Unlock()
}

func (s *TableService) year(ctx context.Context, source string, year int, req prayer.Request) (api.YearTable, error) {
	key, params := yearKey(source, year, req)
	if t, ok := s.cached(key); ok {
		metrics.YearCache.WithLabelValues("memory").Inc()
		return t, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// A flight that finished between the check above and Do has
		// already filled the map.
		if t, ok := s.cached(key); ok {
			metrics.YearCache.WithLabelValues("memory").Inc()
			return t, nil
		}
		if s.store != nil {
			var t api.YearTable
			err := s.store.Get(ctx, key, &t)
			switch {
			case err == nil && len(t) > 0:
				metrics.YearCache.WithLabelValues("store").Inc()
				s.put(key, t)
				return t, nil
			case err != nil && !errors.Is(err, cache.ErrMiss):
				s.log.Warn().Err(err).Str("source", source).Int("year", year).Msg("timetable store read failed")
			}
		}

		metrics.YearCache.WithLabelValues("remote").Inc()
		start := time.Now()
		t, err := s.fetch(ctx, source, year, params)
		metrics.ObserveFetch(source, start, err)
		if err != nil {
			s.log.Error().Err(err).Str("source", source).Int("year", year).Msg("timetable fetch failed")
			return nil, fmt.Errorf("%w: %s %d: %w", prayer.ErrTimetableFetch, source, year, err)
		}
		s.log.Info().Str("source", source).Int("year", year).Int("days", len(t)).Msg("timetable fetched")

		s.put(key, t)
		if s.store != nil {
			if err := s.store.Set(ctx, key, t, yearTTL); err != nil {
				s.log.Warn().Err(err).Str("source", source).Int("year", year).Msg("timetable store write failed")
			}
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(api.YearTable), nil
}

func (s *TableService) fetch(ctx context.Context, source string, year int, p api.AladhanParams) (api.YearTable, error) {
	switch source {
	case prayer.SourceLondon:
		return s.client.FetchLondonYear(ctx, year)
	case prayer.SourceAladhan:
		return s.client.FetchAladhanYear(ctx, year, p)
	}
	return nil, fmt.Errorf("unknown timetable source %q", source)
}
