// Package manager assembles prayer days from a calculation service and
// expands them into ranges and forward-looking timer timelines.
package manager

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smokyabdulrahman/prayer-timer/internal/calc"
	"github.com/smokyabdulrahman/prayer-timer/internal/metrics"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
	"github.com/smokyabdulrahman/prayer-timer/internal/timer"
)

// rangeConcurrency bounds the per-day fan-out of FetchRange.
const rangeConcurrency = 8

// ErrNoTimer is returned when a day cannot resolve a timer for an instant.
var ErrNoTimer = errors.New("no current prayer")

// Manager dispatches requests to the engine or a timetable service and
// builds days, ranges and timelines from the result.
type Manager struct {
	engine calc.Service
	table  calc.Service
	log    zerolog.Logger

	mu       sync.RWMutex
	settings timer.Settings
}

// New returns a manager. table may be nil when no timetable source is used.
func New(engine, table calc.Service, settings timer.Settings, log zerolog.Logger) *Manager {
	return &Manager{
		engine:   engine,
		table:    table,
		settings: settings,
		log:      log.With().Str("component", "manager").Logger(),
	}
}

// Settings returns the timer settings used for timelines.
func (m *Manager) Settings() timer.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// SetSettings replaces the timer settings, typically after a config change.
func (m *Manager) SetSettings(s timer.Settings) {
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
}

func (m *Manager) service(req prayer.Request) (calc.Service, error) {
	if req.Source() == prayer.SourceEngine {
		return m.engine, nil
	}
	if m.table == nil {
		return nil, fmt.Errorf("%w: no timetable service for source %q", prayer.ErrInvalidParameters, req.Source())
	}
	return m.table, nil
}

// FetchDay builds the prayer day of date, in date's location, together with
// the neighbouring days. Any calculation error is returned.
func (m *Manager) FetchDay(ctx context.Context, date time.Time, req prayer.Request) (*prayer.Day, error) {
	svc, err := m.service(req)
	if err != nil {
		return nil, err
	}
	loc := date.Location()
	day := prayer.StartOfDay(date)

	var today, yesterday, tomorrow []prayer.Time
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		today, err = svc.Calculate(ctx, day, loc, req)
		return err
	})
	g.Go(func() (err error) {
		yesterday, err = svc.Calculate(ctx, day.AddDate(0, 0, -1), loc, req)
		return err
	})
	g.Go(func() (err error) {
		tomorrow, err = svc.Calculate(ctx, day.AddDate(0, 0, 1), loc, req)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch day %s: %w", day.Format(time.DateOnly), err)
	}

	return &prayer.Day{Date: day, Times: today, Yesterday: yesterday, Tomorrow: tomorrow}, nil
}

// Timer resolves the timer state at instant under the current settings.
func (m *Manager) Timer(ctx context.Context, at time.Time, req prayer.Request) (timer.Timer, error) {
	day, err := m.FetchDay(ctx, at, req)
	if err != nil {
		return timer.Timer{}, err
	}
	t, ok := timer.Resolve(at, day, m.Settings())
	if !ok {
		return timer.Timer{}, fmt.Errorf("%w at %s", ErrNoTimer, at.Format(time.RFC3339))
	}
	return t, nil
}

// FetchRange fetches one day per calendar day from start through end. Days
// are computed concurrently; a day that fails is logged and left out.
func (m *Manager) FetchRange(ctx context.Context, start, end time.Time, req prayer.Request) []*prayer.Day {
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	slots := make([]*prayer.Day, len(dates))
	var g errgroup.Group
	g.SetLimit(rangeConcurrency)
	for i, d := range dates {
		g.Go(func() error {
			day, err := m.FetchDay(ctx, d, req)
			if err != nil {
				m.log.Warn().Err(err).Time("date", d).Msg("skipping day in range")
				return nil
			}
			slots[i] = day
			return nil
		})
	}
	_ = g.Wait()

	days := make([]*prayer.Day, 0, len(slots))
	for _, d := range slots {
		if d != nil {
			days = append(days, d)
		}
	}
	slices.SortFunc(days, func(a, b *prayer.Day) int { return a.Date.Compare(b.Date) })
	return days
}

// FetchTimeline materialises timer states from the prayer current at date
// onwards, day by day, until limit entries are collected. A timer for date
// itself is then inserted at its sorted position unless an entry already
// sits on that instant, so the result may hold limit+1 entries. A day that
// fails to compute ends the timeline early; what was collected is returned.
func (m *Manager) FetchTimeline(ctx context.Context, date time.Time, mode Mode, limit int, req prayer.Request) ([]timer.Timer, error) {
	s := m.Settings()
	var (
		entries []timer.Timer
		first   *prayer.Day
	)

	for at := date; len(entries) < limit; {
		if err := ctx.Err(); err != nil {
			return entries, err
		}
		day, err := m.FetchDay(ctx, at, req)
		if err != nil {
			m.log.Error().Err(err).Time("at", at).Msg("timeline stopped")
			break
		}
		batch, ok := m.batch(at, day, mode, s)
		if !ok {
			m.log.Error().Time("at", at).Msg("no current prayer for timeline")
			break
		}
		// Consecutive days can overlap around the night, so merge before
		// counting.
		entries = merge(entries, batch)
		if first == nil {
			first = day
		}
		if len(day.Tomorrow) == 0 {
			break
		}
		at = day.Tomorrow[0].Start
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}

	if first != nil {
		entries = insert(entries, date, first, s)
	}
	metrics.TimelineEntries.Observe(float64(len(entries)))
	return entries, nil
}

// batch seeds one day: the prayer current at at, then every later essential
// prayer of the day, each expanded under mode.
func (m *Manager) batch(at time.Time, day *prayer.Day, mode Mode, s timer.Settings) ([]timer.Timer, bool) {
	current, ok := day.Current(at)
	if !ok {
		return nil, false
	}
	seed := []prayer.Time{current}
	for _, pt := range day.Essential() {
		if !pt.Start.Before(current.End) {
			seed = append(seed, pt)
		}
	}

	var dates []time.Time
	for _, pt := range seed {
		dates = append(dates, mode.instants(pt, s)...)
	}

	var out []timer.Timer
	for _, t := range timer.SortInstants(dates) {
		if entry, ok := timer.Resolve(t, day, s); ok {
			out = append(out, entry)
		}
	}
	return out, len(out) > 0
}

// merge adds batch to entries in time order, keeping the earlier entry when
// two share an instant.
func merge(entries, batch []timer.Timer) []timer.Timer {
	entries = append(entries, batch...)
	slices.SortStableFunc(entries, func(a, b timer.Timer) int { return a.At.Compare(b.At) })
	return slices.CompactFunc(entries, func(a, b timer.Timer) bool { return a.At.Equal(b.At) })
}

func insert(entries []timer.Timer, date time.Time, day *prayer.Day, s timer.Settings) []timer.Timer {
	i, found := slices.BinarySearchFunc(entries, date, func(e timer.Timer, t time.Time) int { return e.At.Compare(t) })
	if found {
		return entries
	}
	entry, ok := timer.Resolve(date, day, s)
	if !ok {
		return entries
	}
	return slices.Insert(entries, i, entry)
}
