package calc

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-timer/internal/astro"
	"github.com/smokyabdulrahman/prayer-timer/internal/metrics"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// AstroService computes prayer times astronomically.
type AstroService struct {
	log zerolog.Logger
}

// NewAstroService returns the engine-backed service.
func NewAstroService(log zerolog.Logger) *AstroService {
	return &AstroService{log: log.With().Str("service", "engine").Logger()}
}

// Calculate runs the engine for date and the following day, whose fajr
// bounds the night.
func (s *AstroService) Calculate(ctx context.Context, date time.Time, loc *time.Location, req prayer.Request) (times []prayer.Time, err error) {
	defer func() { metrics.Calculations.WithLabelValues("engine", metrics.Result(err)).Inc() }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := lookup(req)
	if err != nil {
		return nil, err
	}
	day := localDay(date, loc)
	params := m.params(req)

	today, err := astro.Compute(day, day.Location(), req.Coordinates, params)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", day.Format(time.DateOnly), err)
	}
	tomorrow, err := astro.Compute(day.AddDate(0, 0, 1), day.Location(), req.Coordinates, params)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", day.AddDate(0, 0, 1).Format(time.DateOnly), err)
	}

	times, err = finalize(day, m.shift(today), m.shift(tomorrow), req)
	if err != nil {
		s.log.Debug().Err(err).Str("method", string(req.Method)).Msg("calculation rejected")
		return nil, err
	}
	return times, nil
}
