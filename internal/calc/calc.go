// Package calc turns a calculation request into a validated set of prayer
// windows for one date. Two services implement the same contract: the
// astronomical engine and a published yearly timetable. Both share one
// adjustment and validation pipeline.
package calc

import (
	"context"
	"fmt"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/astro"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// Service computes the prayer windows for the calendar date of date in loc.
type Service interface {
	Calculate(ctx context.Context, date time.Time, loc *time.Location, req prayer.Request) ([]prayer.Time, error)
}

const ramadanIshaLead = 30 * time.Minute

// localDay returns midnight of date's calendar day in loc.
func localDay(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = date.Location()
	}
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }

func round(t astro.Times) astro.Times {
	return astro.Times{
		Fajr:    t.Fajr.Round(time.Minute),
		Sunrise: t.Sunrise.Round(time.Minute),
		Dhuhr:   t.Dhuhr.Round(time.Minute),
		Asr:     t.Asr.Round(time.Minute),
		Maghrib: t.Maghrib.Round(time.Minute),
		Isha:    t.Isha.Round(time.Minute),
	}
}

// adjustFajr applies the fajr offset. In sunrise-relative mode the offset is
// taken from the adjusted sunrise and only accepted when it stays before it.
// A zero offset keeps the raw fajr in either mode.
func adjustFajr(t astro.Times, adj prayer.Adjustments) time.Time {
	if !adj.FajrSunriseRelative || adj.Fajr == 0 {
		return t.Fajr.Add(minutes(adj.Fajr))
	}
	sunrise := t.Sunrise.Add(minutes(adj.Sunrise))
	if c := sunrise.Add(minutes(adj.Fajr)); c.Before(sunrise) {
		return c
	}
	return t.Fajr
}

// IsRamadan reports whether date falls in Ramadan on the Umm al-Qura calendar.
func IsRamadan(date time.Time) bool {
	h, err := prayer.ToHijri(date)
	if err != nil {
		return false
	}
	return h.IsRamadan()
}

// finalize applies adjustments to raw times, validates ordering, derives the
// night subdivisions and builds the filtered windows. Every instant is
// rounded to the minute.
func finalize(date time.Time, today, tomorrow astro.Times, req prayer.Request) ([]prayer.Time, error) {
	today, tomorrow = round(today), round(tomorrow)
	adj := req.Adjustments

	fajr := adjustFajr(today, adj)
	sunrise := today.Sunrise.Add(minutes(adj.Sunrise))
	dhuhr := today.Dhuhr.Add(minutes(adj.Dhuhr))
	asr := today.Asr.Add(minutes(adj.Asr))
	maghrib := today.Maghrib.Add(minutes(adj.Maghrib))
	tomorrowFajr := adjustFajr(tomorrow, adj)

	isha := today.Isha.Add(minutes(adj.Isha))
	if adj.IshaMaghribRelative && adj.Isha != 0 {
		isha = today.Isha
		if c := maghrib.Add(minutes(adj.Isha)); c.Before(tomorrowFajr) {
			isha = c
		}
	}
	if req.Method == prayer.MethodMakkahRamadan && adj.Isha == 0 && IsRamadan(date) {
		if c := isha.Add(ramadanIshaLead); c.Before(tomorrowFajr) {
			isha = c
		}
	}

	if !fajr.Before(sunrise) || !sunrise.Before(dhuhr) {
		return nil, fmt.Errorf("%w: fajr %s, sunrise %s, dhuhr %s on %s", prayer.ErrInvalidTimes,
			clock(fajr), clock(sunrise), clock(dhuhr), date.Format(time.DateOnly))
	}
	if !dhuhr.Before(asr) || !asr.Before(maghrib) || !maghrib.Before(isha) || !isha.Before(tomorrowFajr) {
		return nil, fmt.Errorf("%w: dhuhr %s, asr %s, maghrib %s, isha %s, next fajr %s on %s", prayer.ErrInvalidElevation,
			clock(dhuhr), clock(asr), clock(maghrib), clock(isha), clock(tomorrowFajr), date.Format(time.DateOnly))
	}

	night := tomorrowFajr.Sub(maghrib)
	midnight := maghrib.Add(night / 2).Round(time.Minute)
	lastThird := maghrib.Add(night * 2 / 3).Round(time.Minute)
	if !maghrib.Before(midnight) || !midnight.Before(lastThird) || !lastThird.Before(tomorrowFajr) {
		return nil, fmt.Errorf("%w: night subdivisions out of order on %s", prayer.ErrInvalidTimes, date.Format(time.DateOnly))
	}

	windows := []prayer.Time{
		{Type: prayer.Fajr, Start: fajr, End: sunrise},
		{Type: prayer.Sunrise, Start: sunrise, End: dhuhr},
		{Type: prayer.Dhuhr, Start: dhuhr, End: asr},
		{Type: prayer.Asr, Start: asr, End: maghrib},
		{Type: prayer.Maghrib, Start: maghrib, End: isha},
		{Type: prayer.Isha, Start: isha, End: tomorrowFajr},
		{Type: prayer.Midnight, Start: midnight, End: lastThird},
		{Type: prayer.LastThird, Start: lastThird, End: tomorrowFajr},
	}

	filter := req.Filter
	if filter == "" {
		filter = prayer.FilterEssential
	}
	out := make([]prayer.Time, 0, len(windows))
	for _, w := range windows {
		if filter.Includes(w.Type) {
			out = append(out, w)
		}
	}
	return out, nil
}

func clock(t time.Time) string { return t.Format("15:04") }
