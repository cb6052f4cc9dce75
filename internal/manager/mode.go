package manager

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
	"github.com/smokyabdulrahman/prayer-timer/internal/timer"
)

// Kind is the timeline expansion policy.
type Kind int

const (
	KindNone Kind = iota
	KindIntervals
	KindFinalHour
	KindHourly
)

// Mode selects how each seeded prayer is expanded into timeline entries.
type Mode struct {
	Kind Kind
	// N is the number of evenly spaced samples for KindIntervals.
	N int
}

var (
	None      = Mode{Kind: KindNone}
	FinalHour = Mode{Kind: KindFinalHour}
	Hourly    = Mode{Kind: KindHourly}
)

// Intervals samples each prayer window n times.
func Intervals(n int) Mode { return Mode{Kind: KindIntervals, N: n} }

func (m Mode) String() string {
	switch m.Kind {
	case KindIntervals:
		return fmt.Sprintf("intervals:%d", m.N)
	case KindFinalHour:
		return "finalHour"
	case KindHourly:
		return "hourly"
	}
	return "none"
}

// ParseMode accepts none, finalHour, hourly, intervals (4 samples) and
// intervals:N.
func ParseMode(s string) (Mode, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")
	switch strings.ToLower(name) {
	case "", "none":
		return None, nil
	case "finalhour", "final-hour":
		return FinalHour, nil
	case "hourly":
		return Hourly, nil
	case "intervals":
		if !hasArg {
			return Intervals(4), nil
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return Mode{}, fmt.Errorf("invalid interval count %q", arg)
		}
		return Intervals(n), nil
	}
	return Mode{}, fmt.Errorf("unknown timeline mode %q", s)
}

// instants lists the sample instants of one prayer window under the mode.
func (m Mode) instants(pt prayer.Time, s timer.Settings) []time.Time {
	dates := []time.Time{pt.Start}

	switch m.Kind {
	case KindNone:
		return dates
	case KindIntervals:
		if m.N > 0 {
			step := pt.Duration() / time.Duration(m.N)
			for k := 1; k < m.N; k++ {
				dates = append(dates, pt.Start.Add(time.Duration(k)*step))
			}
		}
	case KindFinalHour:
		dates = append(dates, finalHour(pt)...)
	case KindHourly:
		dates = append(dates, finalHour(pt)...)
		dates = append(dates, hourBoundaries(pt, s.Location)...)
	}

	dates = append(dates, timer.ExpandedInstants(pt, s)...)
	return timer.SortInstants(dates)
}

// finalHour is the instant one hour before the window closes, when that is
// still inside the window.
func finalHour(pt prayer.Time) []time.Time {
	if t := pt.End.Add(-time.Hour); t.After(pt.Start) {
		return []time.Time{t}
	}
	return nil
}

// hourBoundaries lists every top of the hour, in loc, strictly inside the window.
func hourBoundaries(pt prayer.Time, loc *time.Location) []time.Time {
	if loc == nil {
		loc = pt.Start.Location()
	}
	start := pt.Start.In(loc)
	t := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), 0, 0, 0, loc).Add(time.Hour)

	var out []time.Time
	for ; t.Before(pt.End); t = t.Add(time.Hour) {
		out = append(out, t)
	}
	return out
}
