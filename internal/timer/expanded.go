package timer

import (
	"slices"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// ExpandedInstants lists the notable instants of one prayer window: the
// adhan, the pre-adhan reminder, the iqama and the end of the stopwatch.
// Reminders that do not fit inside the window are dropped. The result is
// sorted and free of duplicates; it feeds the timeline and notification
// scheduling.
func ExpandedInstants(pt prayer.Time, s Settings) []time.Time {
	dates := []time.Time{pt.Start}
	duration := pt.Duration()

	if lead := s.PreAdhan.For(pt.Type); lead > 0 && duration > minutes(lead) {
		dates = append(dates, pt.Start.Add(-minutes(lead)))
	}
	if s.IqamaEnabled {
		if t, ok := s.IqamaTimes.Resolve(pt, s.Location); ok {
			dates = append(dates, t)
		}
	}
	if sw := s.StopwatchMinutes; sw > 0 && duration > minutes(sw) {
		dates = append(dates, pt.Start.Add(minutes(sw)))
	}

	return SortInstants(dates)
}

// SortInstants sorts instants ascending and drops duplicates in place.
func SortInstants(dates []time.Time) []time.Time {
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(dates, func(a, b time.Time) bool { return a.Equal(b) })
}

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }
