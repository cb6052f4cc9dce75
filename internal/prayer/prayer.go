// Package prayer holds the domain model shared by the calculation, timer and
// timeline layers: the prayer enumeration, half-open prayer intervals, the
// yesterday/today/tomorrow day bundle, adjustments and iqama lookup tables.
package prayer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Prayer identifies one of the fixed daily prayer windows.
type Prayer int

const (
	Fajr Prayer = iota
	Sunrise
	Dhuhr
	Asr
	Maghrib
	Isha
	Midnight
	LastThird
)

// All lists every prayer in declaration (chronological) order.
var All = []Prayer{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha, Midnight, LastThird}

var names = [...]string{"fajr", "sunrise", "dhuhr", "asr", "maghrib", "isha", "midnight", "lastThird"}

var titles = [...]string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha", "Midnight", "Last Third"}

// ShortNames maps prayers to the abbreviations used in compact status lines.
var ShortNames = map[Prayer]string{
	Fajr:      "F",
	Sunrise:   "S",
	Dhuhr:     "D",
	Asr:       "A",
	Maghrib:   "M",
	Isha:      "I",
	Midnight:  "Mi",
	LastThird: "L3",
}

func (p Prayer) valid() bool { return p >= Fajr && p <= LastThird }

// String returns the lower-camel identifier, e.g. "lastThird".
func (p Prayer) String() string {
	if !p.valid() {
		return fmt.Sprintf("prayer(%d)", int(p))
	}
	return names[p]
}

// Title returns the display name, e.g. "Last Third".
func (p Prayer) Title() string {
	if !p.valid() {
		return p.String()
	}
	return titles[p]
}

// Short returns the compact abbreviation.
func (p Prayer) Short() string { return ShortNames[p] }

// IsObligation reports whether p is one of the five canonical prayers.
func (p Prayer) IsObligation() bool {
	switch p {
	case Fajr, Dhuhr, Asr, Maghrib, Isha:
		return true
	}
	return false
}

// IsEssential reports whether p is an obligation or sunrise.
func (p Prayer) IsEssential() bool {
	return p.IsObligation() || p == Sunrise
}

// IsSunnah reports whether p is one of the night subdivisions.
func (p Prayer) IsSunnah() bool {
	return p == Midnight || p == LastThird
}

// Parse resolves a prayer from its identifier or title, case-insensitively.
// "jumuah" is accepted as an alias for dhuhr.
func Parse(s string) (Prayer, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for i, n := range names {
		if strings.ToLower(n) == key {
			return Prayer(i), nil
		}
	}
	switch key {
	case "jumuah", "jumua", "friday":
		return Dhuhr, nil
	case "zuhr", "dhur":
		return Dhuhr, nil
	}
	return 0, fmt.Errorf("unknown prayer %q", s)
}

// MarshalText encodes the prayer by identifier.
func (p Prayer) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("invalid prayer %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes the prayer from its identifier.
func (p *Prayer) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Time is one prayer window: a half-open interval [Start, End).
type Time struct {
	Type  Prayer    `json:"type"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the window.
func (t Time) Duration() time.Duration { return t.End.Sub(t.Start) }

// Contains reports whether instant lies in [Start, End).
func (t Time) Contains(instant time.Time) bool {
	return !instant.Before(t.Start) && instant.Before(t.End)
}

// String renders the window as "fajr 05:52-07:23".
func (t Time) String() string {
	return fmt.Sprintf("%s %s-%s", t.Type, t.Start.Format("15:04"), t.End.Format("15:04"))
}

// MarshalJSON adds the display title next to the interval.
func (t Time) MarshalJSON() ([]byte, error) {
	type alias Time
	return json.Marshal(struct {
		alias
		Title string `json:"title"`
	}{alias(t), t.Type.Title()})
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// ParseClock parses a time string like "15:02" or "15:02 (BST)" into a
// time.Time on the given date in the given location.
func ParseClock(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	// Strip timezone suffix like " (BST)" that timetable APIs sometimes append.
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %q", raw)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc), nil
}

var instantLayouts = []string{"2006-01-02T15:04", time.DateOnly}

// ParseInstant reads an RFC 3339 instant, a local "2006-01-02T15:04" or a
// local date. Empty input yields fallback in loc.
func ParseInstant(raw string, loc *time.Location, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback.In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use RFC 3339, 2006-01-02T15:04 or 2006-01-02)", raw)
}

// StartOfDay returns local midnight of t in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsFriday reports whether t falls on a Friday in loc.
func IsFriday(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = t.Location()
	}
	return t.In(loc).Weekday() == time.Friday
}
