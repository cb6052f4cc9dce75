// Package timer derives the live prayer timer for an instant: which prayer
// is displayed, whether the countdown, stopwatch or iqama regime applies, the
// target instant and the danger-zone warning. Everything here is a pure
// function of its inputs.
package timer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// Type is the timer regime.
type Type int

const (
	// Countdown waits for the next adhan.
	Countdown Type = iota
	// Stopwatch shows time elapsed since the adhan.
	Stopwatch
	// Iqama counts down to the congregation.
	Iqama
)

func (t Type) String() string {
	switch t {
	case Countdown:
		return "countdown"
	case Stopwatch:
		return "stopwatch"
	case Iqama:
		return "iqama"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// MarshalText encodes the regime name.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a regime name.
func (t *Type) UnmarshalText(b []byte) error {
	switch string(b) {
	case "countdown":
		*t = Countdown
	case "stopwatch":
		*t = Stopwatch
	case "iqama":
		*t = Iqama
	default:
		return fmt.Errorf("unknown timer type %q", b)
	}
	return nil
}

// Buffers around the adhan and iqama instants. The window opens slightly
// before the instant and closes slightly before its end so that a display
// refreshing on the minute switches regime on time.
const (
	leadBuffer  = 2 * time.Second
	trailBuffer = 10 * time.Second
	minDanger   = 60 // minutes
)

// Settings are the user preferences the resolver reads.
type Settings struct {
	IqamaTimes       prayer.IqamaTimes
	IqamaEnabled     bool
	StopwatchMinutes int
	PreAdhan         prayer.PreAdhanMinutes
	SunriseAfterIsha bool
	// Location is the calendar zone used for Friday and clock-time checks.
	Location *time.Location
}

func (s Settings) location(fallback time.Time) *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return fallback.Location()
}

// Range is a closed display range.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Timer is the resolved state for one instant.
type Timer struct {
	At                time.Time     `json:"at"`
	Prayer            prayer.Prayer `json:"prayer"`
	Type              Type          `json:"type"`
	Day               *prayer.Day   `json:"-"`
	Target            time.Time     `json:"target"`
	KhutbaTime        *time.Time    `json:"khutba_time,omitempty"`
	TimeRange         Range         `json:"time_range"`
	TimeRemaining     time.Duration `json:"-"`
	TimeDuration      time.Duration `json:"-"`
	Progress          float64       `json:"progress"`
	ProgressRemaining float64       `json:"progress_remaining"`
	DangerZone        float64       `json:"danger_zone"`
	IsDangerZone      bool          `json:"is_danger_zone"`
	IsJumuah          bool          `json:"is_jumuah"`
	LocalizeAt        *time.Time    `json:"localize_at,omitempty"`
}

// MarshalJSON renders durations as whole seconds.
func (t Timer) MarshalJSON() ([]byte, error) {
	type alias Timer
	return json.Marshal(struct {
		alias
		TimeRemaining int64 `json:"time_remaining_seconds"`
		TimeDuration  int64 `json:"time_duration_seconds"`
	}{alias(t), int64(t.TimeRemaining / time.Second), int64(t.TimeDuration / time.Second)})
}

// Resolve computes the timer for instant. It reports false only when the day
// cannot supply a current and a next essential prayer.
func Resolve(instant time.Time, day *prayer.Day, s Settings) (Timer, bool) {
	if day == nil {
		return Timer{}, false
	}
	current, ok := day.Current(instant)
	if !ok {
		return Timer{}, false
	}
	next, ok := day.Next(instant, s.SunriseAfterIsha)
	if !ok {
		return Timer{}, false
	}
	loc := s.location(instant)

	var iqamaTime time.Time
	hasIqama := false
	if s.IqamaEnabled {
		if t, ok := s.IqamaTimes.Resolve(current, loc); ok && current.Start.Before(t) &&
			within(instant, current.Start.Add(-leadBuffer), t.Add(-trailBuffer)) {
			iqamaTime, hasIqama = t, true
		}
	}

	isStopwatch := inStopwatch(instant, current.Start, s.StopwatchMinutes) &&
		current.Type != prayer.Sunrise &&
		!(current.Type == prayer.Maghrib && hasIqama)

	typ := Countdown
	switch {
	case isStopwatch:
		typ = Stopwatch
	case hasIqama:
		typ = Iqama
	}

	displayed := next
	if typ != Countdown {
		displayed = current
	}
	target := displayed.Start
	if typ == Iqama {
		target = iqamaTime
	}
	// The comparison window measures progress through the running prayer.
	cmpStart, cmpEnd := current.Start, current.End
	localize := true

	friday := prayer.IsFriday(instant, loc)
	var khutbaTime *time.Time
	if friday {
		if dhuhr, ok := day.Find(prayer.Dhuhr); ok {
			if k, ok := s.IqamaTimes.Khutba(dhuhr, loc); ok {
				khutbaTime = &k
			}
		}
	}

	var khutba *time.Time
	if friday && (current.Type == prayer.Dhuhr || next.Type == prayer.Dhuhr) {
		khutba = khutbaOf(s, current, next, loc)
	}

	switch {
	case khutba != nil:
		k := *khutba
		switch {
		case typ == Stopwatch && current.Type == prayer.Dhuhr:
			cmpStart, cmpEnd = current.Start, k
			localize = false
		case inStopwatch(instant, k, s.StopwatchMinutes):
			typ = Stopwatch
			displayed = current
			target = k
			cmpStart, cmpEnd = k, next.Start
		case displayed.Type == prayer.Asr:
			cmpStart, cmpEnd = k, next.Start
		default:
			typ = Iqama
			target = k
			cmpStart, cmpEnd = current.Start, k
		}
	case s.SunriseAfterIsha && current.Type == prayer.Isha && displayed.Type != prayer.Isha:
		fajr, ok := day.Find(prayer.Fajr)
		if !ok {
			break
		}
		fajrIqama, ok := s.IqamaTimes.Resolve(fajr, loc)
		if !ok {
			break
		}
		if fajrIqama.Before(current.Start) {
			fajrIqama = fajrIqama.AddDate(0, 0, 1)
		}
		typ = Iqama
		displayed = fajr
		target = fajrIqama
		cmpStart, cmpEnd = current.Start, fajrIqama
	}

	duration := cmpEnd.Sub(cmpStart)
	progress := 1.0
	if duration > 0 {
		progress = clamp(float64(instant.Sub(cmpStart)) / float64(duration))
	}
	dangerZone := 1.0
	if duration > 0 {
		lead := max(s.PreAdhan.For(current.Type), minDanger)
		dangerZone = min(1, float64(time.Duration(lead)*time.Minute)/float64(duration))
	}
	remaining := 1 - progress

	t := Timer{
		At:                instant,
		Prayer:            displayed.Type,
		Type:              typ,
		Day:               day,
		Target:            target,
		KhutbaTime:        khutbaTime,
		TimeRange:         rangeOf(instant, target),
		TimeRemaining:     target.Sub(instant),
		TimeDuration:      duration,
		Progress:          progress,
		ProgressRemaining: remaining,
		DangerZone:        dangerZone,
		IsDangerZone:      typ != Stopwatch && remaining <= dangerZone,
		IsJumuah:          friday && displayed.Type == prayer.Dhuhr,
	}
	if localize {
		at := instant
		t.LocalizeAt = &at
	}
	return t, true
}

// khutbaOf resolves the khutba from whichever of current/next is dhuhr.
func khutbaOf(s Settings, current, next prayer.Time, loc *time.Location) *time.Time {
	dhuhr := current
	if dhuhr.Type != prayer.Dhuhr {
		dhuhr = next
	}
	k, ok := s.IqamaTimes.Khutba(dhuhr, loc)
	if !ok {
		return nil
	}
	return &k
}

// inStopwatch reports whether instant lies in the stopwatch window that opens
// at start.
func inStopwatch(instant, start time.Time, minutes int) bool {
	if minutes <= 0 {
		return false
	}
	end := start.Add(time.Duration(minutes)*time.Minute - trailBuffer)
	return within(instant, start.Add(-leadBuffer), end)
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func rangeOf(a, b time.Time) Range {
	if b.Before(a) {
		return Range{Start: b, End: a}
	}
	return Range{Start: a, End: b}
}

func clamp(f float64) float64 {
	return max(0, min(1, f))
}
