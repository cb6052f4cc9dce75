package timer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// Format constants for display modes.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // Prayer title, e.g. "Asr"
	ShortName string // Abbreviated name, e.g. "A"
	Time      string // Formatted target time, e.g. "15:02" or "3:02 PM"
	Remaining string // Time remaining or elapsed, e.g. "2h 15m"
	Hours     int    // Whole hours remaining
	Minutes   int    // Remaining minutes after hours
	Type      string // countdown, stopwatch or iqama
	Danger    bool   // inside the danger zone
	Jumuah    bool   // Friday dhuhr
}

// Label returns the regime-aware name: "Dhuhr iqama", "Jumuah", "Fajr".
func Label(t Timer) string {
	name := t.Prayer.Title()
	if t.IsJumuah {
		name = "Jumuah"
	}
	switch t.Type {
	case Iqama:
		return name + " iqama"
	case Stopwatch:
		return name + " +"
	}
	return name
}

// Remaining is the displayed duration: time left for countdowns, time elapsed
// since the adhan for the stopwatch.
func Remaining(t Timer) time.Duration {
	if t.Type == Stopwatch {
		return t.At.Sub(t.Target)
	}
	return t.TimeRemaining
}

// FormatOutput formats a timer for status lines according to mode.
// timeFormat should be "15:04" for 24h or "3:04 PM" for 12h.
//
// If mode contains "{{", it is treated as a custom Go template string.
// Available template fields: .Name, .ShortName, .Time, .Remaining, .Hours,
// .Minutes, .Type, .Danger, .Jumuah
//
// Example: "{{.Name}} in {{.Remaining}}" -> "Asr in 2h 15m"
func FormatOutput(t Timer, mode string, timeFormat string) string {
	d := Remaining(t)
	remaining := prayer.FormatRemaining(d)
	timeStr := t.Target.Format(timeFormat)
	name := Label(t)
	short := t.Prayer.Short()

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Name:      t.Prayer.Title(),
			ShortName: short,
			Time:      timeStr,
			Remaining: remaining,
			Hours:     int(d.Hours()),
			Minutes:   int(d.Minutes()) % 60,
			Type:      t.Type.String(),
			Danger:    t.IsDangerZone,
			Jumuah:    t.IsJumuah,
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return remaining
	case FormatNextPrayerTime:
		return timeStr
	case FormatNameAndTime:
		return fmt.Sprintf("%s %s", name, timeStr)
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", name, remaining)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, remaining)
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", name, timeStr, remaining)
	default:
		return fmt.Sprintf("%s %s", name, timeStr)
	}
}

// formatCustom executes a user-provided Go template string against the FormatData.
func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
