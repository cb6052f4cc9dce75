package display

import (
	"github.com/smokyabdulrahman/prayer-timer/internal/timer"
)

// DangerMarker prefixes status lines inside the danger zone.
const DangerMarker = "!"

// RegimeStyle picks the color of a timer: red in the danger zone, green for
// the stopwatch, yellow while waiting for iqama and cyan otherwise.
func RegimeStyle(t timer.Timer) Style {
	switch {
	case t.IsDangerZone:
		return Alert
	case t.Type == timer.Stopwatch:
		return Green
	case t.Type == timer.Iqama:
		return Yellow
	}
	return Cyan
}

// Status renders line for t, marked and colored by regime.
func Status(t timer.Timer, line string) string {
	if t.IsDangerZone {
		line = DangerMarker + " " + line
	}
	return RegimeStyle(t)(line)
}

// ProgressBar draws progress as a bar of width cells.
func ProgressBar(progress float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(progress*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return string(bar)
}
