// Package display renders schedules and timers for the terminal.
//
// Colors follow NO_COLOR (https://no-color.org/) and FORCE_COLOR, and are
// otherwise enabled only when stdout is a terminal.
package display

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI escape codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	fgGray = "\033[90m"
)

var enabled = shouldEnable()

func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetEnabled overrides the detected color state; --json turns it off.
func SetEnabled(b bool) { enabled = b }

// Enabled reports whether color output is active.
func Enabled() bool { return enabled }

// Style decorates text.
type Style func(string) string

// Plain leaves text untouched.
func Plain(text string) string { return text }

func style(codes ...string) Style {
	return func(text string) string {
		if !enabled {
			return text
		}
		var prefix string
		for _, c := range codes {
			prefix += c
		}
		return prefix + text + reset
	}
}

var (
	Bold   = style(bold)
	Dim    = style(dim)
	Red    = style(red)
	Green  = style(green)
	Yellow = style(yellow)
	Cyan   = style(cyan)
	Gray   = style(fgGray)
	// Accent marks the next prayer.
	Accent = style(bold, cyan)
	// Alert marks the danger zone.
	Alert = style(bold, red)
)

// Boldf formats and bolds a string.
func Boldf(format string, a ...any) string {
	return Bold(fmt.Sprintf(format, a...))
}
