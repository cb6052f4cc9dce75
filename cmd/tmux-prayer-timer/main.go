// Command tmux-prayer-timer prints a one-line prayer timer for the tmux
// status bar. It accepts the common prayer-timer settings as flags and reads
// the same config file and environment.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/prayer-timer/internal/cli"
	"github.com/smokyabdulrahman/prayer-timer/internal/timer"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

// passthrough flags are forwarded to prayer-timer unchanged.
var passthrough = []struct{ name, usage string }{
	{"latitude", "Latitude for prayer time calculation"},
	{"longitude", "Longitude for prayer time calculation"},
	{"timezone", "IANA time zone (default: detected or local)"},
	{"city", "City label"},
	{"country", "Country label"},
	{"method", "Calculation method (see --list-methods)"},
	{"madhab", "Asr madhab: standard or hanafi"},
	{"timetable", "Timetable source: london or aladhan"},
	{"time-format", "Time format: 12h or 24h"},
	{"cache-dir", "Cache directory (default: ~/.cache/prayer-timer/)"},
	{"config", "Config file (default: ~/.config/prayer-timer/config.json)"},
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("tmux-prayer-timer", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	format := fs.String("format", timer.FormatNameAndTime, "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, full, or a custom Go template (e.g. '{{.Name}} in {{.Remaining}}')")
	plain := fs.Bool("plain", false, "Do not mark the danger zone")
	showVersion := fs.Bool("version", false, "Print version and exit")
	listMethods := fs.Bool("list-methods", false, "Print supported calculation methods and exit")
	for _, f := range passthrough {
		fs.String(f.name, "", f.usage)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if *showVersion {
		fmt.Fprintf(stdout, "tmux-prayer-timer %s\n", version)
		return nil
	}

	var forward []string
	fs.Visit(func(f *pflag.Flag) {
		for _, p := range passthrough {
			if p.name == f.Name {
				forward = append(forward, "--"+f.Name, f.Value.String())
			}
		}
	})
	if *listMethods {
		forward = append(forward, "methods")
	} else {
		forward = append(forward, "next", "--format", *format)
		if !*plain {
			forward = append(forward, "--status")
		}
	}

	root := cli.NewRootCmd(version)
	root.SetArgs(forward)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}
