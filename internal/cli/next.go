package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-timer/internal/display"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
	"github.com/smokyabdulrahman/prayer-timer/internal/timer"
)

const progressWidth = 24

func (a *app) newNextCmd() *cobra.Command {
	var (
		format string
		status bool
	)
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long: "Print a one-line timer for status bars: the next adhan, the running stopwatch\n" +
			"or the iqama countdown, depending on the current regime.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNext(cmd, format, status)
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "Color the line by regime and prefix it with "+display.DangerMarker+" in the danger zone")
	cmd.Flags().StringVar(&format, "format", timer.FormatFull, "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, full, or a custom Go template")
	return cmd
}

func (a *app) newTimerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timer",
		Short: "Show the full prayer timer state",
		Long:  "Show the timer regime, target, progress and danger-zone state for now.",
		Args:  cobra.NoArgs,
		RunE:  a.runTimer,
	}
}

// nextJSON pairs the timer with its formatted status line.
type nextJSON struct {
	Timer timer.Timer `json:"timer"`
	Text  string      `json:"text"`
}

func (a *app) runNext(cmd *cobra.Command, format string, status bool) error {
	s, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.mgr.Timer(cmd.Context(), s.now, s.req)
	if err != nil {
		return err
	}
	line := timer.FormatOutput(t, format, s.layout)

	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), nextJSON{Timer: t, Text: line})
	}
	if status {
		line = display.Status(t, line)
	}
	fmt.Fprint(cmd.OutOrStdout(), line)
	return nil
}

func (a *app) runTimer(cmd *cobra.Command, args []string) error {
	s, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.mgr.Timer(cmd.Context(), s.now, s.req)
	if err != nil {
		return err
	}
	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), t)
	}
	printTimer(cmd.OutOrStdout(), t, s.layout)
	return nil
}

// printTimer renders the timer as a small block colored by regime.
func printTimer(w io.Writer, t timer.Timer, layout string) {
	paint := display.RegimeStyle(t)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  %s\n", display.Status(t, display.Bold(timer.Label(t))), display.Dim(t.Type.String()))
	fmt.Fprintln(w)

	row := func(label, value string) { fmt.Fprintf(w, "  %-10s %s\n", label, value) }
	row("Target", t.Target.Format(layout))
	if t.Type == timer.Stopwatch {
		row("Elapsed", prayer.FormatRemaining(timer.Remaining(t)))
	} else {
		row("Remaining", prayer.FormatRemaining(timer.Remaining(t)))
	}
	if t.KhutbaTime != nil {
		row("Khutba", t.KhutbaTime.Format(layout))
	}
	row("Window", t.TimeRange.Start.Format(layout)+" - "+t.TimeRange.End.Format(layout))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %3.0f%%\n", paint(display.ProgressBar(t.Progress, progressWidth)), t.Progress*100)
	if t.IsDangerZone {
		fmt.Fprintf(w, "  %s\n", display.Alert(display.DangerMarker+" danger zone: the window is closing"))
	}
	fmt.Fprintln(w)
}
