package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-timer/internal/display"
	"github.com/smokyabdulrahman/prayer-timer/internal/manager"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
	"github.com/smokyabdulrahman/prayer-timer/internal/timer"
)

const maxTimelineLimit = 1000

func (a *app) newTimelineCmd() *cobra.Command {
	var (
		mode  string
		limit int
		from  string
	)
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show upcoming timer states",
		Long: "Materialise the timer at every notable instant from now on: adhans, iqamas,\n" +
			"pre-adhan reminders and stopwatch ends, plus extra samples chosen by --mode.\n\n" +
			"Modes: none, finalHour, hourly, intervals or intervals:N",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("mode") {
				mode = a.cfg.TimelineMode
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.TimelineLimit
			}
			m, err := manager.ParseMode(mode)
			if err != nil {
				return err
			}
			if limit < 1 || limit > maxTimelineLimit {
				return fmt.Errorf("invalid limit %d (must be 1-%d)", limit, maxTimelineLimit)
			}
			return a.runTimeline(cmd, m, limit, from)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "Sampling mode (default: timeline_mode setting)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries (default: timeline_limit setting)")
	cmd.Flags().StringVar(&from, "from", "", "Start instant: RFC 3339, 2006-01-02T15:04 or 2006-01-02 (default: now)")
	return cmd
}

func (a *app) runTimeline(cmd *cobra.Command, mode manager.Mode, limit int, from string) error {
	s, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	start, err := prayer.ParseInstant(from, s.loc, s.now)
	if err != nil {
		return err
	}
	entries, err := s.mgr.FetchTimeline(cmd.Context(), start, mode, limit, s.req)
	if err != nil {
		return err
	}
	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), entries)
	}

	tbl := display.NewTable("At", "Timer", "Type", "Target", "Remaining")
	for _, t := range entries {
		idx := tbl.AddRow(
			t.At.Format("Mon "+s.layout),
			timer.Label(t),
			t.Type.String(),
			t.Target.Format(s.layout),
			prayer.FormatRemaining(timer.Remaining(t)),
		)
		tbl.StyleRow(idx, display.RegimeStyle(t))
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Boldf("Timeline from %s (%s)", start.Format("Mon 02 Jan "+s.layout), mode))
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}

// ----------------------------------------------------------------------------
// instants
// ----------------------------------------------------------------------------

func (a *app) newInstantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instants",
		Short: "Show today's notification instants",
		Long:  "List the adhan, pre-adhan reminder, iqama and stopwatch-end instants of today's prayers.",
		Args:  cobra.NoArgs,
		RunE:  a.runInstants,
	}
}

type instantsJSON struct {
	Prayer   prayer.Prayer `json:"prayer"`
	Instants []time.Time   `json:"instants"`
}

func (a *app) runInstants(cmd *cobra.Command, args []string) error {
	s, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	day, err := s.mgr.FetchDay(cmd.Context(), s.now, s.req)
	if err != nil {
		return err
	}
	settings := s.mgr.Settings()

	var out []instantsJSON
	for _, pt := range day.Essential() {
		out = append(out, instantsJSON{Prayer: pt.Type, Instants: timer.ExpandedInstants(pt, settings)})
	}
	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), out)
	}

	tbl := display.NewTable("Prayer", "Instants")
	for _, e := range out {
		clocks := make([]string, len(e.Instants))
		for i, at := range e.Instants {
			clocks[i] = at.Format(s.layout)
		}
		tbl.AddRow(e.Prayer.Title(), strings.Join(clocks, "  "))
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}
