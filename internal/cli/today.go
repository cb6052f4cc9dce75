package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-timer/internal/display"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

func (a *app) newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's prayer schedule",
		Long:  "Show today's prayer windows with the current prayer dimmed and the next one highlighted.\nThis is also the default when no subcommand is given.",
		Args:  cobra.NoArgs,
		RunE:  a.runToday,
	}
}

// todaySchedule is the data shared by the rich and JSON renderings.
type todaySchedule struct {
	day     *prayer.Day
	current prayer.Time
	next    prayer.Time
	hasCur  bool
	hasNext bool
	hijri   string
}

func (a *app) runToday(cmd *cobra.Command, args []string) error {
	s, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	day, err := s.mgr.FetchDay(cmd.Context(), s.now, s.req)
	if err != nil {
		return err
	}

	sched := todaySchedule{day: day}
	sched.current, sched.hasCur = day.Current(s.now)
	sched.next, sched.hasNext = day.Next(s.now, s.mgr.Settings().SunriseAfterIsha)
	if h, err := prayer.ToHijri(s.now); err == nil {
		sched.hijri = h.Format()
	}

	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), a.todayJSON(s, sched))
	}
	printTodayRich(cmd.OutOrStdout(), s, sched, locationLabel(a.cfg))
	return nil
}

// printTodayRich renders the colored terminal output for today's schedule.
func printTodayRich(w io.Writer, s *session, sched todaySchedule, label string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Prayer Times"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", label)
	fmt.Fprintf(w, "  %s\n", s.loc)
	fmt.Fprintf(w, "  %s\n", s.now.Format("Monday 02 January 2006"))
	if sched.hijri != "" {
		fmt.Fprintf(w, "  %s\n", sched.hijri)
	}
	fmt.Fprintln(w)

	tbl := display.NewTable("Prayer", "Time", "")
	for _, pt := range sched.day.Times {
		note := ""
		if sched.hasNext && pt.Start.Equal(sched.next.Start) {
			note = "<- next in " + prayer.FormatRemaining(pt.Start.Sub(s.now))
		}
		idx := tbl.AddRow(pt.Type.Title(), pt.Start.Format(s.layout), note)

		switch {
		case sched.hasCur && pt.Start.Equal(sched.current.Start):
			tbl.StyleRow(idx, display.Dim)
		case note != "":
			tbl.Highlight(idx)
		}
	}
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
}

// todayJSON is the JSON output structure for the today command.
type todayJSON struct {
	Location locationJSON   `json:"location"`
	Date     todayJSONDate  `json:"date"`
	Times    []prayer.Time  `json:"times"`
	Current  string         `json:"current,omitempty"`
	Next     *todayJSONNext `json:"next,omitempty"`
}

type todayJSONDate struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri,omitempty"`
}

type todayJSONNext struct {
	Prayer           prayer.Prayer `json:"prayer"`
	Time             time.Time     `json:"time"`
	Remaining        string        `json:"remaining"`
	RemainingSeconds int64         `json:"remaining_seconds"`
}

func (a *app) todayJSON(s *session, sched todaySchedule) todayJSON {
	out := todayJSON{
		Location: s.location(a.cfg),
		Date: todayJSONDate{
			Gregorian: s.now.Format(time.DateOnly),
			Hijri:     sched.hijri,
		},
		Times: sched.day.Times,
	}
	if sched.hasCur {
		out.Current = sched.current.Type.String()
	}
	if sched.hasNext {
		left := sched.next.Start.Sub(s.now)
		out.Next = &todayJSONNext{
			Prayer:           sched.next.Type,
			Time:             sched.next.Start,
			Remaining:        prayer.FormatRemaining(left),
			RemainingSeconds: int64(left / time.Second),
		}
	}
	return out
}
