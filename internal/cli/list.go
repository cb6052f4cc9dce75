package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-timer/internal/display"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

const (
	defaultListDays = 7
	monthDays       = 30
	maxListDays     = 366
)

var errEmptyRange = errors.New("no prayer times could be calculated for the requested days")

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days starting today (default: 7).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := defaultListDays
			if len(args) > 0 {
				n, err := parseDays(args[0])
				if err != nil {
					return err
				}
				days = n
			}
			return a.runList(cmd, days)
		},
	}
}

func (a *app) newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, defaultListDays)
		},
	}
}

func (a *app) newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, monthDays)
		},
	}
}

// parseDays accepts a positive count or the words week and month.
func parseDays(raw string) (int, error) {
	switch raw {
	case "week":
		return defaultListDays, nil
	case "month":
		return monthDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListDays {
		return 0, fmt.Errorf("invalid number of days: %q (must be 1-%d, week or month)", raw, maxListDays)
	}
	return n, nil
}

// fetchDays returns the days from today on. Days that fail to calculate are
// skipped; an entirely empty result is an error.
func fetchDays(cmd *cobra.Command, s *session, days int) ([]*prayer.Day, error) {
	start := prayer.StartOfDay(s.now)
	list := s.mgr.FetchRange(cmd.Context(), start, start.AddDate(0, 0, days-1), s.req)
	if len(list) == 0 {
		return nil, errEmptyRange
	}
	return list, nil
}

func (a *app) runList(cmd *cobra.Command, days int) error {
	s, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := fetchDays(cmd, s, days)
	if err != nil {
		return err
	}
	if a.jsonOut {
		out := listJSON{Location: s.location(a.cfg)}
		for _, d := range list {
			out.Days = append(out.Days, listJSONDay{
				Date:  d.Date.Format(time.DateOnly),
				Hijri: hijriLabel(d.Date),
				Times: d.Times,
			})
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Boldf("Prayer Times, %d Days", days))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", locationLabel(a.cfg))
	fmt.Fprintln(w)
	fmt.Fprint(w, gridTable(list, s).Render())
	fmt.Fprintln(w)
	return nil
}

// gridTable lays days out one per row with a column per prayer of the first
// day. Today's row is highlighted.
func gridTable(list []*prayer.Day, s *session) *display.Table {
	columns := make([]prayer.Prayer, 0, len(list[0].Times))
	headers := []string{"Date"}
	for _, pt := range list[0].Times {
		columns = append(columns, pt.Type)
		headers = append(headers, pt.Type.Title())
	}
	headers = append(headers, "Hijri")

	tbl := display.NewTable(headers...)
	today := s.now.Format(time.DateOnly)
	for _, d := range list {
		row := []string{d.Date.Format("Mon 02 Jan")}
		for _, p := range columns {
			cell := "--:--"
			if pt, ok := d.Find(p); ok {
				cell = pt.Start.Format(s.layout)
			}
			row = append(row, cell)
		}
		row = append(row, hijriLabel(d.Date))

		idx := tbl.AddRow(row...)
		if d.Date.Format(time.DateOnly) == today {
			tbl.Highlight(idx)
		}
	}
	return tbl
}

func hijriLabel(date time.Time) string {
	h, err := prayer.ToHijri(date)
	if err != nil {
		return ""
	}
	return h.Format()
}

// listJSON is the JSON structure for the list command.
type listJSON struct {
	Location locationJSON  `json:"location"`
	Days     []listJSONDay `json:"days"`
}

type listJSONDay struct {
	Date  string        `json:"date"`
	Hijri string        `json:"hijri,omitempty"`
	Times []prayer.Time `json:"times"`
}

// ----------------------------------------------------------------------------
// query
// ----------------------------------------------------------------------------

func (a *app) newQueryCmd() *cobra.Command {
	var days string
	cmd := &cobra.Command{
		Use:   "query <prayer>",
		Short: "Query a specific prayer time",
		Long: "Query a specific prayer time for today, or across multiple days with --days.\n\n" +
			"Valid prayer names: fajr, sunrise, dhuhr, asr, maghrib, isha, midnight, lastThird",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := prayer.Parse(args[0])
			if err != nil {
				return err
			}
			n := 1
			if days != "" {
				if n, err = parseDays(days); err != nil {
					return err
				}
			}
			return a.runQuery(cmd, p, n)
		},
	}
	cmd.Flags().StringVar(&days, "days", "", "Number of days to show (or 'week'/'month')")
	return cmd
}

type queryJSONDay struct {
	Date  string      `json:"date"`
	Time  prayer.Time `json:"time"`
	Hijri string      `json:"hijri,omitempty"`
}

func (a *app) runQuery(cmd *cobra.Command, p prayer.Prayer, days int) error {
	s, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := fetchDays(cmd, s, days)
	if err != nil {
		return err
	}

	var found []queryJSONDay
	for _, d := range list {
		if pt, ok := d.Find(p); ok {
			found = append(found, queryJSONDay{
				Date:  d.Date.Format(time.DateOnly),
				Time:  pt,
				Hijri: hijriLabel(d.Date),
			})
		}
	}
	if len(found) == 0 {
		return fmt.Errorf("%s is not part of the configured prayer filter %q", p, a.cfg.Filter)
	}

	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), found)
	}
	printQuery(cmd.OutOrStdout(), p, found, s.layout)
	return nil
}

func printQuery(w io.Writer, p prayer.Prayer, found []queryJSONDay, layout string) {
	if len(found) == 1 {
		fmt.Fprintf(w, "%s %s\n", p.Title(), found[0].Time.Start.Format(layout))
		return
	}
	tbl := display.NewTable("Date", p.Title(), "Ends")
	for _, f := range found {
		tbl.AddRow(f.Time.Start.Format("Mon 02 Jan"), f.Time.Start.Format(layout), f.Time.End.Format(layout))
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
}
