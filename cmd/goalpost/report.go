package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dukerupert/goalpost/internal/calendar"
	"github.com/dukerupert/goalpost/internal/model"
	"github.com/spf13/cobra"
)

func newWeekCmd() *cobra.Command {
	var (
		configPath string
		date       string
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the tasks of a week, Monday to Sunday",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if date == "" {
				date = calendar.Today(time.Now())
			}
			days, err := calendar.WeekDays(date)
			if err != nil {
				return err
			}
			tasks, err := a.svc.ListTasksByDateRange(cmd.Context(), days[0], days[len(days)-1])
			if err != nil {
				return err
			}
			printWeek(cmd.OutOrStdout(), days, tasks)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&date, "date", "", "any date in the week, YYYY-MM-DD (default: today)")
	return cmd
}

// printWeek lists tasks under their day. tasks must be ordered by date.
func printWeek(out io.Writer, days []string, tasks []model.Task) {
	i := 0
	for _, day := range days {
		t, _ := calendar.ParseDate(day)
		fmt.Fprintf(out, "%s %s\n", t.Format("Mon"), day)
		n := 0
		for ; i < len(tasks) && tasks[i].Date == day; i++ {
			mark := " "
			if tasks[i].Done {
				mark = "x"
			}
			fmt.Fprintf(out, "  [%s] %s\n", mark, tasks[i].Title)
			n++
		}
		if n == 0 {
			fmt.Fprintln(out, "  -")
		}
	}
}

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		date       string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count a week's tasks per goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if date == "" {
				date = calendar.Today(time.Now())
			}
			report, err := a.svc.WeeklyStats(cmd.Context(), date, !all)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Week %s .. %s\n", report.Range.Start, report.Range.End)
			if len(report.Stats) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "GOAL\tCOLOR\tTASKS")
			for _, s := range report.Stats {
				name := s.GoalName
				if name == "" {
					name = "(deleted goal)"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", name, s.Color, s.Count)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&date, "date", "", "any date in the week, YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&all, "all", false, "count open tasks too, not only done ones")
	return cmd
}
