package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nhle/duetask/internal/model"
	"github.com/nhle/duetask/internal/reconcile"
	"github.com/nhle/duetask/internal/theme"
)

func reconcileCmd() *cobra.Command {
	var dates []string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild the reminders for specific dates",
		Long: `Cancel and rebook the reminders for each given date from current task data.

Examples:
  duetask reconcile --date 2025-06-01
  duetask reconcile --date 2025-06-01 --date 2025-06-05`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(dates) == 0 {
				return fmt.Errorf("at least one --date is required")
			}
			parsed := make([]model.Date, 0, len(dates))
			for _, raw := range dates {
				d, err := model.ParseDate(raw)
				if err != nil {
					return err
				}
				parsed = append(parsed, d)
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			results := a.Engine.ReconcileDates(cmd.Context(), parsed)
			return printResults(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringSliceVarP(&dates, "date", "d", nil, "date to reconcile (YYYY-MM-DD), repeatable")

	return cmd
}

func sweepCmd() *cobra.Command {
	var (
		from string
		days int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Rebuild the reminders for a run of upcoming dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			start := a.Engine.Today()
			if from != "" {
				start, err = model.ParseDate(from)
				if err != nil {
					return err
				}
			}

			results := a.Engine.Sweep(cmd.Context(), start, days)
			return printResults(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVarP(&days, "days", "n", 7, "number of dates to sweep")

	return cmd
}

// printResults writes one block per date and returns an error when any date
// could not be rebuilt.
func printResults(w io.Writer, results []reconcile.Result) error {
	var failed int
	for _, r := range results {
		fmt.Fprintln(w, theme.HeaderStyle.Render(r.Date.String()))
		if r.Err != nil {
			failed++
			fmt.Fprintln(w, theme.ItemStyle.Render(theme.ErrorStyle.Render("error: ")+r.Err.Error()))
			continue
		}

		fmt.Fprintln(w, theme.ItemStyle.Render(fmt.Sprintf("%d open, %s cancelled, %s scheduled",
			r.Active,
			theme.OKStyle.Render(fmt.Sprint(r.Cancelled)),
			theme.OKStyle.Render(fmt.Sprint(len(r.Scheduled))))))

		writeTags(w, "elapsed", theme.MutedStyle, r.Elapsed)
		writeTags(w, "failed", theme.ErrorStyle, r.Failed)
		writeTags(w, "untracked", theme.WarnStyle, r.Untracked)
		if r.CancelFailed > 0 {
			fmt.Fprintln(w, theme.ItemStyle.Render(
				theme.WarnStyle.Render(fmt.Sprintf("%d cancels failed", r.CancelFailed))))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d dates not reconciled", failed, len(results))
	}
	return nil
}

func writeTags(w io.Writer, label string, style lipgloss.Style, tags []model.Tag) {
	if len(tags) == 0 {
		return
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	fmt.Fprintln(w, theme.ItemStyle.Render(style.Render(label+": ")+strings.Join(names, ", ")))
}
