package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/duetask/internal/model"
	"github.com/nhle/duetask/internal/theme"
)

func pendingCmd() *cobra.Command {
	var (
		from string
		days int
	)

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List the tracked reminders for upcoming dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
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

			w := cmd.OutOrStdout()
			var total int
			for i := 0; i < days; i++ {
				date := start.AddDays(i)
				records, err := a.Tracking.ListForDate(ctx, date)
				if err != nil {
					return fmt.Errorf("listing reminders for %s: %w", date, err)
				}
				if len(records) == 0 {
					continue
				}
				total += len(records)

				fmt.Fprintln(w, theme.HeaderStyle.Render(date.String()))
				for _, rec := range records {
					fmt.Fprintln(w, theme.ItemStyle.Render(
						theme.TagStyle(rec.Key.Tag).Render(string(rec.Key.Tag))+
							theme.MutedStyle.Render(rec.NotificationID)))
				}
			}

			if total == 0 {
				fmt.Fprintln(w, theme.MutedStyle.Render("no reminders tracked"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVarP(&days, "days", "n", 7, "number of dates to list")

	return cmd
}
