package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cardsched/internal/review"
	"github.com/at-ishikawa/cardsched/internal/statistics"
)

func newStatsCommand() *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show review statistics per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month < 0 || month > 12 {
				return fmt.Errorf("invalid month %d", month)
			}
			if month != 0 && year == 0 {
				return fmt.Errorf("--month requires --year")
			}

			return runWithService(cmd, func(ctx context.Context, service *review.Service) error {
				logs, err := service.ReviewLogs(ctx)
				if err != nil {
					return err
				}
				result := statistics.Calculate(logs, year, month)

				w := cmd.OutOrStdout()
				if len(result.Periods) == 0 {
					fmt.Fprintln(w, "No reviews")
					return nil
				}
				fmt.Fprintf(w, "%-8s %8s %8s %8s %8s %8s %8s\n", "Period", "Reviews", "Forgot", "Hard", "Easy", "Recall", "Cards")
				for _, p := range result.Periods {
					fmt.Fprintf(w, "%-8s %8d %8d %8d %8d %7.1f%% %8d\n",
						p.Period, p.Reviews, p.Forgot, p.Hard, p.Easy, p.RecallRate()*100, p.CardsUnique)
				}
				a := result.Aggregate
				fmt.Fprintf(w, "%-8s %8d %8d %8d %8d %7.1f%% %8d\n",
					"Total", a.Reviews, a.Forgot, a.Hard, a.Easy, a.RecallRate()*100, a.CardsUnique)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Only count reviews of this year")
	cmd.Flags().IntVar(&month, "month", 0, "Only count reviews of this month (1-12), requires --year")
	return cmd
}
