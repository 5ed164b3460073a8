package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cardsched/internal/review"
	"github.com/at-ishikawa/cardsched/internal/srs"
)

func newReviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "review <id> <forgot|hard|easy>",
		Short: "Record how well a card was recalled",
		Long: `Record how well a card was recalled and schedule its next review.
The quality is one of forgot, hard or easy, or the grades 0, 2 or 4.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCardID(args[0])
			if err != nil {
				return err
			}
			quality, err := srs.ParseQuality(args[1])
			if err != nil {
				return err
			}

			return runWithService(cmd, func(ctx context.Context, service *review.Service) error {
				result, err := service.Review(ctx, id, quality)
				if err != nil {
					return err
				}

				c := result.Card
				out := color.New(color.FgGreen)
				if quality == srs.Forgot {
					out = color.New(color.FgRed)
				}
				out.Fprintf(cmd.OutOrStdout(), "Card %d reviewed as %s\n", c.ID, quality)
				fmt.Fprintf(cmd.OutOrStdout(), "Next review: %s (interval %.1fd, ease %.2f)\n",
					formatTime(c.NextReview), c.IntervalDays, c.EaseFactor)
				return nil
			})
		},
	}
}
