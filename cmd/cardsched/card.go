package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cardsched/internal/review"
)

func newAddCommand() *cobra.Command {
	var front, back string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a card that is due immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithService(cmd, func(ctx context.Context, service *review.Service) error {
				c, err := service.Create(ctx, front, back)
				if err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Added card %d\n", c.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&front, "front", "", "Front side of the card")
	cmd.Flags().StringVar(&back, "back", "", "Back side of the card")
	_ = cmd.MarkFlagRequired("front")
	_ = cmd.MarkFlagRequired("back")
	return cmd
}

func newEditCommand() *cobra.Command {
	var front, back string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace the text of a card without changing its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCardID(args[0])
			if err != nil {
				return err
			}
			return runWithService(cmd, func(ctx context.Context, service *review.Service) error {
				c, err := service.Edit(ctx, id, front, back)
				if err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Edited card %d\n", c.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&front, "front", "", "New front side of the card")
	cmd.Flags().StringVar(&back, "back", "", "New back side of the card")
	_ = cmd.MarkFlagRequired("front")
	_ = cmd.MarkFlagRequired("back")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a card and its review history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCardID(args[0])
			if err != nil {
				return err
			}
			return runWithService(cmd, func(ctx context.Context, service *review.Service) error {
				if err := service.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %d\n", id)
				return nil
			})
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all cards; due cards are highlighted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithService(cmd, func(ctx context.Context, service *review.Service) error {
				cards, err := service.List(ctx)
				if err != nil {
					return err
				}
				printCards(cmd.OutOrStdout(), cards, review.SystemClock{}.Now())
				return nil
			})
		},
	}
}

func newDueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List the cards due for review, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithService(cmd, func(ctx context.Context, service *review.Service) error {
				cards, err := service.Due(ctx)
				if err != nil {
					return err
				}
				printCards(cmd.OutOrStdout(), cards, review.SystemClock{}.Now())
				return nil
			})
		},
	}
}

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the review history of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCardID(args[0])
			if err != nil {
				return err
			}
			return runWithService(cmd, func(ctx context.Context, service *review.Service) error {
				c, logs, err := service.History(ctx, id)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Front, c.Back)
				if len(logs) == 0 {
					fmt.Fprintln(w, "No reviews")
					return nil
				}
				for _, log := range logs {
					fmt.Fprintf(w, "%s\t%s\tinterval=%.1fd\n", formatTime(log.ReviewedAt), log.Quality, log.IntervalDays)
				}
				return nil
			})
		},
	}
}
