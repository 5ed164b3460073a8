package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cardsched/internal/bootstrap"
	"github.com/at-ishikawa/cardsched/internal/card"
	"github.com/at-ishikawa/cardsched/internal/config"
	"github.com/at-ishikawa/cardsched/internal/database"
	"github.com/at-ishikawa/cardsched/internal/review"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

// openRepository opens the store selected by cfg.Store.Driver and registers
// its cleanup on app.
func openRepository(app *bootstrap.App, cfg *config.Config) (card.Repository, error) {
	switch cfg.Store.Driver {
	case config.DriverMySQL:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		app.AddShutdownHook(func(ctx context.Context) error {
			return db.Close()
		})
		return card.NewDBRepository(db), nil
	case config.DriverYAML:
		repo, err := card.NewYAMLRepository(cfg.Store.YAMLFile)
		if err != nil {
			return nil, fmt.Errorf("open yaml store: %w", err)
		}
		return repo, nil
	case config.DriverMemory:
		return card.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// runWithService loads the config, opens the store and calls fn with a
// review service over it. The store is closed when fn returns.
func runWithService(cmd *cobra.Command, fn func(ctx context.Context, service *review.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app := bootstrap.New()
	return app.Run(cmd.Context(), func(ctx context.Context) error {
		repo, err := openRepository(app, cfg)
		if err != nil {
			return err
		}
		service := review.NewService(repo, review.SystemClock{},
			review.WithMaxAttempts(cfg.Review.MaxAttempts),
			review.WithRetryDelay(cfg.Review.RetryDelay),
			review.WithLogger(slog.Default()),
		)
		return fn(ctx, service)
	})
}

func parseCardID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid card id %q", arg)
	}
	return id, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func printCards(w io.Writer, cards []card.Card, now time.Time) {
	if len(cards) == 0 {
		fmt.Fprintln(w, "No cards")
		return
	}
	due := color.New(color.FgYellow)
	for _, c := range cards {
		line := fmt.Sprintf("%d\t%s\t%s\trepetition=%d interval=%.1fd ease=%.2f next=%s",
			c.ID, c.Front, c.Back, c.Repetition, c.IntervalDays, c.EaseFactor, formatTime(c.NextReview))
		if c.State().Due(now) {
			due.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, line)
	}
}
