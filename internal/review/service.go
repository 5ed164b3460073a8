// Package review runs reviews against the card store: one read, one
// scheduling transition and one write per attempt, retried on conflicts.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"github.com/at-ishikawa/cardsched/internal/card"
	"github.com/at-ishikawa/cardsched/internal/srs"
)

const (
	DefaultMaxAttempts uint = 3
	DefaultRetryDelay       = 50 * time.Millisecond
)

// Clock supplies the review time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC at the precision the stores keep.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Result is the card after a committed review and the log appended for it.
type Result struct {
	Card card.Card
	Log  card.ReviewLog
}

type Service struct {
	repo        card.Repository
	clock       Clock
	maxAttempts uint
	retryDelay  time.Duration
	logger      *slog.Logger
}

type Option func(*Service)

// WithMaxAttempts bounds the attempts of one review, including the first one.
func WithMaxAttempts(n uint) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the base delay of the exponential backoff between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) {
		s.retryDelay = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(repo card.Repository, clock Clock, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		clock:       clock,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Review applies a review of quality q to the card and appends its log in
// one unit of work. A conflicting concurrent review makes the whole
// sequence run again on a fresh read, up to the configured attempts.
func (s *Service) Review(ctx context.Context, cardID int64, q srs.Quality) (*Result, error) {
	if !q.IsValid() {
		return nil, fmt.Errorf("review card %d: %w: %d", cardID, srs.ErrInvalidQuality, int(q))
	}

	var result *Result
	if err := s.retryOnConflict(ctx, cardID, func() error {
		r, err := s.review(ctx, cardID, q)
		if err != nil {
			return err
		}
		result = r
		return nil
	}); err != nil {
		return nil, fmt.Errorf("review card %d: %w", cardID, err)
	}

	s.logger.Info("review applied",
		"card_id", cardID,
		"quality", q.String(),
		"interval_days", result.Card.IntervalDays,
		"ease_factor", result.Card.EaseFactor,
		"next_review", result.Card.NextReview,
	)
	return result, nil
}

// retryOnConflict runs fn again while it fails with ErrStorageConflict, up
// to the configured attempts.
func (s *Service) retryOnConflict(ctx context.Context, cardID int64, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(s.maxAttempts),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, card.ErrStorageConflict)
		}),
		retry.OnRetry(func(n uint, err error) {
			if n+1 < s.maxAttempts {
				s.logger.Warn("retry after conflict",
					"card_id", cardID,
					"attempt", n+1,
					"error", err,
				)
			}
		}),
	)
}

func (s *Service) review(ctx context.Context, cardID int64, q srs.Quality) (*Result, error) {
	var result Result
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx card.Tx) error {
		c, err := tx.Get(ctx, cardID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		next, outcome, err := srs.ApplyReview(c.State(), q, now)
		if err != nil {
			return fmt.Errorf("apply review: %w", err)
		}
		c.SetState(next)
		c.UpdatedAt = now
		if err := tx.Put(ctx, c); err != nil {
			return err
		}

		log := card.NewReviewLog(c.ID, outcome)
		if err := tx.AppendHistory(ctx, log); err != nil {
			return err
		}
		result = Result{Card: *c, Log: *log}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Due returns the cards due at the current time, in review order.
// Cards deleted after the due query are skipped.
func (s *Service) Due(ctx context.Context) ([]card.Card, error) {
	ids, err := s.repo.DueIDs(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("find due cards: %w", err)
	}

	cards := make([]card.Card, 0, len(ids))
	for _, id := range ids {
		c, err := s.repo.Get(ctx, id)
		if errors.Is(err, card.ErrItemNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find due cards: %w", err)
		}
		cards = append(cards, *c)
	}
	return cards, nil
}

// Create stores a new card that is due immediately.
func (s *Service) Create(ctx context.Context, front, back string) (*card.Card, error) {
	c, err := card.New(front, back, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	s.logger.Debug("card created", "card_id", c.ID)
	return c, nil
}

// Edit replaces the text of a card. The scheduling state is left as is.
func (s *Service) Edit(ctx context.Context, cardID int64, front, back string) (*card.Card, error) {
	front, back, err := card.NormalizeText(front, back)
	if err != nil {
		return nil, fmt.Errorf("edit card %d: %w", cardID, err)
	}

	var edited card.Card
	if err := s.retryOnConflict(ctx, cardID, func() error {
		return s.repo.RunInTx(ctx, func(ctx context.Context, tx card.Tx) error {
			c, err := tx.Get(ctx, cardID)
			if err != nil {
				return err
			}
			c.Front = front
			c.Back = back
			c.UpdatedAt = s.clock.Now()
			if err := tx.Put(ctx, c); err != nil {
				return err
			}
			edited = *c
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("edit card %d: %w", cardID, err)
	}
	s.logger.Debug("card edited", "card_id", cardID)
	return &edited, nil
}

func (s *Service) Delete(ctx context.Context, cardID int64) error {
	if err := s.repo.Delete(ctx, cardID); err != nil {
		return fmt.Errorf("delete card %d: %w", cardID, err)
	}
	s.logger.Debug("card deleted", "card_id", cardID)
	return nil
}

func (s *Service) List(ctx context.Context) ([]card.Card, error) {
	cards, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// History returns the card together with its review logs, oldest first.
func (s *Service) History(ctx context.Context, cardID int64) (*card.Card, []card.ReviewLog, error) {
	c, err := s.repo.Get(ctx, cardID)
	if err != nil {
		return nil, nil, fmt.Errorf("find card %d: %w", cardID, err)
	}
	logs, err := s.repo.FindReviewLogs(ctx, cardID)
	if err != nil {
		return nil, nil, fmt.Errorf("find review logs of card %d: %w", cardID, err)
	}
	return c, logs, nil
}

// ReviewLogs returns every review log, oldest first.
func (s *Service) ReviewLogs(ctx context.Context) ([]card.ReviewLog, error) {
	logs, err := s.repo.FindAllReviewLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("find review logs: %w", err)
	}
	return logs, nil
}
