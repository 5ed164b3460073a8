// Package card owns flashcards, their scheduling state and their review logs.
package card

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/at-ishikawa/cardsched/internal/srs"
)

var (
	ErrItemNotFound       = errors.New("card: item not found")
	ErrStorageConflict    = errors.New("card: storage conflict")
	ErrStorageUnavailable = errors.New("card: storage unavailable")
	ErrInvalidCard        = errors.New("card: invalid card")
)

// Card is a flashcard together with its scheduling state.
// Version is a revision counter; Put only succeeds against the stored version.
type Card struct {
	ID           int64     `db:"id" yaml:"id"`
	Front        string    `db:"front" yaml:"front"`
	Back         string    `db:"back" yaml:"back"`
	Repetition   int       `db:"repetition" yaml:"repetition"`
	IntervalDays float64   `db:"interval_days" yaml:"interval_days"`
	EaseFactor   float64   `db:"ease_factor" yaml:"ease_factor"`
	NextReview   time.Time `db:"next_review" yaml:"next_review"`
	Version      int64     `db:"version" yaml:"version"`
	CreatedAt    time.Time `db:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" yaml:"updated_at"`
}

// New returns an unsaved card created at now, due immediately.
func New(front, back string, now time.Time) (*Card, error) {
	front, back, err := NormalizeText(front, back)
	if err != nil {
		return nil, err
	}

	c := &Card{
		Front:     front,
		Back:      back,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.SetState(srs.NewState(now))
	return c, nil
}

// NormalizeText trims both sides of a card and rejects empty text.
func NormalizeText(front, back string) (string, string, error) {
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	if front == "" || back == "" {
		return "", "", fmt.Errorf("%w: front and back must not be empty", ErrInvalidCard)
	}
	return front, back, nil
}

// State returns the scheduling state of the card.
func (c Card) State() srs.State {
	return srs.State{
		Repetition: c.Repetition,
		Interval:   c.IntervalDays,
		EaseFactor: c.EaseFactor,
		NextReview: c.NextReview,
	}
}

// SetState replaces the scheduling state of the card.
func (c *Card) SetState(s srs.State) {
	c.Repetition = s.Repetition
	c.IntervalDays = s.Interval
	c.EaseFactor = s.EaseFactor
	c.NextReview = s.NextReview
}

// ReviewLog is one entry of the append-only review history.
type ReviewLog struct {
	ID           int64       `db:"id" yaml:"id"`
	CardID       int64       `db:"card_id" yaml:"card_id"`
	Quality      srs.Quality `db:"quality" yaml:"quality"`
	IntervalDays float64     `db:"interval_days" yaml:"interval_days"`
	ReviewedAt   time.Time   `db:"reviewed_at" yaml:"reviewed_at"`
	CreatedAt    time.Time   `db:"created_at" yaml:"created_at"`
}

// NewReviewLog builds the history entry for an outcome of the card.
func NewReviewLog(cardID int64, outcome srs.Outcome) *ReviewLog {
	return &ReviewLog{
		CardID:       cardID,
		Quality:      outcome.Quality,
		IntervalDays: outcome.Interval,
		ReviewedAt:   outcome.ReviewedAt,
		CreatedAt:    outcome.ReviewedAt,
	}
}
