package srs

import (
	"fmt"
	"math"
	"time"
)

// State is the scheduling state of a single item.
type State struct {
	Repetition int       `json:"repetition" yaml:"repetition"`
	Interval   float64   `json:"interval" yaml:"interval"` // days
	EaseFactor float64   `json:"ease_factor" yaml:"ease_factor"`
	NextReview time.Time `json:"next_review" yaml:"next_review"`
}

// NewState returns the state of an item created at now. The item is due
// immediately.
func NewState(now time.Time) State {
	return State{
		Repetition: 0,
		Interval:   0,
		EaseFactor: DefaultEaseFactor,
		NextReview: now,
	}
}

// Validate checks the state invariants.
func (s State) Validate() error {
	if s.Repetition < 0 {
		return fmt.Errorf("%w: repetition %d is negative", ErrInvalidState, s.Repetition)
	}
	if math.IsNaN(s.Interval) || s.Interval < 0 || s.Interval > MaxInterval {
		return fmt.Errorf("%w: interval %v outside [0, %v]", ErrInvalidState, s.Interval, MaxInterval)
	}
	if math.IsNaN(s.EaseFactor) || math.IsInf(s.EaseFactor, 0) || s.EaseFactor < MinEaseFactor {
		return fmt.Errorf("%w: ease factor %v below %v", ErrInvalidState, s.EaseFactor, MinEaseFactor)
	}
	return nil
}

// Due reports whether the item must be reviewed at now.
func (s State) Due(now time.Time) bool {
	return !s.NextReview.After(now)
}

// Days converts an interval in days to a duration. The interval must not
// exceed MaxInterval.
func Days(interval float64) time.Duration {
	return time.Duration(interval * float64(24*time.Hour))
}
