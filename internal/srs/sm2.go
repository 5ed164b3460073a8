// Package srs implements a three-grade variant of the SM-2 spaced-repetition
// algorithm.
package srs

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	// MaxInterval caps every interval at 100 years so the next review
	// always fits in a time.Duration after the review time.
	MaxInterval = 36500.0

	hardIntervalMultiplier = 0.5
	minHardInterval        = 1.0
)

var easeDelta = map[Quality]float64{
	Forgot: -0.2,
	Hard:   -0.1,
	Easy:   0.1,
}

// Outcome is the history record emitted by one review.
type Outcome struct {
	ReviewedAt time.Time
	Quality    Quality
	Interval   float64 // resulting interval in days
}

// ApplyReview computes the state that follows a review of quality q at now.
// The input state is not modified.
func ApplyReview(state State, q Quality, now time.Time) (State, Outcome, error) {
	if !q.IsValid() {
		return State{}, Outcome{}, fmt.Errorf("%w: %d", ErrInvalidQuality, int(q))
	}
	if err := state.Validate(); err != nil {
		return State{}, Outcome{}, err
	}

	next := state
	switch q {
	case Forgot:
		next.Repetition = 0
		next.Interval = 0
	case Hard:
		// Softened regression: the item comes back sooner but is not reset.
		if state.Repetition == 0 {
			next.Interval = 1
		} else {
			next.Interval = math.Max(minHardInterval, state.Interval*hardIntervalMultiplier)
		}
		next.Repetition = max(0, state.Repetition-1)
	case Easy:
		switch state.Repetition {
		case 0:
			next.Interval = 1
		case 1:
			next.Interval = 6
		default:
			next.Interval = state.Interval * state.EaseFactor
		}
		next.Repetition = state.Repetition + 1
	}

	next.Interval = math.Min(MaxInterval, next.Interval)
	next.EaseFactor = UpdateEaseFactor(state.EaseFactor, q)
	next.NextReview = now.Add(Days(next.Interval))

	return next, Outcome{
		ReviewedAt: now,
		Quality:    q,
		Interval:   next.Interval,
	}, nil
}

// UpdateEaseFactor returns the ease factor after a review of quality q,
// clamped at MinEaseFactor.
func UpdateEaseFactor(ef float64, q Quality) float64 {
	return math.Max(MinEaseFactor, ef+easeDelta[q])
}
