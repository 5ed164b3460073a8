package srs

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewTime = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func TestApplyReview(t *testing.T) {
	tests := []struct {
		name           string
		state          State
		quality        Quality
		wantRepetition int
		wantInterval   float64
		wantEase       float64
	}{
		{
			name:           "forgot resets a mature item",
			state:          State{Repetition: 5, Interval: 40, EaseFactor: 2.5},
			quality:        Forgot,
			wantRepetition: 0,
			wantInterval:   0,
			wantEase:       2.3,
		},
		{
			name:           "forgot on a fresh item",
			state:          NewState(reviewTime),
			quality:        Forgot,
			wantRepetition: 0,
			wantInterval:   0,
			wantEase:       2.3,
		},
		{
			name:           "hard on a fresh item keeps repetition at zero",
			state:          NewState(reviewTime),
			quality:        Hard,
			wantRepetition: 0,
			wantInterval:   1,
			wantEase:       2.4,
		},
		{
			name:           "hard halves the interval",
			state:          State{Repetition: 3, Interval: 15, EaseFactor: 2.5},
			quality:        Hard,
			wantRepetition: 2,
			wantInterval:   7.5,
			wantEase:       2.4,
		},
		{
			name:           "hard floors the interval at one day",
			state:          State{Repetition: 1, Interval: 1, EaseFactor: 2.5},
			quality:        Hard,
			wantRepetition: 0,
			wantInterval:   1,
			wantEase:       2.4,
		},
		{
			name:           "easy on a fresh item",
			state:          NewState(reviewTime),
			quality:        Easy,
			wantRepetition: 1,
			wantInterval:   1,
			wantEase:       2.6,
		},
		{
			name:           "easy on second repetition",
			state:          State{Repetition: 1, Interval: 1, EaseFactor: 2.6},
			quality:        Easy,
			wantRepetition: 2,
			wantInterval:   6,
			wantEase:       2.7,
		},
		{
			name:           "easy multiplies by the ease factor",
			state:          State{Repetition: 2, Interval: 6, EaseFactor: 2.6},
			quality:        Easy,
			wantRepetition: 3,
			wantInterval:   15.6,
			wantEase:       2.7,
		},
		{
			name:           "ease never drops below the floor",
			state:          State{Repetition: 0, Interval: 0, EaseFactor: 1.35},
			quality:        Forgot,
			wantRepetition: 0,
			wantInterval:   0,
			wantEase:       MinEaseFactor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.state
			got, outcome, err := ApplyReview(tt.state, tt.quality, reviewTime)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRepetition, got.Repetition)
			assert.InDelta(t, tt.wantInterval, got.Interval, 1e-9)
			assert.InDelta(t, tt.wantEase, got.EaseFactor, 1e-9)
			assert.Equal(t, reviewTime.Add(Days(got.Interval)), got.NextReview)

			assert.Equal(t, reviewTime, outcome.ReviewedAt)
			assert.Equal(t, tt.quality, outcome.Quality)
			assert.Equal(t, got.Interval, outcome.Interval)

			assert.Equal(t, before, tt.state, "input state must not change")
		})
	}
}

func TestApplyReview_EasySequence(t *testing.T) {
	state := NewState(reviewTime)
	now := reviewTime

	var err error
	state, _, err = ApplyReview(state, Easy, now)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Repetition)
	assert.Equal(t, 1.0, state.Interval)

	now = state.NextReview
	state, _, err = ApplyReview(state, Easy, now)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Repetition)
	assert.Equal(t, 6.0, state.Interval)
	assert.InDelta(t, 2.7, state.EaseFactor, 1e-9)

	now = state.NextReview
	state, _, err = ApplyReview(state, Easy, now)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Repetition)
	assert.InDelta(t, 6*2.7, state.Interval, 1e-9)
	assert.Equal(t, now.Add(Days(state.Interval)), state.NextReview)
}

func TestApplyReview_LongEasyStreakStaysInTheFuture(t *testing.T) {
	state := NewState(reviewTime)
	now := reviewTime
	for i := 1; i <= 30; i++ {
		next, outcome, err := ApplyReview(state, Easy, now)
		require.NoError(t, err, "review %d", i)
		assert.LessOrEqual(t, next.Interval, MaxInterval, "review %d", i)
		assert.Equal(t, next.Interval, outcome.Interval, "review %d", i)
		assert.True(t, next.NextReview.After(now), "review %d: next review %s", i, next.NextReview)
		assert.Equal(t, now.Add(Days(next.Interval)), next.NextReview, "review %d", i)
		assert.False(t, next.Due(now), "review %d", i)
		state = next
		now = next.NextReview
	}
	assert.Equal(t, MaxInterval, state.Interval)
	assert.Equal(t, 30, state.Repetition)
}

func TestApplyReview_EaseFloorUnderIteration(t *testing.T) {
	for _, q := range []Quality{Forgot, Hard} {
		t.Run(q.String(), func(t *testing.T) {
			state := State{Repetition: 4, Interval: 20, EaseFactor: 1.5}
			for i := 0; i < 10; i++ {
				next, _, err := ApplyReview(state, q, reviewTime)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, next.EaseFactor, MinEaseFactor)
				state = next
			}
			assert.Equal(t, MinEaseFactor, state.EaseFactor)

			next, _, err := ApplyReview(state, q, reviewTime)
			require.NoError(t, err)
			assert.Equal(t, MinEaseFactor, next.EaseFactor)
		})
	}
}

func TestApplyReview_NextReviewInvariant(t *testing.T) {
	states := []State{
		NewState(reviewTime),
		{Repetition: 1, Interval: 1, EaseFactor: 2.5},
		{Repetition: 7, Interval: 120.25, EaseFactor: 1.3},
		{Repetition: 2, Interval: 6, EaseFactor: 3.1},
	}
	for _, state := range states {
		for _, q := range Qualities() {
			got, _, err := ApplyReview(state, q, reviewTime)
			require.NoError(t, err)
			assert.Equal(t, reviewTime.Add(Days(got.Interval)), got.NextReview)
			assert.GreaterOrEqual(t, got.Interval, 0.0)
			assert.GreaterOrEqual(t, got.Repetition, 0)
			if q == Forgot {
				assert.Zero(t, got.Interval)
				assert.Zero(t, got.Repetition)
			}
		}
	}
}

func TestApplyReview_Errors(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		quality Quality
		wantErr error
	}{
		{
			name:    "quality between grades",
			state:   NewState(reviewTime),
			quality: Quality(3),
			wantErr: ErrInvalidQuality,
		},
		{
			name:    "negative quality",
			state:   NewState(reviewTime),
			quality: Quality(-1),
			wantErr: ErrInvalidQuality,
		},
		{
			name:    "ease below floor",
			state:   State{EaseFactor: 1.2},
			quality: Easy,
			wantErr: ErrInvalidState,
		},
		{
			name:    "negative interval",
			state:   State{Interval: -1, EaseFactor: 2.5},
			quality: Easy,
			wantErr: ErrInvalidState,
		},
		{
			name:    "interval above the cap",
			state:   State{Repetition: 12, Interval: MaxInterval + 1, EaseFactor: 2.5},
			quality: Easy,
			wantErr: ErrInvalidState,
		},
		{
			name:    "infinite interval",
			state:   State{Repetition: 12, Interval: math.Inf(1), EaseFactor: 2.5},
			quality: Hard,
			wantErr: ErrInvalidState,
		},
		{
			name:    "negative repetition",
			state:   State{Repetition: -2, EaseFactor: 2.5},
			quality: Hard,
			wantErr: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ApplyReview(tt.state, tt.quality, reviewTime)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateEaseFactor(t *testing.T) {
	tests := []struct {
		name     string
		ef       float64
		quality  Quality
		expected float64
	}{
		{name: "forgot", ef: 2.5, quality: Forgot, expected: 2.3},
		{name: "hard", ef: 2.5, quality: Hard, expected: 2.4},
		{name: "easy", ef: 2.5, quality: Easy, expected: 2.6},
		{name: "forgot at floor", ef: MinEaseFactor, quality: Forgot, expected: MinEaseFactor},
		{name: "hard at floor", ef: MinEaseFactor, quality: Hard, expected: MinEaseFactor},
		{name: "easy at floor", ef: MinEaseFactor, quality: Easy, expected: 1.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, UpdateEaseFactor(tt.ef, tt.quality), 1e-9)
		})
	}
}
