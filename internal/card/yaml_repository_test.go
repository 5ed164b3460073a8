package card

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/cardsched/internal/srs"
)

func TestYAMLRepository_Reload(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "nested", "cards.yml")

	repo, err := NewYAMLRepository(path)
	require.NoError(t, err)
	assert.Equal(t, path, repo.Path())

	first := createCard(t, repo, "apple", now)
	second := createCard(t, repo, "pear", now)
	require.NoError(t, repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		next, outcome, err := srs.ApplyReview(first.State(), srs.Easy, now)
		if err != nil {
			return err
		}
		first.SetState(next)
		if err := tx.Put(ctx, first); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, NewReviewLog(first.ID, outcome))
	}))
	require.NoError(t, repo.Delete(ctx, second.ID))

	reloaded, err := NewYAMLRepository(path)
	require.NoError(t, err)

	got, err := reloaded.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	logs, err := reloaded.FindReviewLogs(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, srs.Easy, logs[0].Quality)
	assert.Equal(t, 1.0, logs[0].IntervalDays)

	// Ids are never reused, even for deleted cards.
	third := createCard(t, reloaded, "plum", now)
	assert.Equal(t, int64(3), third.ID)
}

func TestYAMLRepository_WriteFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	dir := t.TempDir()
	path := filepath.Join(dir, "cards.yml")

	repo, err := NewYAMLRepository(path)
	require.NoError(t, err)
	c := createCard(t, repo, "apple", now)

	// A directory in place of the file makes the rename fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), []byte("x"), 0644))

	err = repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		c.Repetition = 1
		return tx.Put(ctx, c)
	})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Repetition)
	assert.Equal(t, int64(1), got.Version)
}

func TestYAMLRepository_WriteFailureLeavesCallerUntouched(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "cards.yml")

	repo, err := NewYAMLRepository(path)
	require.NoError(t, err)
	c := createCard(t, repo, "apple", now)

	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), []byte("x"), 0644))

	log := &ReviewLog{CardID: c.ID, Quality: srs.Easy, IntervalDays: 1, ReviewedAt: now, CreatedAt: now}
	err = repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.AppendHistory(ctx, log)
	})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Zero(t, log.ID)

	unsaved, err := New("pear", "pear back", now)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, unsaved), ErrStorageUnavailable)
	assert.Zero(t, unsaved.ID)

	logs, err := repo.FindReviewLogs(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	// Ids skipped by failed writes are handed out again once writes succeed.
	require.NoError(t, os.RemoveAll(path))
	require.NoError(t, repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.AppendHistory(ctx, log)
	}))
	assert.Equal(t, int64(1), log.ID)
}

func TestNewYAMLRepository_InvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed yaml",
			content: "cards: [[[",
		},
		{
			name: "ease factor below the floor",
			content: `cards:
  - id: 1
    front: apple
    back: りんご
    ease_factor: 1.1
    version: 1
`,
		},
		{
			name: "review log for a missing card",
			content: `review_logs:
  - id: 1
    card_id: 3
    quality: easy
`,
		},
		{
			name: "unknown quality",
			content: `cards:
  - id: 1
    front: apple
    back: りんご
    ease_factor: 2.5
    version: 1
review_logs:
  - id: 1
    card_id: 1
    quality: good
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cards.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := NewYAMLRepository(path)
			assert.ErrorIs(t, err, ErrStorageUnavailable)
		})
	}
}
