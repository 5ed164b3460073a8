package card

import (
	"context"
	"time"
)

//go:generate mockgen -source=repository.go -destination=../mocks/card/mock_repository.go -package=mock_card

// Repository stores cards and their review logs.
type Repository interface {
	// Get returns ErrItemNotFound when no card has the id.
	Get(ctx context.Context, id int64) (*Card, error)
	// FindAll returns every card ordered by id.
	FindAll(ctx context.Context) ([]Card, error)
	// DueIDs returns the ids of cards whose next review is not after now,
	// ordered by next review then id.
	DueIDs(ctx context.Context, now time.Time) ([]int64, error)
	// FindReviewLogs returns the logs of one card ordered by review time then id.
	FindReviewLogs(ctx context.Context, cardID int64) ([]ReviewLog, error)
	// FindAllReviewLogs returns every log ordered by review time then id.
	FindAllReviewLogs(ctx context.Context) ([]ReviewLog, error)
	// Create assigns the card an id and stores it.
	Create(ctx context.Context, card *Card) error
	// Delete removes the card and its review logs.
	Delete(ctx context.Context, id int64) error
	// RunInTx runs fn as one unit of work. Writes made through tx are
	// committed only if fn returns nil.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the write side of a unit of work.
type Tx interface {
	Get(ctx context.Context, id int64) (*Card, error)
	// Put replaces the stored card if its version still equals card.Version,
	// then increments card.Version. Otherwise it returns ErrStorageConflict.
	Put(ctx context.Context, card *Card) error
	// AppendHistory stores log and assigns its id.
	AppendHistory(ctx context.Context, log *ReviewLog) error
}
