package card

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/cardsched/internal/database"
)

// MySQL error for an insert referencing a missing parent row.
const errNoReferencedRow = 1452

// DBRepository implements Repository using MySQL.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

// Get returns the card with the id.
func (r *DBRepository) Get(ctx context.Context, id int64) (*Card, error) {
	return getCard(ctx, r.db, "SELECT * FROM cards WHERE id = ?", id)
}

// FindAll returns all cards.
func (r *DBRepository) FindAll(ctx context.Context) ([]Card, error) {
	var cards []Card
	if err := r.db.SelectContext(ctx, &cards, "SELECT * FROM cards ORDER BY id"); err != nil {
		return nil, storageError("load all cards", err)
	}
	return cards, nil
}

// DueIDs returns the ids of cards due at now.
func (r *DBRepository) DueIDs(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids,
		"SELECT id FROM cards WHERE next_review <= ? ORDER BY next_review, id", now); err != nil {
		return nil, storageError("load due cards", err)
	}
	return ids, nil
}

// FindReviewLogs returns the review logs of a card.
func (r *DBRepository) FindReviewLogs(ctx context.Context, cardID int64) ([]ReviewLog, error) {
	var logs []ReviewLog
	if err := r.db.SelectContext(ctx, &logs,
		"SELECT * FROM review_logs WHERE card_id = ? ORDER BY reviewed_at, id", cardID); err != nil {
		return nil, storageError(fmt.Sprintf("load review logs of card %d", cardID), err)
	}
	return logs, nil
}

// FindAllReviewLogs returns all review logs.
func (r *DBRepository) FindAllReviewLogs(ctx context.Context) ([]ReviewLog, error) {
	var logs []ReviewLog
	if err := r.db.SelectContext(ctx, &logs, "SELECT * FROM review_logs ORDER BY reviewed_at, id"); err != nil {
		return nil, storageError("load all review logs", err)
	}
	return logs, nil
}

// Create inserts a new card.
func (r *DBRepository) Create(ctx context.Context, card *Card) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (front, back, repetition, interval_days, ease_factor, next_review, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.Front, card.Back, card.Repetition, card.IntervalDays, card.EaseFactor,
		card.NextReview, card.Version, card.CreatedAt, card.UpdatedAt)
	if err != nil {
		return storageError("insert card", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return storageError("get card insert ID", err)
	}
	card.ID = id
	return nil
}

// Delete removes a card. Review logs are removed by the foreign key cascade.
func (r *DBRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return storageError(fmt.Sprintf("delete card %d", id), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storageError(fmt.Sprintf("delete card %d", id), err)
	}
	if affected == 0 {
		return fmt.Errorf("delete card %d: %w", id, ErrItemNotFound)
	}
	return nil
}

// RunInTx runs fn within a MySQL transaction.
func (r *DBRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	var fnErr error
	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		fnErr = fn(ctx, &dbTx{tx: tx})
		return fnErr
	})
	switch {
	case err == nil:
		return nil
	case fnErr != nil && err == fnErr:
		return fnErr
	default:
		return storageError("run transaction", err)
	}
}

type dbTx struct {
	tx *sqlx.Tx
}

// Get locks the card row until the transaction ends.
func (t *dbTx) Get(ctx context.Context, id int64) (*Card, error) {
	return getCard(ctx, t.tx, "SELECT * FROM cards WHERE id = ? FOR UPDATE", id)
}

func (t *dbTx) Put(ctx context.Context, card *Card) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE cards SET front = ?, back = ?, repetition = ?, interval_days = ?, ease_factor = ?, next_review = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		card.Front, card.Back, card.Repetition, card.IntervalDays, card.EaseFactor,
		card.NextReview, card.UpdatedAt, card.ID, card.Version)
	if err != nil {
		return storageError(fmt.Sprintf("update card %d", card.ID), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storageError(fmt.Sprintf("update card %d", card.ID), err)
	}
	if affected == 1 {
		card.Version++
		return nil
	}

	var stored int64
	err = t.tx.GetContext(ctx, &stored, "SELECT version FROM cards WHERE id = ?", card.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update card %d: %w", card.ID, ErrItemNotFound)
	}
	if err != nil {
		return storageError(fmt.Sprintf("load version of card %d", card.ID), err)
	}
	return fmt.Errorf("update card %d: version %d, stored %d: %w", card.ID, card.Version, stored, ErrStorageConflict)
}

func (t *dbTx) AppendHistory(ctx context.Context, log *ReviewLog) error {
	result, err := t.tx.ExecContext(ctx,
		`INSERT INTO review_logs (card_id, quality, interval_days, reviewed_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		log.CardID, log.Quality, log.IntervalDays, log.ReviewedAt, log.CreatedAt)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == errNoReferencedRow {
			return fmt.Errorf("insert review log of card %d: %w", log.CardID, ErrItemNotFound)
		}
		return storageError(fmt.Sprintf("insert review log of card %d", log.CardID), err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return storageError("get review log insert ID", err)
	}
	log.ID = id
	return nil
}

func getCard(ctx context.Context, q sqlx.QueryerContext, query string, id int64) (*Card, error) {
	var card Card
	err := sqlx.GetContext(ctx, q, &card, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load card %d: %w", id, ErrItemNotFound)
	}
	if err != nil {
		return nil, storageError(fmt.Sprintf("load card %d", id), err)
	}
	return &card, nil
}

// storageError classifies a driver error as a conflict or an unavailable store.
func storageError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if database.IsConcurrencyError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrStorageConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
