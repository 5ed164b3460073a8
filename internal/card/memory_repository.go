package card

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepository implements Repository in process memory.
// It is safe for concurrent use.
type MemoryRepository struct {
	mu   sync.Mutex
	data *memoryData

	// persist, when set, must durably store d before it becomes visible.
	// A failed persist leaves the committed data unchanged.
	persist func(d *memoryData) error
}

type memoryData struct {
	cards      map[int64]Card
	logs       []ReviewLog
	nextCardID int64
	nextLogID  int64
}

func newMemoryData() *memoryData {
	return &memoryData{
		cards:      make(map[int64]Card),
		nextCardID: 1,
		nextLogID:  1,
	}
}

func (d *memoryData) clone() *memoryData {
	cards := make(map[int64]Card, len(d.cards))
	for id, c := range d.cards {
		cards[id] = c
	}
	return &memoryData{
		cards:      cards,
		logs:       append([]ReviewLog(nil), d.logs...),
		nextCardID: d.nextCardID,
		nextLogID:  d.nextLogID,
	}
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: newMemoryData()}
}

func (r *MemoryRepository) Get(ctx context.Context, id int64) (*Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.data.cards[id]
	if !ok {
		return nil, fmt.Errorf("load card %d: %w", id, ErrItemNotFound)
	}
	return &c, nil
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cards := make([]Card, 0, len(r.data.cards))
	for _, c := range r.data.cards {
		cards = append(cards, c)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

func (r *MemoryRepository) DueIDs(ctx context.Context, now time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []Card
	for _, c := range r.data.cards {
		if !c.NextReview.After(now) {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReview.Equal(due[j].NextReview) {
			return due[i].NextReview.Before(due[j].NextReview)
		}
		return due[i].ID < due[j].ID
	})

	ids := make([]int64, len(due))
	for i, c := range due {
		ids[i] = c.ID
	}
	return ids, nil
}

func (r *MemoryRepository) FindReviewLogs(ctx context.Context, cardID int64) ([]ReviewLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var logs []ReviewLog
	for _, l := range r.data.logs {
		if l.CardID == cardID {
			logs = append(logs, l)
		}
	}
	sortReviewLogs(logs)
	return logs, nil
}

func (r *MemoryRepository) FindAllReviewLogs(ctx context.Context) ([]ReviewLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logs := append([]ReviewLog(nil), r.data.logs...)
	sortReviewLogs(logs)
	return logs, nil
}

func (r *MemoryRepository) Create(ctx context.Context, card *Card) error {
	var id int64
	if err := r.update(func(d *memoryData) error {
		c := *card
		c.ID = d.nextCardID
		d.nextCardID++
		d.cards[c.ID] = c
		id = c.ID
		return nil
	}); err != nil {
		return err
	}
	card.ID = id
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int64) error {
	return r.update(func(d *memoryData) error {
		if _, ok := d.cards[id]; !ok {
			return fmt.Errorf("delete card %d: %w", id, ErrItemNotFound)
		}
		delete(d.cards, id)
		logs := d.logs[:0:0]
		for _, l := range d.logs {
			if l.CardID != id {
				logs = append(logs, l)
			}
		}
		d.logs = logs
		return nil
	})
}

// RunInTx stages the writes of fn and applies them at commit, provided no
// other transaction changed the same cards in the meantime.
func (r *MemoryRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memoryTx{
		repo:         r,
		puts:         make(map[int64]Card),
		baseVersions: make(map[int64]int64),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return tx.commit()
}

// update applies fn to the data under the lock. Without a persist hook the
// data is changed in place; fn must then leave it untouched on error.
func (r *MemoryRepository) update(fn func(d *memoryData) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.persist == nil {
		return fn(r.data)
	}
	next := r.data.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := r.persist(next); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	r.data = next
	return nil
}

type memoryTx struct {
	repo *MemoryRepository
	puts map[int64]Card
	logs []*ReviewLog
	// baseVersions holds the committed version each put card was read at.
	baseVersions map[int64]int64
}

func (t *memoryTx) Get(ctx context.Context, id int64) (*Card, error) {
	if c, ok := t.puts[id]; ok {
		return &c, nil
	}
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) Put(ctx context.Context, card *Card) error {
	t.repo.mu.Lock()
	committed, ok := t.repo.data.cards[card.ID]
	t.repo.mu.Unlock()
	if !ok {
		return fmt.Errorf("update card %d: %w", card.ID, ErrItemNotFound)
	}

	expected := committed.Version
	if staged, ok := t.puts[card.ID]; ok {
		expected = staged.Version
	}
	if card.Version != expected {
		return fmt.Errorf("update card %d: version %d, stored %d: %w", card.ID, card.Version, expected, ErrStorageConflict)
	}
	if _, ok := t.baseVersions[card.ID]; !ok {
		t.baseVersions[card.ID] = committed.Version
	}

	card.Version++
	t.puts[card.ID] = *card
	return nil
}

func (t *memoryTx) AppendHistory(ctx context.Context, log *ReviewLog) error {
	if _, ok := t.puts[log.CardID]; !ok {
		t.repo.mu.Lock()
		_, ok = t.repo.data.cards[log.CardID]
		t.repo.mu.Unlock()
		if !ok {
			return fmt.Errorf("insert review log of card %d: %w", log.CardID, ErrItemNotFound)
		}
	}
	t.logs = append(t.logs, log)
	return nil
}

// commit applies the staged writes. Log ids reach the caller only once the
// change is stored.
func (t *memoryTx) commit() error {
	ids := make([]int64, len(t.logs))
	err := t.repo.update(func(d *memoryData) error {
		for id, base := range t.baseVersions {
			current, ok := d.cards[id]
			if !ok {
				return fmt.Errorf("commit card %d: %w", id, ErrItemNotFound)
			}
			if current.Version != base {
				return fmt.Errorf("commit card %d: version %d, stored %d: %w", id, base, current.Version, ErrStorageConflict)
			}
		}
		for _, l := range t.logs {
			if _, ok := d.cards[l.CardID]; !ok {
				return fmt.Errorf("commit review log of card %d: %w", l.CardID, ErrItemNotFound)
			}
		}

		for id, c := range t.puts {
			d.cards[id] = c
		}
		for i, l := range t.logs {
			stored := *l
			stored.ID = d.nextLogID
			d.nextLogID++
			d.logs = append(d.logs, stored)
			ids[i] = stored.ID
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, l := range t.logs {
		l.ID = ids[i]
	}
	return nil
}

func sortReviewLogs(logs []ReviewLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].ReviewedAt.Equal(logs[j].ReviewedAt) {
			return logs[i].ReviewedAt.Before(logs[j].ReviewedAt)
		}
		return logs[i].ID < logs[j].ID
	})
}
