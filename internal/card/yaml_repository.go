package card

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// YAMLRepository is a MemoryRepository backed by a single YAML file.
// Every committed change rewrites the file; a failed write discards the change.
type YAMLRepository struct {
	*MemoryRepository
	path string
}

type yamlDocument struct {
	NextCardID int64       `yaml:"next_card_id"`
	NextLogID  int64       `yaml:"next_log_id"`
	Cards      []Card      `yaml:"cards"`
	ReviewLogs []ReviewLog `yaml:"review_logs"`
}

// NewYAMLRepository loads the file at path, or starts empty when it does not
// exist yet.
func NewYAMLRepository(path string) (*YAMLRepository, error) {
	data, err := readYAMLFile(path)
	if err != nil {
		return nil, err
	}

	r := &YAMLRepository{
		MemoryRepository: &MemoryRepository{data: data},
		path:             path,
	}
	r.persist = r.write
	return r, nil
}

// Path returns the file the repository writes to.
func (r *YAMLRepository) Path() string {
	return r.path
}

func readYAMLFile(path string) (*memoryData, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return newMemoryData(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorageUnavailable, path, err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrStorageUnavailable, path, err)
	}

	data := newMemoryData()
	for _, c := range doc.Cards {
		if _, ok := data.cards[c.ID]; ok {
			return nil, fmt.Errorf("%w: parse %s: duplicate card id %d", ErrStorageUnavailable, path, c.ID)
		}
		if err := c.State().Validate(); err != nil {
			return nil, fmt.Errorf("%w: parse %s: card %d: %w", ErrStorageUnavailable, path, c.ID, err)
		}
		data.cards[c.ID] = c
		data.nextCardID = max(data.nextCardID, c.ID+1)
	}
	for _, l := range doc.ReviewLogs {
		if _, ok := data.cards[l.CardID]; !ok {
			return nil, fmt.Errorf("%w: parse %s: review log %d references missing card %d", ErrStorageUnavailable, path, l.ID, l.CardID)
		}
		data.logs = append(data.logs, l)
		data.nextLogID = max(data.nextLogID, l.ID+1)
	}
	data.nextCardID = max(data.nextCardID, doc.NextCardID)
	data.nextLogID = max(data.nextLogID, doc.NextLogID)
	return data, nil
}

// write replaces the file atomically with the content of d.
func (r *YAMLRepository) write(d *memoryData) error {
	doc := yamlDocument{
		NextCardID: d.nextCardID,
		NextLogID:  d.nextLogID,
		Cards:      make([]Card, 0, len(d.cards)),
		ReviewLogs: append([]ReviewLog(nil), d.logs...),
	}
	for _, c := range d.cards {
		doc.Cards = append(doc.Cards, c)
	}
	sort.Slice(doc.Cards, func(i, j int) bool { return doc.Cards[i].ID < doc.Cards[j].ID })
	sortReviewLogs(doc.ReviewLogs)

	content, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal cards: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	if err := renameio.WriteFile(r.path, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}
