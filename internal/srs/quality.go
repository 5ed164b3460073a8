package srs

import (
	"encoding"
	"fmt"
	"strconv"
	"strings"
)

// Quality is the learner's self-reported recall quality for one review.
// The numeric values are the SM-2 grades the reduced scale maps onto and are
// what gets persisted.
type Quality int

const (
	Forgot Quality = 0 // No recall.
	Hard   Quality = 2 // Recalled with difficulty.
	Easy   Quality = 4 // Recalled confidently.
)

var qualityByName = map[string]Quality{
	"forgot": Forgot,
	"hard":   Hard,
	"easy":   Easy,
}

var (
	_ fmt.Stringer             = Quality(0)
	_ encoding.TextMarshaler   = Quality(0)
	_ encoding.TextUnmarshaler = (*Quality)(nil)
)

// Qualities returns every valid quality in ascending grade order.
func Qualities() []Quality {
	return []Quality{Forgot, Hard, Easy}
}

// IsValid reports whether q is one of Forgot, Hard or Easy.
func (q Quality) IsValid() bool {
	switch q {
	case Forgot, Hard, Easy:
		return true
	}
	return false
}

func (q Quality) String() string {
	switch q {
	case Forgot:
		return "forgot"
	case Hard:
		return "hard"
	case Easy:
		return "easy"
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// ParseQuality accepts a quality name (forgot, hard, easy; case-insensitive)
// or its grade (0, 2, 4).
func ParseQuality(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if q, ok := qualityByName[s]; ok {
		return q, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
	}
	q := Quality(n)
	if !q.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuality, n)
	}
	return q, nil
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	if !q.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, int(q))
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quality) UnmarshalText(text []byte) error {
	v, err := ParseQuality(string(text))
	if err != nil {
		return err
	}
	*q = v
	return nil
}
