package srs

import "errors"

var (
	// ErrInvalidQuality is returned for a quality outside Forgot, Hard and Easy.
	ErrInvalidQuality = errors.New("srs: invalid quality")
	// ErrInvalidState is returned when a scheduling state violates its invariants.
	ErrInvalidState = errors.New("srs: invalid scheduling state")
)
