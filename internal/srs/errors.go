package srs

import "errors"

// Sentinel errors for the srs package.
// Check with errors.Is, e.g. errors.Is(err, srs.ErrInvalidRating).
var (
	ErrInvalidRating = errors.New("srs: invalid rating")
	ErrInvalidState  = errors.New("srs: card state violates invariants")
	ErrInvalidModel  = errors.New("srs: unknown retention model")
	ErrInvalidParams = errors.New("srs: scheduler parameters out of bounds")
)
