package srs

import (
	"fmt"
	"time"
)

// CardState holds the scheduling state of a single card. It is a value
// type: Review returns a new state and never mutates its input, so the
// caller decides when to persist.
type CardState struct {
	EasinessFactor float64    `json:"easiness_factor"`
	Repetitions    int        `json:"repetitions"` // consecutive successes since the last lapse
	IntervalDays   int        `json:"interval_days"`
	LastRating     Rating     `json:"last_rating"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"` // nil before first review
	Due            time.Time  `json:"due"`
}

// NewCardState returns the state of a freshly created card. New cards
// are immediately due.
func NewCardState(now time.Time) CardState {
	return CardState{
		EasinessFactor: InitialEasiness,
		Repetitions:    0,
		IntervalDays:   0,
		Due:            now,
	}
}

// Reviewed reports whether the card has been reviewed at least once.
func (s CardState) Reviewed() bool {
	return s.LastReviewedAt != nil
}

// Validate checks the state invariants. A state loaded from storage
// should be validated before it is handed to the scheduler; the
// scheduler rejects invalid state rather than repairing it.
func (s CardState) Validate() error {
	if s.Repetitions < 0 {
		return fmt.Errorf("%w: repetitions %d < 0", ErrInvalidState, s.Repetitions)
	}
	if s.IntervalDays < 0 {
		return fmt.Errorf("%w: interval %d days < 0", ErrInvalidState, s.IntervalDays)
	}
	if s.EasinessFactor <= 0 {
		return fmt.Errorf("%w: easiness factor %.2f <= 0", ErrInvalidState, s.EasinessFactor)
	}
	if !s.Reviewed() {
		return nil
	}
	// Invariants that only hold once the scheduler has run at least once.
	if s.EasinessFactor < MinEasiness {
		return fmt.Errorf("%w: easiness factor %.2f below floor %.2f", ErrInvalidState, s.EasinessFactor, MinEasiness)
	}
	if s.IntervalDays < 1 {
		return fmt.Errorf("%w: reviewed card with interval %d days", ErrInvalidState, s.IntervalDays)
	}
	if !s.LastRating.IsValid() {
		return fmt.Errorf("%w: last rating %d", ErrInvalidState, int(s.LastRating))
	}
	return nil
}

// DaysSinceReview returns the whole days elapsed since the last review,
// never negative. For a card that has never been reviewed the clock
// starts at its due date.
func (s CardState) DaysSinceReview(now time.Time) int {
	since := s.Due
	if s.LastReviewedAt != nil {
		since = *s.LastReviewedAt
	}
	days := int(now.Sub(since).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
