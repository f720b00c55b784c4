package srs

import (
	"fmt"
	"math"
	"time"
)

// Default scheduling constants from the SM-2 algorithm.
const (
	InitialEasiness = 2.5
	MinEasiness     = 1.3
)

// FailurePolicy controls what happens to the repetition count when a
// review is rated below the success threshold.
type FailurePolicy int

const (
	// ResetRepetitions drops the count back to zero on any lapse.
	// This is classic SM-2 behavior and the default.
	ResetRepetitions FailurePolicy = iota
	// DecrementRepetitions knocks one repetition off instead, so a
	// single bad day does not erase a long streak.
	DecrementRepetitions
)

// Params holds the tunable constants of the scheduler.
type Params struct {
	InitialEasiness float64       `json:"initial_easiness"`
	MinEasiness     float64       `json:"min_easiness"`
	FirstInterval   int           `json:"first_interval"`  // days after the first success
	SecondInterval  int           `json:"second_interval"` // days after the second success
	MaxInterval     int           `json:"max_interval"`    // hard cap in days
	FailurePolicy   FailurePolicy `json:"failure_policy"`
}

// DefaultParams returns the reference SM-2 parameters.
func DefaultParams() Params {
	return Params{
		InitialEasiness: InitialEasiness,
		MinEasiness:     MinEasiness,
		FirstInterval:   1,
		SecondInterval:  6,
		MaxInterval:     36500,
		FailurePolicy:   ResetRepetitions,
	}
}

// Validate checks that the parameters are internally consistent.
func (p Params) Validate() error {
	if p.MinEasiness <= 0 {
		return fmt.Errorf("%w: min easiness %.2f", ErrInvalidParams, p.MinEasiness)
	}
	if p.InitialEasiness < p.MinEasiness {
		return fmt.Errorf("%w: initial easiness %.2f below floor %.2f", ErrInvalidParams, p.InitialEasiness, p.MinEasiness)
	}
	if p.FirstInterval < 1 || p.SecondInterval < p.FirstInterval {
		return fmt.Errorf("%w: intervals %d/%d", ErrInvalidParams, p.FirstInterval, p.SecondInterval)
	}
	if p.MaxInterval < p.SecondInterval {
		return fmt.Errorf("%w: max interval %d below second interval %d", ErrInvalidParams, p.MaxInterval, p.SecondInterval)
	}
	if p.FailurePolicy != ResetRepetitions && p.FailurePolicy != DecrementRepetitions {
		return fmt.Errorf("%w: failure policy %d", ErrInvalidParams, int(p.FailurePolicy))
	}
	return nil
}

// Scheduler computes review schedules using the SM-2 algorithm.
type Scheduler struct {
	params Params
}

// NewScheduler creates a Scheduler with the given parameters.
func NewScheduler(params Params) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{params: params}, nil
}

// Params returns the scheduler's parameters.
func (s *Scheduler) Params() Params {
	return s.params
}

// NewCard returns the initial state for a card created at now, using
// the scheduler's configured initial easiness.
func (s *Scheduler) NewCard(now time.Time) CardState {
	st := NewCardState(now)
	st.EasinessFactor = s.params.InitialEasiness
	return st
}

// Review applies one review event to a card state and returns the
// updated state. The input state is not modified. An out-of-range
// rating or an invariant-violating state is rejected, never clamped.
func (s *Scheduler) Review(state CardState, rating Rating, now time.Time) (CardState, error) {
	if !rating.IsValid() {
		return CardState{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	if err := state.Validate(); err != nil {
		return CardState{}, err
	}

	next := state

	// EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02)), floored.
	q := float64(rating)
	ef := state.EasinessFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < s.params.MinEasiness {
		ef = s.params.MinEasiness
	}
	next.EasinessFactor = ef

	if rating.IsSuccess() {
		next.Repetitions = state.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = s.params.FirstInterval
		case 2:
			next.IntervalDays = s.params.SecondInterval
		default:
			next.IntervalDays = int(math.Round(float64(state.IntervalDays) * ef))
		}
	} else {
		switch s.params.FailurePolicy {
		case DecrementRepetitions:
			next.Repetitions = state.Repetitions - 1
			if next.Repetitions < 0 {
				next.Repetitions = 0
			}
		default:
			next.Repetitions = 0
		}
		next.IntervalDays = 1
	}

	if next.IntervalDays < 1 {
		next.IntervalDays = 1
	}
	if next.IntervalDays > s.params.MaxInterval {
		next.IntervalDays = s.params.MaxInterval
	}

	next.LastRating = rating
	next.LastReviewedAt = &now
	next.Due = now.AddDate(0, 0, next.IntervalDays)
	return next, nil
}
