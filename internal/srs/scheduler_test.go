package srs

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func reviewedState(t *testing.T, ef float64, reps, interval int) CardState {
	t.Helper()
	last := testNow.AddDate(0, 0, -interval)
	return CardState{
		EasinessFactor: ef,
		Repetitions:    reps,
		IntervalDays:   interval,
		LastRating:     Hesitant,
		LastReviewedAt: &last,
		Due:            testNow,
	}
}

func TestReviewSuccessSequence(t *testing.T) {
	sched, err := NewScheduler(DefaultParams())
	if err != nil {
		t.Fatalf("NewScheduler() returned an unexpected error: %v", err)
	}

	// Fresh card rated Perfect three times in a row. Expected
	// intervals 1, 6, round(6*EF) with EF growing by 0.1 each time:
	// 2.5 -> 2.6 -> 2.7 -> 2.8, so the third interval is round(6*2.8)=17.
	state := sched.NewCard(testNow)

	state, err = sched.Review(state, Perfect, testNow)
	if err != nil {
		t.Fatalf("first review: %v", err)
	}
	if state.Repetitions != 1 || state.IntervalDays != 1 {
		t.Errorf("After first success: got reps=%d interval=%d, want 1/1", state.Repetitions, state.IntervalDays)
	}
	if math.Abs(state.EasinessFactor-2.6) > 0.001 {
		t.Errorf("After first success: got EF=%.3f, want 2.6", state.EasinessFactor)
	}
	if !state.Due.Equal(testNow.AddDate(0, 0, 1)) {
		t.Errorf("After first success: got due %v, want %v", state.Due, testNow.AddDate(0, 0, 1))
	}

	second := testNow.AddDate(0, 0, 1)
	state, err = sched.Review(state, Perfect, second)
	if err != nil {
		t.Fatalf("second review: %v", err)
	}
	if state.Repetitions != 2 || state.IntervalDays != 6 {
		t.Errorf("After second success: got reps=%d interval=%d, want 2/6", state.Repetitions, state.IntervalDays)
	}
	if !state.Due.Equal(second.AddDate(0, 0, 6)) {
		t.Errorf("After second success: got due %v, want %v", state.Due, second.AddDate(0, 0, 6))
	}

	third := second.AddDate(0, 0, 6)
	state, err = sched.Review(state, Perfect, third)
	if err != nil {
		t.Fatalf("third review: %v", err)
	}
	// round(6 * 2.8) = 17
	if state.Repetitions != 3 || state.IntervalDays != 17 {
		t.Errorf("After third success: got reps=%d interval=%d, want 3/17", state.Repetitions, state.IntervalDays)
	}
}

func TestReviewFailure(t *testing.T) {
	sched, _ := NewScheduler(DefaultParams())

	t.Run("resets repetitions and interval", func(t *testing.T) {
		state := reviewedState(t, 2.2, 3, 15)
		got, err := sched.Review(state, Wrong, testNow)
		if err != nil {
			t.Fatalf("Review() returned an unexpected error: %v", err)
		}
		if got.Repetitions != 0 {
			t.Errorf("Expected repetitions reset to 0, got %d", got.Repetitions)
		}
		if got.IntervalDays != 1 {
			t.Errorf("Expected interval 1 after failure, got %d", got.IntervalDays)
		}
		// EF' = 2.2 + (0.1 - 4*(0.08 + 4*0.02)) = 2.2 - 0.54 = 1.66
		if math.Abs(got.EasinessFactor-1.66) > 0.001 {
			t.Errorf("Expected EF 1.66, got %.3f", got.EasinessFactor)
		}
	})

	t.Run("easiness never falls below the floor", func(t *testing.T) {
		state := reviewedState(t, 1.3, 1, 1)
		got, err := sched.Review(state, Blackout, testNow)
		if err != nil {
			t.Fatalf("Review() returned an unexpected error: %v", err)
		}
		if got.EasinessFactor < MinEasiness {
			t.Errorf("Expected EF >= %.2f, got %.3f", MinEasiness, got.EasinessFactor)
		}
	})

	t.Run("decrement policy knocks off one repetition", func(t *testing.T) {
		params := DefaultParams()
		params.FailurePolicy = DecrementRepetitions
		s, err := NewScheduler(params)
		if err != nil {
			t.Fatalf("NewScheduler() returned an unexpected error: %v", err)
		}
		got, err := s.Review(reviewedState(t, 2.5, 4, 20), WrongFamiliar, testNow)
		if err != nil {
			t.Fatalf("Review() returned an unexpected error: %v", err)
		}
		if got.Repetitions != 3 {
			t.Errorf("Expected repetitions 3 under decrement policy, got %d", got.Repetitions)
		}
		if got.IntervalDays != 1 {
			t.Errorf("Expected interval 1 after failure, got %d", got.IntervalDays)
		}
	})
}

func TestReviewInvariants(t *testing.T) {
	sched, _ := NewScheduler(DefaultParams())
	ratings := []Rating{Blackout, Wrong, WrongFamiliar, Difficult, Hesitant, Perfect}
	starts := []CardState{
		NewCardState(testNow),
		reviewedState(t, 1.3, 0, 1),
		reviewedState(t, 1.3, 1, 1),
		reviewedState(t, 2.5, 2, 6),
		reviewedState(t, 3.1, 12, 200),
	}

	for _, start := range starts {
		for _, r := range ratings {
			got, err := sched.Review(start, r, testNow)
			if err != nil {
				t.Fatalf("Review(reps=%d, %v) returned an unexpected error: %v", start.Repetitions, r, err)
			}
			if got.EasinessFactor < MinEasiness {
				t.Errorf("Review(reps=%d, %v): EF %.3f below floor", start.Repetitions, r, got.EasinessFactor)
			}
			if got.IntervalDays < 1 {
				t.Errorf("Review(reps=%d, %v): interval %d < 1", start.Repetitions, r, got.IntervalDays)
			}
			if !got.Due.Equal(testNow.AddDate(0, 0, got.IntervalDays)) {
				t.Errorf("Review(reps=%d, %v): due %v does not match now + %d days", start.Repetitions, r, got.Due, got.IntervalDays)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("Review(reps=%d, %v): output fails validation: %v", start.Repetitions, r, err)
			}
		}
	}
}

func TestReviewIsPure(t *testing.T) {
	sched, _ := NewScheduler(DefaultParams())
	state := reviewedState(t, 2.5, 2, 6)
	before := state

	first, err := sched.Review(state, Hesitant, testNow)
	if err != nil {
		t.Fatalf("Review() returned an unexpected error: %v", err)
	}
	second, err := sched.Review(state, Hesitant, testNow)
	if err != nil {
		t.Fatalf("Review() returned an unexpected error: %v", err)
	}

	if first.EasinessFactor != second.EasinessFactor ||
		first.Repetitions != second.Repetitions ||
		first.IntervalDays != second.IntervalDays ||
		!first.Due.Equal(second.Due) {
		t.Error("Expected identical inputs to produce identical outputs")
	}
	if state.EasinessFactor != before.EasinessFactor || state.Repetitions != before.Repetitions {
		t.Error("Expected the input state to be left unmodified")
	}
}

func TestReviewRejectsBadInput(t *testing.T) {
	sched, _ := NewScheduler(DefaultParams())

	t.Run("out-of-range rating", func(t *testing.T) {
		_, err := sched.Review(NewCardState(testNow), Rating(6), testNow)
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("Expected ErrInvalidRating, got %v", err)
		}
		_, err = sched.Review(NewCardState(testNow), Rating(-1), testNow)
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("Expected ErrInvalidRating, got %v", err)
		}
	})

	t.Run("invariant-violating state", func(t *testing.T) {
		bad := reviewedState(t, 2.5, 2, 6)
		bad.IntervalDays = -3
		_, err := sched.Review(bad, Perfect, testNow)
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("Expected ErrInvalidState, got %v", err)
		}
	})
}

func TestReviewMaxInterval(t *testing.T) {
	params := DefaultParams()
	params.MaxInterval = 60
	sched, err := NewScheduler(params)
	if err != nil {
		t.Fatalf("NewScheduler() returned an unexpected error: %v", err)
	}

	// 40 * 2.5ish would blow past 60; the cap must hold.
	got, err := sched.Review(reviewedState(t, 2.5, 5, 40), Perfect, testNow)
	if err != nil {
		t.Fatalf("Review() returned an unexpected error: %v", err)
	}
	if got.IntervalDays != 60 {
		t.Errorf("Expected interval capped at 60, got %d", got.IntervalDays)
	}
}

func TestParamsValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero min easiness", func(p *Params) { p.MinEasiness = 0 }},
		{"initial below floor", func(p *Params) { p.InitialEasiness = 1.0 }},
		{"zero first interval", func(p *Params) { p.FirstInterval = 0 }},
		{"second below first", func(p *Params) { p.SecondInterval = 0 }},
		{"max below second", func(p *Params) { p.MaxInterval = 3 }},
		{"unknown failure policy", func(p *Params) { p.FailurePolicy = FailurePolicy(9) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParams()
			tc.mutate(&params)
			if _, err := NewScheduler(params); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Expected ErrInvalidParams, got %v", err)
			}
		})
	}
}
