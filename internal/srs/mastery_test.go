package srs

import (
	"math"
	"testing"
)

func TestCardMastery(t *testing.T) {
	testCases := []struct {
		name        string
		repetitions int
		lastRating  Rating
		interval    int
		expected    float64
	}{
		// 0.5*1 + 0.3*(6-5)/5 + 0.2*1 = 0.76
		{"long-held easy card", 12, Perfect, 45, 0.76},
		// 0.5*0.3 + 0.3*(6-3)/5 + 0.2*0.2 = 0.15 + 0.18 + 0.04 = 0.37
		{"mid-learning card", 3, Difficult, 6, 0.37},
		// Rating factor clamps at 1 for the 0 rating:
		// 0.5*0.1 + 0.3*1 + 0.2*(1/30) = 0.05 + 0.3 + 0.00667 = 0.35667
		{"just lapsed card", 1, Blackout, 1, 0.35667},
		{"untouched card", 0, Rating(0), 0, 0.3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CardMastery(tc.repetitions, tc.lastRating, tc.interval)
			if math.Abs(got-tc.expected) > 0.001 {
				t.Errorf("CardMastery(%d, %v, %d) = %.5f, want %.5f",
					tc.repetitions, tc.lastRating, tc.interval, got, tc.expected)
			}
			if got < 0 || got > 1 {
				t.Errorf("CardMastery(%d, %v, %d) = %.5f outside [0, 1]",
					tc.repetitions, tc.lastRating, tc.interval, got)
			}
		})
	}
}

func TestCardMasteryTotal(t *testing.T) {
	// Garbage in must still produce a score in range, never a panic or NaN.
	inputs := []struct {
		repetitions int
		lastRating  Rating
		interval    int
	}{
		{-5, Rating(-2), -10},
		{1000, Rating(99), 100000},
		{0, Perfect, 0},
	}
	for _, in := range inputs {
		got := CardMastery(in.repetitions, in.lastRating, in.interval)
		if math.IsNaN(got) || got < 0 || got > 1 {
			t.Errorf("CardMastery(%d, %d, %d) = %v, want a value in [0, 1]",
				in.repetitions, int(in.lastRating), in.interval, got)
		}
	}
}

func TestTopicMastery(t *testing.T) {
	t.Run("empty topic scores zero", func(t *testing.T) {
		if got := TopicMastery(nil); got != 0 {
			t.Errorf("TopicMastery(nil) = %v, want 0", got)
		}
		if got := TopicMastery([]CardState{}); got != 0 {
			t.Errorf("TopicMastery([]) = %v, want 0", got)
		}
	})

	t.Run("mean of per-card mastery", func(t *testing.T) {
		states := []CardState{
			reviewedState(t, 2.5, 12, 45), // saturates repetition and interval factors
			reviewedState(t, 2.5, 3, 6),
			reviewedState(t, 2.5, 0, 1),
		}
		want := (states[0].Mastery() + states[1].Mastery() + states[2].Mastery()) / 3
		if got := TopicMastery(states); math.Abs(got-want) > 1e-12 {
			t.Errorf("TopicMastery() = %.6f, want %.6f", got, want)
		}
	})

	t.Run("uniform cards average to themselves", func(t *testing.T) {
		card := reviewedState(t, 2.5, 5, 10)
		states := []CardState{card, card, card}
		if got, want := TopicMastery(states), card.Mastery(); math.Abs(got-want) > 1e-12 {
			t.Errorf("TopicMastery() = %.6f, want %.6f", got, want)
		}
	})
}
