package srs

// Weights for the per-card mastery blend. Repetition history counts the
// most, then how easy the card was last time, then how far out it is
// scheduled.
const (
	masteryRepetitionWeight = 0.5
	masteryRatingWeight     = 0.3
	masteryIntervalWeight   = 0.2

	masteryRepetitionCeiling = 10 // repetitions at which the factor saturates
	masteryIntervalCeiling   = 30 // interval days at which the factor saturates
)

// CardMastery folds a card's repetition count, last rating, and current
// interval into a single 0-1 score. Total over any non-negative inputs.
func CardMastery(repetitions int, lastRating Rating, intervalDays int) float64 {
	if repetitions < 0 {
		repetitions = 0
	}
	if intervalDays < 0 {
		intervalDays = 0
	}

	repFactor := float64(repetitions) / masteryRepetitionCeiling
	if repFactor > 1 {
		repFactor = 1
	}

	// Higher ratings mean easier recall, so invert the scale. An
	// out-of-range rating (e.g. the zero value of a never-reviewed
	// card) contributes on the same inverted scale, clamped below.
	ratingFactor := (6 - float64(lastRating)) / 5
	if ratingFactor > 1 {
		ratingFactor = 1
	}
	if ratingFactor < 0 {
		ratingFactor = 0
	}

	intervalFactor := float64(intervalDays) / masteryIntervalCeiling
	if intervalFactor > 1 {
		intervalFactor = 1
	}

	score := masteryRepetitionWeight*repFactor +
		masteryRatingWeight*ratingFactor +
		masteryIntervalWeight*intervalFactor
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Mastery returns the card's own mastery score.
func (s CardState) Mastery() float64 {
	return CardMastery(s.Repetitions, s.LastRating, s.IntervalDays)
}

// TopicMastery averages per-card mastery across all cards of a topic.
// A topic with no cards scores 0 rather than NaN, so dashboard
// consumers never see an undefined value.
func TopicMastery(states []CardState) float64 {
	if len(states) == 0 {
		return 0
	}
	var sum float64
	for _, s := range states {
		sum += s.Mastery()
	}
	return sum / float64(len(states))
}
