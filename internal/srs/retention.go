package srs

import (
	"encoding"
	"fmt"
	"math"
	"time"
)

// RetentionModel selects the forgetting-curve model used to estimate
// recall probability.
type RetentionModel int

const (
	// Exponential models retention as exp(-t/S) where the memory
	// strength S grows with repetitions and easiness. Default.
	Exponential RetentionModel = iota
	// PiecewiseLinear decays linearly until the card is overdue, then
	// falls off more steeply. Kept for compatibility with older
	// dashboard figures.
	PiecewiseLinear
)

var (
	modelNames = [...]string{
		Exponential:     "exponential",
		PiecewiseLinear: "piecewise-linear",
	}
	modelByName = map[string]RetentionModel{
		"exponential":      Exponential,
		"piecewise-linear": PiecewiseLinear,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = RetentionModel(0)
	_ encoding.TextMarshaler   = RetentionModel(0)
	_ encoding.TextUnmarshaler = (*RetentionModel)(nil)
)

// ParseRetentionModel maps a model name to its RetentionModel.
func ParseRetentionModel(name string) (RetentionModel, error) {
	m, ok := modelByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidModel, name)
	}
	return m, nil
}

func (m RetentionModel) isValid() bool {
	return m == Exponential || m == PiecewiseLinear
}

// String returns the model name, or "RetentionModel(n)" for invalid values.
func (m RetentionModel) String() string {
	if m.isValid() {
		return modelNames[m]
	}
	return fmt.Sprintf("RetentionModel(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m RetentionModel) MarshalText() ([]byte, error) {
	if !m.isValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidModel, int(m))
	}
	return []byte(modelNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RetentionModel) UnmarshalText(text []byte) error {
	v, err := ParseRetentionModel(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// RetentionSnapshot is the answer to "how likely is the learner to
// still remember this card right now". Derived on demand, never stored.
type RetentionSnapshot struct {
	EstimatedRetention float64 `json:"estimated_retention"` // in [0, 1]
	DaysSinceReview    int     `json:"days_since_review"`
}

// EstimateRetention computes the recall probability for a card at time
// now under the given model. The result is clamped to [0, 1], is
// exactly 1 at zero elapsed days, and never increases as more time
// passes.
func EstimateRetention(state CardState, now time.Time, model RetentionModel) (RetentionSnapshot, error) {
	if err := state.Validate(); err != nil {
		return RetentionSnapshot{}, err
	}

	days := state.DaysSinceReview(now)

	var r float64
	switch model {
	case Exponential:
		// A card that has never survived a review gets minimal memory
		// strength, so it decays fast.
		reps := state.Repetitions
		if reps < 1 {
			reps = 1
		}
		strength := float64(reps) * state.EasinessFactor
		r = math.Exp(-float64(days) / strength)
	case PiecewiseLinear:
		interval := state.IntervalDays
		if interval < 1 {
			interval = 1
		}
		if days <= interval {
			r = 1 - float64(days)/(float64(interval)*2)
		} else {
			// Overdue. The steeper arm can sit above the pre-due arm
			// for long intervals, so take the lower of the two to keep
			// the curve non-increasing across the boundary.
			overdue := 1 - float64(days-interval)/(float64(interval)*state.EasinessFactor)
			r = math.Min(overdue, 1-float64(days)/(float64(interval)*2))
		}
	default:
		return RetentionSnapshot{}, fmt.Errorf("%w: %d", ErrInvalidModel, int(model))
	}

	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return RetentionSnapshot{EstimatedRetention: r, DaysSinceReview: days}, nil
}
