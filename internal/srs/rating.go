package srs

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Rating is the learner's recall quality on the SM-2 0-5 scale.
type Rating int

const (
	Blackout      Rating = 0 // No recall at all.
	Wrong         Rating = 1 // Wrong, but recognized the answer.
	WrongFamiliar Rating = 2 // Wrong, but the answer felt familiar.
	Difficult     Rating = 3 // Correct with serious effort.
	Hesitant      Rating = 4 // Correct after some hesitation.
	Perfect       Rating = 5 // Correct without hesitation.
)

// SuccessThreshold divides failed from successful recall: ratings at or
// above it count as a successful repetition, below it as a lapse.
const SuccessThreshold = Difficult

var (
	ratingNames = [...]string{
		Blackout:      "Blackout",
		Wrong:         "Wrong",
		WrongFamiliar: "WrongFamiliar",
		Difficult:     "Difficult",
		Hesitant:      "Hesitant",
		Perfect:       "Perfect",
	}
	ratingByName = map[string]Rating{
		"Blackout":      Blackout,
		"Wrong":         Wrong,
		"WrongFamiliar": WrongFamiliar,
		"Difficult":     Difficult,
		"Hesitant":      Hesitant,
		"Perfect":       Perfect,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Rating(0)
	_ json.Marshaler           = Rating(0)
	_ json.Unmarshaler         = (*Rating)(nil)
	_ encoding.TextMarshaler   = Rating(0)
	_ encoding.TextUnmarshaler = (*Rating)(nil)
)

// IsValid reports whether r lies on the 0-5 scale.
func (r Rating) IsValid() bool {
	return r >= Blackout && r <= Perfect
}

// IsSuccess reports whether r counts as successful recall.
func (r Rating) IsSuccess() bool {
	return r >= SuccessThreshold
}

// String returns the name of the rating, or "Rating(n)" for invalid values.
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(ratingNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	v, ok := ratingByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRating, text)
	}
	*r = v
	return nil
}

// MarshalJSON implements json.Marshaler. Rating serializes as a JSON string.
func (r Rating) MarshalJSON() ([]byte, error) {
	text, err := r.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Accepts either the JSON
// string form ("Perfect") or the bare number form (5), since review
// clients historically sent both.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return r.UnmarshalText([]byte(s))
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRating, data)
	}
	if v := Rating(n); v.IsValid() {
		*r = v
		return nil
	}
	return fmt.Errorf("%w: %d", ErrInvalidRating, n)
}
