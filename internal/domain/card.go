package domain

import (
	"time"

	"github.com/colmryan/memora/internal/srs"
)

// Card represents a single front-back-context flashcard parsed from a
// deck file. Topic groups cards for mastery reporting.
type Card struct {
	Front   string
	Back    string
	Context string
	Topic   string
	Hash    string
}

// ReviewEvent records a single review of a card. The scheduler consumes
// it once; the store keeps it as an append-only history.
type ReviewEvent struct {
	CardHash   string
	Rating     srs.Rating
	OccurredAt time.Time
}
