package deck

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/colmryan/memora/internal/domain"
)

// Normalize returns the card's content in canonical form: each field
// trimmed, lowercased, and with line endings normalized, joined by
// newlines so fields cannot run together. The topic is deliberately
// excluded, so re-tagging a card does not reset its scheduling state.
func Normalize(card domain.Card) string {
	part := func(p string) string {
		p = strings.ToLower(p)
		p = strings.TrimSpace(p)
		return strings.ReplaceAll(p, "\r\n", "\n")
	}
	return strings.Join([]string{part(card.Front), part(card.Back), part(card.Context)}, "\n")
}

// Hash returns the SHA-256 of the normalized card content as a hex
// string. This is the card's identity: a formatting-only edit keeps the
// hash, a rewording produces a new card.
func Hash(card domain.Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return fmt.Sprintf("%x", sum)
}
