package deck

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/colmryan/memora/internal/domain"
)

// Deck files are plain markdown with line prefixes:
//
//	T: topic for the cards that follow
//	Q: front of a card (starts a new card)
//	A: back of the card
//	C: optional context shown with the answer
//
// Blocks may span multiple lines; "---" ends the current card.
const (
	topicPrefix   = "T:"
	frontPrefix   = "Q:"
	backPrefix    = "A:"
	contextPrefix = "C:"
	separator     = "---"
)

type section int

const (
	seeking section = iota
	readingFront
	readingBack
	readingContext
)

// ParseFile reads a deck file from disk and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads deck markup from r and extracts all cards. Cards without
// a front are dropped; a topic line applies to every card after it
// until the next topic line.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)

	var (
		cards   []domain.Card
		current domain.Card
		block   []string
		topic   string
		sect    = seeking
	)

	closeBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch sect {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		case readingContext:
			current.Context = content
		}
		block = nil
	}

	finishCard := func() {
		closeBlock()
		if current.Front != "" {
			current.Topic = topic
			cards = append(cards, current)
		}
		current = domain.Card{}
		sect = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == separator {
			finishCard()
			continue
		}

		if rest, ok := strings.CutPrefix(line, topicPrefix); ok {
			finishCard()
			topic = strings.TrimSpace(rest)
			continue
		}

		var next section
		var rest string
		switch {
		case strings.HasPrefix(line, frontPrefix):
			next, rest = readingFront, line[len(frontPrefix):]
		case strings.HasPrefix(line, backPrefix):
			next, rest = readingBack, line[len(backPrefix):]
		case strings.HasPrefix(line, contextPrefix):
			next, rest = readingContext, line[len(contextPrefix):]
		default:
			if sect != seeking {
				block = append(block, line)
			}
			continue
		}

		if next == readingFront && sect != seeking {
			// A new front always starts a new card.
			finishCard()
		} else {
			closeBlock()
		}
		sect = next
		block = append(block, strings.TrimPrefix(rest, " "))
	}
	finishCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}
