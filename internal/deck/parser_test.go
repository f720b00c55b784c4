package deck

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedFront string
		expectedBack  string
		expectedCtx   string
		expectedTopic string
	}{
		{
			name:          "simple card",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedCards: 1,
			expectedFront: "What is the capital of France?",
			expectedBack:  "Paris",
		},
		{
			name:          "card with context",
			input:         "Q: What is 1+1?\nA: 2\nC: Basic arithmetic",
			expectedCards: 1,
			expectedFront: "What is 1+1?",
			expectedBack:  "2",
			expectedCtx:   "Basic arithmetic",
		},
		{
			name: "topic applies to following cards",
			input: `T: Geography
Q: Longest river?
A: The Nile
---
Q: Tallest mountain?
A: Everest
`,
			expectedCards: 2,
			expectedFront: "Longest river?",
			expectedBack:  "The Nile",
			expectedTopic: "Geography",
		},
		{
			name: "multiline back",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedCards: 1,
			expectedFront: "What are the primary colors?",
			expectedBack:  "Red\nBlue\nYellow",
		},
		{
			name: "new front starts a new card",
			input: `
Q: First question
A: First answer

Q: Second question
A: Second answer
`,
			expectedCards: 2,
			expectedFront: "First question",
			expectedBack:  "First answer",
		},
		{
			name:          "no cards, just text",
			input:         "This file has no questions in it.",
			expectedCards: 0,
		},
		{
			name:          "prefixes with no space",
			input:         "Q:Question\nA:Answer",
			expectedCards: 1,
			expectedFront: "Question",
			expectedBack:  "Answer",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}
			if len(cards) != tc.expectedCards {
				t.Fatalf("Expected %d cards, got %d", tc.expectedCards, len(cards))
			}
			if tc.expectedCards == 0 {
				return
			}
			first := cards[0]
			if tc.expectedFront != "" && first.Front != tc.expectedFront {
				t.Errorf("Expected front %q, got %q", tc.expectedFront, first.Front)
			}
			if tc.expectedBack != "" && first.Back != tc.expectedBack {
				t.Errorf("Expected back %q, got %q", tc.expectedBack, first.Back)
			}
			if tc.expectedCtx != "" && first.Context != tc.expectedCtx {
				t.Errorf("Expected context %q, got %q", tc.expectedCtx, first.Context)
			}
			if tc.expectedTopic != "" {
				for i, c := range cards {
					if c.Topic != tc.expectedTopic {
						t.Errorf("Expected topic %q on card %d, got %q", tc.expectedTopic, i, c.Topic)
					}
				}
			}
		})
	}
}

func TestParseTopicSwitch(t *testing.T) {
	input := `T: Go
Q: Who created Go?
A: Google
T: History
Q: When was Go released?
A: 2009
`
	cards, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, got %d", len(cards))
	}
	if cards[0].Topic != "Go" {
		t.Errorf("Expected first card topic Go, got %q", cards[0].Topic)
	}
	if cards[1].Topic != "History" {
		t.Errorf("Expected second card topic History, got %q", cards[1].Topic)
	}
}
