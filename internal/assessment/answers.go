package assessment

import (
	"maps"
	"strings"
	"unicode/utf8"
)

// AnswerStore holds the free-text answers keyed by question id.
// Entries are only ever created or overwritten.
type AnswerStore struct {
	ids     []int
	answers map[int]string
}

// NewAnswerStore creates an empty store for the given question set.
func NewAnswerStore(questions []Question) *AnswerStore {
	ids := make([]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return &AnswerStore{
		ids:     ids,
		answers: make(map[int]string),
	}
}

// SetAnswer overwrites or creates the entry for id.
func (s *AnswerStore) SetAnswer(id int, text string) {
	s.answers[id] = text
}

// GetAnswer returns the stored text, or "" if the question has no entry.
func (s *AnswerStore) GetAnswer(id int) string {
	return s.answers[id]
}

// IsAnswered reports whether the answer has non-whitespace content.
func (s *AnswerStore) IsAnswered(id int) bool {
	return strings.TrimSpace(s.answers[id]) != ""
}

// CompletionCount counts answered questions drawn from the fixed set.
func (s *AnswerStore) CompletionCount() int {
	n := 0
	for _, id := range s.ids {
		if s.IsAnswered(id) {
			n++
		}
	}
	return n
}

// AnsweredIDs lists the answered question ids in question order.
func (s *AnswerStore) AnsweredIDs() []int {
	out := make([]int, 0, len(s.ids))
	for _, id := range s.ids {
		if s.IsAnswered(id) {
			out = append(out, id)
		}
	}
	return out
}

// IsComplete reports whether every question has an answer.
func (s *AnswerStore) IsComplete() bool {
	return s.CompletionCount() == len(s.ids)
}

// Total is the number of questions in the set.
func (s *AnswerStore) Total() int {
	return len(s.ids)
}

// Snapshot returns a copy of every stored entry.
func (s *AnswerStore) Snapshot() map[int]string {
	return maps.Clone(s.answers)
}

// MeetsLengthHint reports whether the answer reaches the recommended length.
// Advisory only.
func (s *AnswerStore) MeetsLengthHint(id int) bool {
	return utf8.RuneCountInString(s.answers[id]) >= MinAnswerLengthHint
}
