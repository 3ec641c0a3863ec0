package assessment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswerStore_UnsetQuestions(t *testing.T) {
	s := NewAnswerStore(DefaultQuestions())
	for id := 1; id <= 5; id++ {
		assert.Equal(t, "", s.GetAnswer(id))
		assert.False(t, s.IsAnswered(id))
	}
	assert.Equal(t, 0, s.CompletionCount())
	assert.False(t, s.IsComplete())
}

func TestAnswerStore_WhitespaceIsUnanswered(t *testing.T) {
	s := NewAnswerStore(DefaultQuestions())
	s.SetAnswer(1, "   \n\t ")
	assert.Equal(t, "   \n\t ", s.GetAnswer(1))
	assert.False(t, s.IsAnswered(1))

	s.SetAnswer(1, "  x ")
	assert.True(t, s.IsAnswered(1))
}

func TestAnswerStore_Completion(t *testing.T) {
	s := NewAnswerStore(DefaultQuestions())
	for id := 1; id <= 4; id++ {
		s.SetAnswer(id, "jawaban")
	}
	assert.Equal(t, 4, s.CompletionCount())
	assert.False(t, s.IsComplete())

	s.SetAnswer(5, "jawaban")
	assert.True(t, s.IsComplete())

	// Clearing the only gap flips completion back.
	s.SetAnswer(3, "")
	assert.False(t, s.IsComplete())
	assert.Equal(t, 4, s.CompletionCount())
}

func TestAnswerStore_AnsweredIDs(t *testing.T) {
	s := NewAnswerStore(DefaultQuestions())
	assert.Empty(t, s.AnsweredIDs())

	s.SetAnswer(4, "d")
	s.SetAnswer(2, "b")
	s.SetAnswer(3, "  ")
	s.SetAnswer(42, "stray")
	assert.Equal(t, []int{2, 4}, s.AnsweredIDs())
}

func TestAnswerStore_IgnoresIDsOutsideSet(t *testing.T) {
	s := NewAnswerStore(DefaultQuestions())
	s.SetAnswer(42, "stray")
	assert.Equal(t, 0, s.CompletionCount())
}

func TestAnswerStore_SnapshotIsCopy(t *testing.T) {
	s := NewAnswerStore(DefaultQuestions())
	s.SetAnswer(1, "a")
	s.SetAnswer(3, "c")

	snap := s.Snapshot()
	assert.Equal(t, map[int]string{1: "a", 3: "c"}, snap)

	snap[1] = "mutated"
	assert.Equal(t, "a", s.GetAnswer(1))
}

func TestAnswerStore_LengthHintIsAdvisory(t *testing.T) {
	s := NewAnswerStore(DefaultQuestions())
	s.SetAnswer(1, "pendek")
	assert.True(t, s.IsAnswered(1))
	assert.False(t, s.MeetsLengthHint(1))

	s.SetAnswer(1, strings.Repeat("a", MinAnswerLengthHint))
	assert.True(t, s.MeetsLengthHint(1))
}
