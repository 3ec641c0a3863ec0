package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodiplan/essaygrader/internal/store"
)

func TestReadinessFor(t *testing.T) {
	tests := []struct {
		score int
		want  Readiness
	}{
		{100, ReadinessReady},
		{82, ReadinessReady},
		{75, ReadinessReady},
		{74, ReadinessFair},
		{60, ReadinessFair},
		{59, ReadinessNeedsPrep},
		{0, ReadinessNeedsPrep},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReadinessFor(tt.score), "score %d", tt.score)
	}
}

func TestGenerate_AllAnswered(t *testing.T) {
	done := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	r := Generate(Input{
		AttemptID:   "att-1",
		TargetMajor: " Computer Science ",
		AnsweredIDs: []int{5, 1, 2, 3, 4},
		Total:       5,
		CompletedAt: done,
	})

	assert.Equal(t, 82, r.FinalScore)
	assert.Equal(t, ReadinessReady, r.Readiness)
	assert.Equal(t, "Computer Science", r.TargetMajor)
	assert.Equal(t, done, r.CompletedAt)
	require.Len(t, r.QuestionScores, 5)
	assert.Equal(t, 1, r.QuestionScores[0].QuestionID)
	assert.Equal(t, 85, r.QuestionScores[0].Score)
	assert.Equal(t, 78, r.QuestionScores[4].Score)
	assert.Equal(t, Insights{Motivation: 85, Technical: 75, CareerAlignment: 78}, r.Insights)
	assert.Contains(t, r.CareerSuggestions, "Software Engineer")
	assert.Len(t, r.Weaknesses, 3)
	assert.Contains(t, r.Summary, "Computer Science")
}

func TestGenerate_PartialAnswersLowerScore(t *testing.T) {
	r := Generate(Input{AnsweredIDs: []int{1, 2, 2, 3}, Total: 5})

	// (85+80+82)/5 rounds to 49.
	assert.Equal(t, 49, r.FinalScore)
	assert.Equal(t, ReadinessNeedsPrep, r.Readiness)
	assert.Len(t, r.QuestionScores, 3)
	assert.Contains(t, r.Weaknesses, "2 dari 5 pertanyaan belum dijawab")
	assert.Equal(t, 51, r.Insights.Motivation)
	assert.Equal(t, defaultCareers, r.CareerSuggestions)
	assert.Contains(t, r.Summary, "jurusan pilihan Anda")
}

func TestGenerate_NothingAnswered(t *testing.T) {
	r := Generate(Input{Total: 5})
	assert.Zero(t, r.FinalScore)
	assert.Empty(t, r.QuestionScores)
	assert.Zero(t, r.Insights.CareerAlignment)

	r = Generate(Input{})
	assert.Zero(t, r.FinalScore)
}

func TestGenerate_DoesNotShareTemplates(t *testing.T) {
	r := Generate(Input{Total: 5, AnsweredIDs: []int{1}})
	r.Strengths[0] = "changed"
	r.Traits[0].Level = "low"

	again := Generate(Input{Total: 5, AnsweredIDs: []int{1}})
	assert.NotEqual(t, "changed", again.Strengths[0])
	assert.Equal(t, "high", again.Traits[0].Level)
}

func openAttempts(t *testing.T) store.AttemptRepo {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.AttemptRepo()
}

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	repo := openAttempts(t)
	submitted := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, &store.Attempt{
		ID: "sent", UserID: "u", TargetMajor: "Kedokteran", Status: store.StatusAnalyzing,
		Answered: 5, Total: 5, AnsweredIDs: []int{1, 2, 3, 4, 5},
		StartedAt: submitted.Add(-10 * time.Minute), FinishedAt: submitted,
	}))
	require.NoError(t, repo.Record(ctx, &store.Attempt{
		ID: "failed", UserID: "u", Status: store.StatusFailed, StartedAt: submitted,
	}))

	now := submitted.Add(time.Minute)
	p := NewLocalProvider(repo, WithAnalysisDelay(5*time.Minute), withClock(func() time.Time { return now }))

	_, err := p.Result(ctx, "sent")
	assert.ErrorIs(t, err, ErrAnalyzing)

	now = submitted.Add(5 * time.Minute)
	r, err := p.Result(ctx, "sent")
	require.NoError(t, err)
	assert.Equal(t, 82, r.FinalScore)
	assert.Equal(t, "Kedokteran", r.TargetMajor)
	assert.Equal(t, submitted.Add(5*time.Minute), r.CompletedAt)

	_, err = p.Result(ctx, "failed")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = p.Result(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummarize(t *testing.T) {
	st := Summarize([]store.Attempt{
		{Status: store.StatusCompleted, FinalScore: 82},
		{Status: store.StatusCompleted, FinalScore: 71},
		{Status: store.StatusAnalyzing},
		{Status: store.StatusFailed},
		{Status: store.StatusUnconfirmed},
	})
	assert.Equal(t, Stats{Total: 5, Completed: 2, Analyzing: 1, Average: 77, Highest: 82}, st)

	assert.Equal(t, Stats{}, Summarize(nil))
}
