// Package report builds the analysis result shown after an essay
// assessment and summarizes a student's attempts.
package report

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAnalyzing means the submission was received but its analysis is
	// not ready yet.
	ErrAnalyzing = errors.New("analysis in progress")
	// ErrNotFound means no submitted attempt has the requested id.
	ErrNotFound = errors.New("result not found")
)

// Readiness is the verdict derived from the final score.
type Readiness string

const (
	ReadinessReady     Readiness = "Siap"
	ReadinessFair      Readiness = "Cukup Siap"
	ReadinessNeedsPrep Readiness = "Perlu Persiapan"
)

// ReadinessFor maps a 0-100 score to a readiness level.
func ReadinessFor(score int) Readiness {
	switch {
	case score >= 75:
		return ReadinessReady
	case score >= 60:
		return ReadinessFair
	default:
		return ReadinessNeedsPrep
	}
}

// QuestionScore is the grade of one answer.
type QuestionScore struct {
	QuestionID int    `json:"question"`
	Score      int    `json:"score"`
	Feedback   string `json:"feedback"`
}

// Insights are the 0-100 sub-scores of the analysis.
type Insights struct {
	Motivation      int `json:"motivation_score"`
	Technical       int `json:"technical_understanding"`
	CareerAlignment int `json:"career_alignment"`
}

// Trait is a personality trait with a low/medium/high level.
type Trait struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// Report is the analysis of one submitted attempt.
type Report struct {
	AttemptID         string          `json:"attempt_id"`
	TargetMajor       string          `json:"target_major"`
	FinalScore        int             `json:"final_score"`
	Readiness         Readiness       `json:"readiness_level"`
	CompletedAt       time.Time       `json:"completed_at"`
	Summary           string          `json:"summary"`
	Strengths         []string        `json:"strengths"`
	Weaknesses        []string        `json:"weaknesses"`
	Recommendations   []string        `json:"recommendations"`
	Insights          Insights        `json:"key_insights"`
	Traits            []Trait         `json:"personality_traits"`
	CareerSuggestions []string        `json:"career_suggestions"`
	QuestionScores    []QuestionScore `json:"question_scores"`
}

// Provider looks up the result of a submitted attempt.
type Provider interface {
	// Result returns ErrAnalyzing while the analysis runs and ErrNotFound
	// for attempts the backend never accepted.
	Result(ctx context.Context, attemptID string) (*Report, error)
}
