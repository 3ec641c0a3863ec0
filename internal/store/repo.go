package store

import (
	"context"
	"time"
)

// AttemptStatus is the lifecycle state of a recorded assessment.
type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "in_progress"
	StatusAnalyzing  AttemptStatus = "analyzing"
	StatusCompleted  AttemptStatus = "completed"
	StatusFailed     AttemptStatus = "failed"
	// StatusUnconfirmed is an attempt left while its submission was in
	// flight. The backend may or may not have stored it.
	StatusUnconfirmed AttemptStatus = "unconfirmed"
)

// Attempt is one pass through the essay assessment.
type Attempt struct {
	ID           string
	Seq          int64
	UserID       string
	TargetMajor  string
	Status       AttemptStatus
	Trigger      string
	Answered     int
	Total        int
	DurationSecs int
	ReceiptID    string
	ErrorMessage string
	// AnsweredIDs are the question ids with a non-blank answer at submit.
	AnsweredIDs []int
	// FinalScore and Readiness are filled in once the result is available.
	FinalScore int
	Readiness  string
	StartedAt  time.Time
	FinishedAt time.Time // zero while in progress
}

// HasResult reports whether the attempt reached the backend and can be
// shown on the result screen.
func (a *Attempt) HasResult() bool {
	return a.Status == StatusAnalyzing || a.Status == StatusCompleted
}

// AttemptRepo persists assessment attempts.
type AttemptRepo interface {
	// Record inserts the attempt or updates it in place. Seq is assigned
	// on first insert and never changes.
	Record(ctx context.Context, a *Attempt) error

	// Get returns the attempt with id, or nil if none exists.
	Get(ctx context.Context, id string) (*Attempt, error)

	// ListByUser returns the user's attempts, newest first. limit <= 0
	// returns all of them.
	ListByUser(ctx context.Context, userID string, limit int) ([]Attempt, error)
}

// Event actions.
const (
	ActionStart        = "start"
	ActionSubmit       = "submit"
	ActionSubmitFailed = "submit_failed"
	ActionConfirmed    = "confirmed"
	ActionAbandoned    = "abandoned"
)

// AttemptEventData is the payload of one lifecycle event.
type AttemptEventData struct {
	AttemptID string
	Action    string
	Trigger   string
	Answered  int
	Message   string
}

// AttemptEvent is a stored AttemptEventData.
type AttemptEvent struct {
	Sequence  int64
	Timestamp time.Time
	AttemptEventData
}

// EventRepo provides append access to attempt lifecycle events.
type EventRepo interface {
	AppendAttemptEvent(ctx context.Context, data AttemptEventData) error

	// AttemptEvents returns an attempt's events in sequence order.
	AttemptEvents(ctx context.Context, attemptID string) ([]AttemptEvent, error)
}
