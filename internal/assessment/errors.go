package assessment

import (
	"errors"
	"fmt"
)

var (
	ErrNoIdentity         = errors.New("no authenticated identity")
	ErrNoQuestions        = errors.New("question set is empty")
	ErrInvalidQuestionSet = errors.New("invalid question set")
	ErrInvalidDuration    = errors.New("countdown duration must be positive")
	ErrQuestionOutOfRange = errors.New("question id out of range")
	ErrInvalidTransition  = errors.New("invalid flow transition")
)

// SubmitError wraps a failed submission attempt with the trigger that started it.
type SubmitError struct {
	Trigger Trigger
	Attempt int
	Err     error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit (%s, attempt %d): %v", e.Trigger, e.Attempt, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }
