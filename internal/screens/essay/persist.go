package essay

import (
	"context"
	"time"

	"github.com/prodiplan/essaygrader/internal/assessment"
	"github.com/prodiplan/essaygrader/internal/store"
)

// persistTimeout bounds each history write.
const persistTimeout = 2 * time.Second

// recordAttempt upserts the attempt row. History is best effort: a failing
// write is logged and never blocks the assessment.
func (s *EssayScreen) recordAttempt(status store.AttemptStatus, trigger assessment.Trigger, errMsg string) {
	if s.cfg.Attempts == nil || s.flow.AttemptID() == "" {
		return
	}
	f := s.flow
	a := &store.Attempt{
		ID:           f.AttemptID(),
		UserID:       f.User().ID,
		TargetMajor:  f.User().TargetMajor(),
		Status:       status,
		Answered:     f.Answers().CompletionCount(),
		Total:        f.Answers().Total(),
		AnsweredIDs:  f.Answers().AnsweredIDs(),
		DurationSecs: int(f.Elapsed() / time.Second),
		ErrorMessage: errMsg,
		StartedAt:    f.StartedAt(),
	}
	if status != store.StatusInProgress {
		a.Trigger = trigger.String()
		a.FinishedAt = f.StartedAt().Add(f.Elapsed())
	}
	if r := f.Receipt(); r != nil {
		a.ReceiptID = r.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.cfg.Attempts.Record(ctx, a); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", a.ID).Msg("record attempt")
	}
}

// appendEvent logs one lifecycle event for the current attempt.
func (s *EssayScreen) appendEvent(action, trigger, msg string) {
	if s.cfg.Events == nil || s.flow.AttemptID() == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := s.cfg.Events.AppendAttemptEvent(ctx, store.AttemptEventData{
		AttemptID: s.flow.AttemptID(),
		Action:    action,
		Trigger:   trigger,
		Answered:  s.flow.Answers().CompletionCount(),
		Message:   msg,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("append attempt event")
	}
}
