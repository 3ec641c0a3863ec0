package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/prodiplan/essaygrader/internal/assessment"
)

// Submitter posts answers to the grading backend.
type Submitter struct {
	client *Client
	token  func() string
}

// NewSubmitter creates a Submitter. token is read on every call so a
// refreshed access token is picked up.
func NewSubmitter(c *Client, token func() string) *Submitter {
	return &Submitter{client: c, token: token}
}

var _ assessment.Submitter = (*Submitter)(nil)

func (s *Submitter) Submit(ctx context.Context, sub *assessment.Submission) (*assessment.Receipt, error) {
	var data SubmissionData
	if err := s.client.Do(ctx, http.MethodPost, PathSubmissions, s.token(), NewSubmissionRequest(sub), &data); err != nil {
		return nil, err
	}
	return &assessment.Receipt{ID: data.ID, Status: data.Status, ReceivedAt: data.ReceivedAt}, nil
}

// NewSubmissionRequest converts a submission into its wire form with answers
// ordered by question id.
func NewSubmissionRequest(sub *assessment.Submission) SubmissionRequest {
	ids := make([]int, 0, len(sub.Answers))
	for id := range sub.Answers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	answers := make([]AnswerItem, 0, len(ids))
	for _, id := range ids {
		answers = append(answers, AnswerItem{QuestionID: id, Answer: sub.Answers[id]})
	}
	return SubmissionRequest{
		AttemptID:      sub.AttemptID,
		Attempt:        sub.Attempt,
		Trigger:        sub.Trigger.String(),
		TargetMajor:    sub.TargetMajor,
		Answers:        answers,
		TotalQuestions: sub.TotalQuestions,
		StartedAt:      sub.StartedAt,
		SubmittedAt:    sub.SubmittedAt,
		ElapsedSeconds: sub.ElapsedSeconds,
	}
}

// SimulatedSubmitter accepts every submission after a fixed delay, for
// running without a grading backend. A non-nil Err is returned instead.
type SimulatedSubmitter struct {
	Delay time.Duration
	Err   error
}

var _ assessment.Submitter = (*SimulatedSubmitter)(nil)

func (s *SimulatedSubmitter) Submit(ctx context.Context, sub *assessment.Submission) (*assessment.Receipt, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return &assessment.Receipt{
		ID:         "sim-" + uuid.NewString(),
		Status:     "analyzing",
		ReceivedAt: time.Now().UTC(),
	}, nil
}
