package assessment

import (
	"context"
	"errors"
	"time"
)

// DefaultSubmitTimeout bounds a single submit call.
const DefaultSubmitTimeout = 30 * time.Second

// Trigger identifies what started a submission.
type Trigger int

const (
	TriggerManual  Trigger = iota // Finish on the last question or submit from review
	TriggerTimeout                // countdown reached zero
)

func (t Trigger) String() string {
	switch t {
	case TriggerManual:
		return "manual"
	case TriggerTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// SubmitState is the submission controller's position.
type SubmitState int

const (
	SubmitIdle SubmitState = iota
	SubmitInFlight
	SubmitSucceeded
)

func (s SubmitState) String() string {
	switch s {
	case SubmitIdle:
		return "idle"
	case SubmitInFlight:
		return "in_flight"
	case SubmitSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Submission is the payload handed to a Submitter.
type Submission struct {
	AttemptID      string
	Attempt        int
	Trigger        Trigger
	UserID         string
	TargetMajor    string
	Answers        map[int]string
	TotalQuestions int
	StartedAt      time.Time
	SubmittedAt    time.Time
	ElapsedSeconds int
}

// Receipt acknowledges an accepted submission.
type Receipt struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	ReceivedAt time.Time `json:"received_at"`
}

// Submitter sends answers to the grading backend.
type Submitter interface {
	Submit(ctx context.Context, sub *Submission) (*Receipt, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub *Submission) (*Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, sub *Submission) (*Receipt, error) {
	return f(ctx, sub)
}

var errNoSubmitter = errors.New("no submitter configured")

// SubmissionController guards the single in-flight submission.
type SubmissionController struct {
	submitter Submitter
	timeout   time.Duration
	state     SubmitState
	trigger   Trigger
	attempts  int
	lastErr   error
	receipt   *Receipt
}

// NewSubmissionController creates an idle controller. A non-positive timeout
// selects DefaultSubmitTimeout.
func NewSubmissionController(submitter Submitter, timeout time.Duration) *SubmissionController {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &SubmissionController{submitter: submitter, timeout: timeout}
}

// Begin moves Idle to InFlight. A manual trigger requires complete answers;
// a timeout trigger does not. Returns false when the request is rejected.
func (c *SubmissionController) Begin(trigger Trigger, complete bool) bool {
	if c.state != SubmitIdle {
		return false
	}
	if trigger == TriggerManual && !complete {
		return false
	}
	c.state = SubmitInFlight
	c.trigger = trigger
	c.attempts++
	return true
}

// Execute calls the submitter under the controller's timeout. It does not
// touch controller state and may run on another goroutine.
func (c *SubmissionController) Execute(ctx context.Context, sub *Submission) (*Receipt, error) {
	wrap := func(err error) error {
		return &SubmitError{Trigger: sub.Trigger, Attempt: sub.Attempt, Err: err}
	}
	if c.submitter == nil {
		return nil, wrap(errNoSubmitter)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		receipt *Receipt
		err     error
	}
	done := make(chan result, 1)
	go func() {
		r, err := c.submitter.Submit(ctx, sub)
		done <- result{r, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, wrap(res.err)
		}
		return res.receipt, nil
	case <-ctx.Done():
		return nil, wrap(ctx.Err())
	}
}

// Finish applies the result of the in-flight submission.
func (c *SubmissionController) Finish(receipt *Receipt, err error) {
	if c.state != SubmitInFlight {
		return
	}
	if err != nil {
		c.state = SubmitIdle
		c.lastErr = err
		return
	}
	c.state = SubmitSucceeded
	c.lastErr = nil
	c.receipt = receipt
}

func (c *SubmissionController) State() SubmitState { return c.state }
func (c *SubmissionController) InFlight() bool     { return c.state == SubmitInFlight }
func (c *SubmissionController) Attempts() int      { return c.attempts }
func (c *SubmissionController) LastError() error   { return c.lastErr }
func (c *SubmissionController) Trigger() Trigger   { return c.trigger }
func (c *SubmissionController) Receipt() *Receipt  { return c.receipt }
