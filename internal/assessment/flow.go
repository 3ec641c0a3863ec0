package assessment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prodiplan/essaygrader/internal/identity"
)

// Step is the top-level position of an assessment.
type Step int

const (
	StepIntro Step = iota
	StepAnswering
	StepSubmitting
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepIntro:
		return "intro"
	case StepAnswering:
		return "answering"
	case StepSubmitting:
		return "submitting"
	case StepConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// ExpiredFailurePolicy decides what happens when a submission fails after
// the countdown has already reached zero.
type ExpiredFailurePolicy int

const (
	// ExpiredFailureRetry parks the flow in Submitting until the user retries.
	ExpiredFailureRetry ExpiredFailurePolicy = iota
	// ExpiredFailureRestart reverts to Answering with a fresh countdown.
	ExpiredFailureRestart
)

func (p ExpiredFailurePolicy) String() string {
	if p == ExpiredFailureRestart {
		return "restart"
	}
	return "retry"
}

// ParseExpiredFailurePolicy accepts "retry" or "restart".
func ParseExpiredFailurePolicy(s string) (ExpiredFailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "retry":
		return ExpiredFailureRetry, nil
	case "restart":
		return ExpiredFailureRestart, nil
	default:
		return ExpiredFailureRetry, fmt.Errorf("unknown expired failure policy %q (want retry or restart)", s)
	}
}

// Option configures a Flow.
type Option func(*Flow)

// WithDuration sets the countdown length in seconds.
func WithDuration(seconds int) Option {
	return func(f *Flow) { f.duration = seconds }
}

func WithSubmitter(s Submitter) Option {
	return func(f *Flow) { f.submitter = s }
}

func WithSubmitTimeout(d time.Duration) Option {
	return func(f *Flow) { f.submitTimeout = d }
}

func WithExpiredFailurePolicy(p ExpiredFailurePolicy) Option {
	return func(f *Flow) { f.policy = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(f *Flow) { f.log = l }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// Flow composes the timer, answer store, navigator and submission controller
// into the intro → answering → submitting → confirmed sequence.
//
// A Flow is not safe for concurrent use. All methods except Execute must be
// called from the goroutine that owns it.
type Flow struct {
	questions []Question
	user      *identity.User

	answers *AnswerStore
	nav     *Navigator
	timer   *Timer
	submit  *SubmissionController

	duration      int
	submitter     Submitter
	submitTimeout time.Duration
	policy        ExpiredFailurePolicy
	log           zerolog.Logger
	now           func() time.Time

	step       Step
	abandoned  bool
	attemptID  string
	startedAt  time.Time
	finishedAt time.Time
	pending    *Submission
	lastErr    error
}

// NewFlow creates a flow in StepIntro. A nil user is a precondition failure.
func NewFlow(questions []Question, user *identity.User, opts ...Option) (*Flow, error) {
	if user == nil {
		return nil, ErrNoIdentity
	}
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}

	f := &Flow{
		questions: questions,
		user:      user,
		duration:  DefaultDurationSeconds,
		policy:    ExpiredFailureRetry,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.duration <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, f.duration)
	}

	f.log = f.log.With().Str("component", "assessment").Logger()
	f.answers = NewAnswerStore(questions)
	f.nav = NewNavigator(len(questions))
	f.timer = NewTimer(f.onExpire)
	f.submit = NewSubmissionController(f.submitter, f.submitTimeout)
	return f, nil
}

// Start leaves the intro and starts the countdown.
func (f *Flow) Start() (uint64, error) {
	if f.step != StepIntro || f.abandoned {
		return 0, fmt.Errorf("%w: start from %s", ErrInvalidTransition, f.step)
	}
	epoch, err := f.timer.Start(f.duration)
	if err != nil {
		return 0, err
	}
	f.attemptID = uuid.NewString()
	f.startedAt = f.now()
	f.step = StepAnswering
	f.log.Debug().Str("attempt_id", f.attemptID).Int("duration", f.duration).Msg("assessment started")
	return epoch, nil
}

func (f *Flow) answering() bool {
	return f.step == StepAnswering && !f.abandoned
}

// SetAnswer stores text for id. Ignored outside StepAnswering.
func (f *Flow) SetAnswer(id int, text string) bool {
	if !f.answering() || id < 1 || id > len(f.questions) {
		return false
	}
	f.answers.SetAnswer(id, text)
	return true
}

func (f *Flow) Next() bool {
	return f.answering() && f.nav.Next()
}

func (f *Flow) Previous() bool {
	return f.answering() && f.nav.Previous()
}

func (f *Flow) JumpTo(id int) error {
	if !f.answering() {
		return fmt.Errorf("%w: jump while %s", ErrInvalidTransition, f.step)
	}
	return f.nav.JumpTo(id)
}

func (f *Flow) ToggleReview() bool {
	if !f.answering() {
		return false
	}
	f.nav.ToggleReview()
	return true
}

func (f *Flow) EditFromReview(id int) error {
	if !f.answering() {
		return fmt.Errorf("%w: edit while %s", ErrInvalidTransition, f.step)
	}
	return f.nav.EditFromReview(id)
}

// CanSubmit reports whether the manual submit control is enabled.
func (f *Flow) CanSubmit() bool {
	return f.answering() &&
		!f.submit.InFlight() &&
		f.answers.IsComplete() &&
		(f.nav.IsLastQuestion() || f.nav.ReviewMode())
}

// RequestSubmit is the manual submit path. It returns false and changes
// nothing when the control is disabled.
func (f *Flow) RequestSubmit() (*Submission, bool) {
	if !f.CanSubmit() {
		return nil, false
	}
	return f.begin(TriggerManual)
}

// Tick forwards one elapsed second to the timer. On expiry it returns the
// auto-submitted payload, whatever the completion state.
func (f *Flow) Tick(epoch uint64) (*Submission, bool) {
	if !f.answering() {
		return nil, false
	}
	if !f.timer.Tick(epoch) {
		return nil, false
	}
	if f.pending == nil {
		return nil, false
	}
	return f.pending, true
}

func (f *Flow) onExpire() {
	f.log.Info().
		Str("attempt_id", f.attemptID).
		Int("answered", f.answers.CompletionCount()).
		Int("total", len(f.questions)).
		Msg("time expired, auto-submitting")
	f.begin(TriggerTimeout)
}

func (f *Flow) begin(trigger Trigger) (*Submission, bool) {
	if !f.submit.Begin(trigger, f.answers.IsComplete()) {
		return nil, false
	}
	f.timer.Stop()
	f.step = StepSubmitting
	f.lastErr = nil

	now := f.now()
	sub := &Submission{
		AttemptID:      f.attemptID,
		Attempt:        f.submit.Attempts(),
		Trigger:        trigger,
		UserID:         f.user.ID,
		TargetMajor:    f.user.TargetMajor(),
		Answers:        f.answers.Snapshot(),
		TotalQuestions: f.answers.Total(),
		StartedAt:      f.startedAt,
		SubmittedAt:    now,
		ElapsedSeconds: int(now.Sub(f.startedAt) / time.Second),
	}
	f.pending = sub
	f.log.Debug().
		Str("attempt_id", f.attemptID).
		Stringer("trigger", trigger).
		Int("attempt", sub.Attempt).
		Msg("submission begun")
	return sub, true
}

// Execute runs the submitter for sub. It is the only method safe to call
// from another goroutine; feed its result back through Complete.
func (f *Flow) Execute(ctx context.Context, sub *Submission) (*Receipt, error) {
	return f.submit.Execute(ctx, sub)
}

// Complete applies a submission result. Success confirms the assessment.
// Failure returns to answering with every answer intact, except after an
// expired countdown where the ExpiredFailurePolicy applies.
func (f *Flow) Complete(sub *Submission, receipt *Receipt, err error) error {
	if f.abandoned || sub == nil || sub != f.pending {
		return fmt.Errorf("%w: stale submission result", ErrInvalidTransition)
	}
	f.pending = nil
	f.submit.Finish(receipt, err)

	if err == nil {
		f.step = StepConfirmed
		f.finishedAt = f.now()
		f.log.Info().
			Str("attempt_id", f.attemptID).
			Str("receipt", receiptID(receipt)).
			Msg("assessment submitted")
		return nil
	}

	f.lastErr = err
	f.log.Warn().Err(err).
		Str("attempt_id", f.attemptID).
		Stringer("trigger", sub.Trigger).
		Msg("submission failed")

	if !f.timer.Expired() {
		f.step = StepAnswering
		epoch, ok := f.timer.Resume()
		if !ok {
			f.log.Warn().
				Str("attempt_id", f.attemptID).
				Int("remaining", f.timer.Remaining()).
				Msg("countdown not resumed after failed submission")
			return nil
		}
		f.log.Debug().
			Str("attempt_id", f.attemptID).
			Uint64("epoch", epoch).
			Msg("countdown resumed")
		return nil
	}
	switch f.policy {
	case ExpiredFailureRestart:
		f.step = StepAnswering
		if _, serr := f.timer.Start(f.duration); serr != nil {
			return serr
		}
	default:
		// Parked in Submitting until Retry.
	}
	return nil
}

// Dispatch runs Execute and Complete on the calling goroutine.
func (f *Flow) Dispatch(ctx context.Context, sub *Submission) (*Receipt, error) {
	receipt, err := f.Execute(ctx, sub)
	if cerr := f.Complete(sub, receipt, err); cerr != nil {
		return nil, cerr
	}
	return receipt, err
}

// Submit dispatches the pending submission, if any.
func (f *Flow) Submit(ctx context.Context) error {
	if f.pending == nil {
		return fmt.Errorf("%w: nothing to submit", ErrInvalidTransition)
	}
	_, err := f.Dispatch(ctx, f.pending)
	return err
}

// CanRetry reports whether the flow is parked after an expired-countdown failure.
func (f *Flow) CanRetry() bool {
	return f.step == StepSubmitting && !f.abandoned && f.pending == nil && !f.submit.InFlight()
}

// Retry re-submits after an expired-countdown failure.
func (f *Flow) Retry() (*Submission, bool) {
	if !f.CanRetry() {
		return nil, false
	}
	return f.begin(TriggerTimeout)
}

// Abandon stops the countdown and discards the session. Results of an
// in-flight submission are ignored afterwards.
func (f *Flow) Abandon() {
	if f.abandoned || f.step == StepConfirmed {
		return
	}
	f.timer.Stop()
	f.abandoned = true
	f.pending = nil
	f.finishedAt = f.now()
	f.log.Debug().Str("attempt_id", f.attemptID).Stringer("step", f.step).Msg("assessment abandoned")
}

// TickEpoch returns the epoch ticks must carry while the countdown runs.
func (f *Flow) TickEpoch() (uint64, bool) {
	if !f.answering() || !f.timer.Running() {
		return 0, false
	}
	return f.timer.Epoch(), true
}

func (f *Flow) Step() Step                   { return f.step }
func (f *Flow) Abandoned() bool              { return f.abandoned }
func (f *Flow) Questions() []Question        { return f.questions }
func (f *Flow) Answers() *AnswerStore        { return f.answers }
func (f *Flow) Navigator() *Navigator        { return f.nav }
func (f *Flow) Timer() *Timer                { return f.timer }
func (f *Flow) User() *identity.User         { return f.user }
func (f *Flow) AttemptID() string            { return f.attemptID }
func (f *Flow) LastError() error             { return f.lastErr }
func (f *Flow) Receipt() *Receipt            { return f.submit.Receipt() }
func (f *Flow) StartedAt() time.Time         { return f.startedAt }
func (f *Flow) InFlight() bool               { return f.submit.InFlight() }
func (f *Flow) Pending() *Submission         { return f.pending }
func (f *Flow) Policy() ExpiredFailurePolicy { return f.policy }
func (f *Flow) Duration() int                { return f.duration }

// CurrentQuestion is the question under the navigator.
func (f *Flow) CurrentQuestion() Question {
	return f.questions[f.nav.Current()-1]
}

// Elapsed is the time spent since Start, frozen once the flow ends.
func (f *Flow) Elapsed() time.Duration {
	if f.startedAt.IsZero() {
		return 0
	}
	if !f.finishedAt.IsZero() {
		return f.finishedAt.Sub(f.startedAt)
	}
	return f.now().Sub(f.startedAt)
}

func receiptID(r *Receipt) string {
	if r == nil {
		return ""
	}
	return r.ID
}
