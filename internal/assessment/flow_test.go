package assessment

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodiplan/essaygrader/internal/identity"
)

// recordingSubmitter captures every payload and returns queued results in order.
type recordingSubmitter struct {
	mu      sync.Mutex
	calls   []*Submission
	results []error
}

func (r *recordingSubmitter) Submit(_ context.Context, sub *Submission) (*Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sub)
	if len(r.results) > 0 {
		err := r.results[0]
		r.results = r.results[1:]
		if err != nil {
			return nil, err
		}
	}
	return &Receipt{ID: "sub-1", Status: "analyzing", ReceivedAt: time.Now()}, nil
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testUser() *identity.User {
	return &identity.User{ID: "user-demo-001", FullName: "Demo User", DreamMajor: "Computer Science"}
}

func newTestFlow(t *testing.T, sub Submitter, opts ...Option) *Flow {
	t.Helper()
	opts = append([]Option{WithSubmitter(sub)}, opts...)
	f, err := NewFlow(DefaultQuestions(), testUser(), opts...)
	require.NoError(t, err)
	return f
}

func answerAll(t *testing.T, f *Flow) {
	t.Helper()
	for id := 1; id <= len(f.Questions()); id++ {
		require.True(t, f.SetAnswer(id, "jawaban untuk soal"))
	}
}

func TestNewFlow_Preconditions(t *testing.T) {
	_, err := NewFlow(DefaultQuestions(), nil)
	assert.ErrorIs(t, err, ErrNoIdentity)

	_, err = NewFlow(nil, testUser())
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = NewFlow(DefaultQuestions(), testUser(), WithDuration(0))
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestFlow_IntroIgnoresInput(t *testing.T) {
	f := newTestFlow(t, &recordingSubmitter{})
	assert.Equal(t, StepIntro, f.Step())
	assert.False(t, f.SetAnswer(1, "early"))
	assert.False(t, f.Next())
	assert.False(t, f.ToggleReview())
	assert.ErrorIs(t, f.JumpTo(2), ErrInvalidTransition)
	assert.False(t, f.Timer().Running())
}

func TestFlow_StartOnlyOnce(t *testing.T) {
	f := newTestFlow(t, &recordingSubmitter{})
	_, err := f.Start()
	require.NoError(t, err)
	assert.Equal(t, StepAnswering, f.Step())
	assert.Equal(t, DefaultDurationSeconds, f.Timer().Remaining())
	assert.NotEmpty(t, f.AttemptID())

	_, err = f.Start()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFlow_ManualSubmitRequiresComplete(t *testing.T) {
	f := newTestFlow(t, &recordingSubmitter{})
	_, err := f.Start()
	require.NoError(t, err)

	for id := 1; id <= 4; id++ {
		f.SetAnswer(id, "isi")
	}
	require.NoError(t, f.JumpTo(5))
	sub, ok := f.RequestSubmit()
	assert.False(t, ok)
	assert.Nil(t, sub)
	assert.Equal(t, StepAnswering, f.Step())
	assert.True(t, f.Timer().Running())
}

func TestFlow_ManualSubmitRequiresLastQuestionOrReview(t *testing.T) {
	f := newTestFlow(t, &recordingSubmitter{})
	_, err := f.Start()
	require.NoError(t, err)
	answerAll(t, f)

	require.NoError(t, f.JumpTo(2))
	assert.False(t, f.CanSubmit())

	f.ToggleReview()
	assert.True(t, f.CanSubmit())
}

func TestFlow_FinishScenario(t *testing.T) {
	rec := &recordingSubmitter{}
	f := newTestFlow(t, rec)
	_, err := f.Start()
	require.NoError(t, err)

	for id := 1; id <= 5; id++ {
		require.True(t, f.SetAnswer(id, "jawaban nomor"))
		f.Next()
	}
	require.True(t, f.Navigator().IsLastQuestion())

	sub, ok := f.RequestSubmit()
	require.True(t, ok)
	assert.Equal(t, StepSubmitting, f.Step())
	assert.True(t, f.InFlight())
	assert.False(t, f.Timer().Running())
	assert.Equal(t, TriggerManual, sub.Trigger)
	assert.Len(t, sub.Answers, 5)
	assert.Equal(t, "Computer Science", sub.TargetMajor)

	// Double submit is suppressed.
	_, again := f.RequestSubmit()
	assert.False(t, again)

	require.NoError(t, f.Submit(context.Background()))
	assert.Equal(t, StepConfirmed, f.Step())
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "sub-1", f.Receipt().ID)
}

func TestFlow_ExpiryAutoSubmitsOnce(t *testing.T) {
	rec := &recordingSubmitter{}
	f := newTestFlow(t, rec)
	epoch, err := f.Start()
	require.NoError(t, err)

	var subs []*Submission
	for i := 0; i < DefaultDurationSeconds+50; i++ {
		if sub, ok := f.Tick(epoch); ok {
			subs = append(subs, sub)
		}
	}
	require.Len(t, subs, 1)
	assert.Equal(t, 0, f.Timer().Remaining())
	assert.Equal(t, StepSubmitting, f.Step())
	assert.Equal(t, TriggerTimeout, subs[0].Trigger)
}

func TestFlow_ExpiryIgnoresCompleteness(t *testing.T) {
	rec := &recordingSubmitter{}
	f := newTestFlow(t, rec, WithDuration(3))
	epoch, err := f.Start()
	require.NoError(t, err)

	f.SetAnswer(1, "satu")
	f.SetAnswer(3, "tiga")

	var sub *Submission
	for i := 0; i < 3; i++ {
		if s, ok := f.Tick(epoch); ok {
			sub = s
		}
	}
	require.NotNil(t, sub)
	assert.Equal(t, map[int]string{1: "satu", 3: "tiga"}, sub.Answers)
	assert.Equal(t, StepSubmitting, f.Step())

	_, err = f.Dispatch(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmed, f.Step())
	require.Equal(t, 1, rec.count())
	assert.Equal(t, map[int]string{1: "satu", 3: "tiga"}, rec.calls[0].Answers)
}

func TestFlow_StaleTickAfterManualSubmit(t *testing.T) {
	f := newTestFlow(t, &recordingSubmitter{}, WithDuration(2))
	epoch, err := f.Start()
	require.NoError(t, err)
	answerAll(t, f)
	f.ToggleReview()

	_, ok := f.RequestSubmit()
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		_, fired := f.Tick(epoch)
		assert.False(t, fired)
	}
	assert.Equal(t, 2, f.Timer().Remaining())
	assert.Equal(t, 1, f.submit.Attempts())
}

func TestFlow_FailureKeepsAnswers(t *testing.T) {
	rec := &recordingSubmitter{results: []error{errors.New("503")}}
	f := newTestFlow(t, rec)
	_, err := f.Start()
	require.NoError(t, err)
	answerAll(t, f)
	require.NoError(t, f.JumpTo(5))
	remaining := f.Timer().Remaining()

	_, ok := f.RequestSubmit()
	require.True(t, ok)
	err = f.Submit(context.Background())
	require.Error(t, err)

	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepAnswering, f.Step())
	assert.ErrorIs(t, f.LastError(), se)
	for id := 1; id <= 5; id++ {
		assert.Equal(t, "jawaban untuk soal", f.Answers().GetAnswer(id))
	}

	// Countdown resumes where it stopped.
	epoch, running := f.TickEpoch()
	require.True(t, running)
	assert.Equal(t, remaining, f.Timer().Remaining())
	f.Tick(epoch)
	assert.Equal(t, remaining-1, f.Timer().Remaining())

	// User-initiated retry succeeds.
	_, ok = f.RequestSubmit()
	require.True(t, ok)
	require.NoError(t, f.Submit(context.Background()))
	assert.Equal(t, StepConfirmed, f.Step())
	assert.Equal(t, 2, rec.count())
}

func TestFlow_FailureResumesWithNewEpoch(t *testing.T) {
	var logs bytes.Buffer
	rec := &recordingSubmitter{results: []error{errors.New("503")}}
	f := newTestFlow(t, rec, WithDuration(60),
		WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))
	before, err := f.Start()
	require.NoError(t, err)
	answerAll(t, f)
	f.ToggleReview()

	_, ok := f.RequestSubmit()
	require.True(t, ok)
	require.Error(t, f.Submit(context.Background()))

	after, running := f.TickEpoch()
	require.True(t, running)
	assert.NotEqual(t, before, after)
	assert.Contains(t, logs.String(), `"epoch":`+strconv.FormatUint(after, 10))
	assert.Contains(t, logs.String(), "countdown resumed")

	// A tick scheduled before the submission no longer counts.
	f.Tick(before)
	assert.Equal(t, 60, f.Timer().Remaining())
	f.Tick(after)
	assert.Equal(t, 59, f.Timer().Remaining())
}

func TestFlow_ExpiredFailureRetryPolicy(t *testing.T) {
	rec := &recordingSubmitter{results: []error{errors.New("timeout")}}
	f := newTestFlow(t, rec, WithDuration(1))
	epoch, err := f.Start()
	require.NoError(t, err)

	sub, ok := f.Tick(epoch)
	require.True(t, ok)
	_, err = f.Dispatch(context.Background(), sub)
	require.Error(t, err)

	assert.Equal(t, StepSubmitting, f.Step())
	assert.True(t, f.CanRetry())
	assert.False(t, f.SetAnswer(1, "late"))

	retry, ok := f.Retry()
	require.True(t, ok)
	assert.Equal(t, 2, retry.Attempt)
	_, err = f.Dispatch(context.Background(), retry)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmed, f.Step())
	assert.False(t, f.CanRetry())
}

func TestFlow_ExpiredFailureRestartPolicy(t *testing.T) {
	rec := &recordingSubmitter{results: []error{errors.New("timeout")}}
	f := newTestFlow(t, rec, WithDuration(2), WithExpiredFailurePolicy(ExpiredFailureRestart))
	epoch, err := f.Start()
	require.NoError(t, err)

	f.Tick(epoch)
	sub, ok := f.Tick(epoch)
	require.True(t, ok)
	_, err = f.Dispatch(context.Background(), sub)
	require.Error(t, err)

	assert.Equal(t, StepAnswering, f.Step())
	assert.Equal(t, 2, f.Timer().Remaining())
	fresh, running := f.TickEpoch()
	require.True(t, running)
	assert.NotEqual(t, epoch, fresh)

	_, fired := f.Tick(epoch)
	assert.False(t, fired, "old epoch is dead")
	assert.Equal(t, 2, f.Timer().Remaining())
}

func TestFlow_CompleteRejectsStaleResult(t *testing.T) {
	f := newTestFlow(t, &recordingSubmitter{})
	_, err := f.Start()
	require.NoError(t, err)
	answerAll(t, f)
	f.ToggleReview()
	sub, ok := f.RequestSubmit()
	require.True(t, ok)

	assert.ErrorIs(t, f.Complete(&Submission{}, nil, nil), ErrInvalidTransition)
	require.NoError(t, f.Complete(sub, &Receipt{ID: "x"}, nil))
	assert.ErrorIs(t, f.Complete(sub, &Receipt{ID: "x"}, nil), ErrInvalidTransition)
}

func TestFlow_AbandonDropsInFlightResult(t *testing.T) {
	f := newTestFlow(t, &recordingSubmitter{})
	epoch, err := f.Start()
	require.NoError(t, err)
	answerAll(t, f)
	f.ToggleReview()
	sub, ok := f.RequestSubmit()
	require.True(t, ok)

	f.Abandon()
	assert.True(t, f.Abandoned())
	assert.ErrorIs(t, f.Complete(sub, &Receipt{}, nil), ErrInvalidTransition)
	_, fired := f.Tick(epoch)
	assert.False(t, fired)
	assert.NotEqual(t, StepConfirmed, f.Step())
}

func TestFlow_Elapsed(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	f := newTestFlow(t, &recordingSubmitter{}, WithClock(clock))
	assert.Zero(t, f.Elapsed())

	_, err := f.Start()
	require.NoError(t, err)
	now = now.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, f.Elapsed())

	answerAll(t, f)
	f.ToggleReview()
	sub, ok := f.RequestSubmit()
	require.True(t, ok)
	assert.Equal(t, 90, sub.ElapsedSeconds)
	require.NoError(t, f.Complete(sub, &Receipt{ID: "r"}, nil))

	now = now.Add(time.Hour)
	assert.Equal(t, 90*time.Second, f.Elapsed())
}

func TestParseExpiredFailurePolicy(t *testing.T) {
	p, err := ParseExpiredFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, ExpiredFailureRetry, p)

	p, err = ParseExpiredFailurePolicy("Restart")
	require.NoError(t, err)
	assert.Equal(t, ExpiredFailureRestart, p)

	_, err = ParseExpiredFailurePolicy("ignore")
	assert.Error(t, err)
}
