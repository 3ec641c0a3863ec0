package report

import (
	"context"
	"fmt"
	"time"

	"github.com/prodiplan/essaygrader/internal/store"
)

// LocalProvider answers results from local history, for running without a
// grading backend. An attempt stays in analysis for AnalysisDelay after it
// was submitted.
type LocalProvider struct {
	attempts store.AttemptRepo
	delay    time.Duration
	now      func() time.Time
}

type LocalOption func(*LocalProvider)

// WithAnalysisDelay keeps results in ErrAnalyzing for d after submission.
func WithAnalysisDelay(d time.Duration) LocalOption {
	return func(p *LocalProvider) { p.delay = d }
}

func withClock(now func() time.Time) LocalOption {
	return func(p *LocalProvider) { p.now = now }
}

func NewLocalProvider(attempts store.AttemptRepo, opts ...LocalOption) *LocalProvider {
	p := &LocalProvider{attempts: attempts, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ Provider = (*LocalProvider)(nil)

func (p *LocalProvider) Result(ctx context.Context, attemptID string) (*Report, error) {
	a, err := p.attempts.Get(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("load attempt %s: %w", attemptID, err)
	}
	if a == nil || !a.HasResult() {
		return nil, ErrNotFound
	}
	ready := a.FinishedAt.Add(p.delay)
	if a.Status == store.StatusAnalyzing && p.now().Before(ready) {
		return nil, ErrAnalyzing
	}
	return Generate(Input{
		AttemptID:   a.ID,
		TargetMajor: a.TargetMajor,
		AnsweredIDs: a.AnsweredIDs,
		Total:       a.Total,
		CompletedAt: ready.UTC(),
	}), nil
}
