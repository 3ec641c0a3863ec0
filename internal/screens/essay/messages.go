package essay

import (
	"github.com/prodiplan/essaygrader/internal/assessment"
)

// tickMsg is one countdown second. epoch ties it to the timer run that
// scheduled it so ticks from a stopped run are dropped.
type tickMsg struct {
	epoch uint64
}

// dotsTickMsg animates the submitting indicator.
type dotsTickMsg struct{}

// submitResultMsg carries the submitter's answer for sub.
type submitResultMsg struct {
	sub     *assessment.Submission
	receipt *assessment.Receipt
	err     error
}
