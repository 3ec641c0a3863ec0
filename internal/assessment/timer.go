package assessment

import "fmt"

// Timer is a countdown owned by the flow. It does not schedule itself;
// the caller delivers one Tick per elapsed second, tagged with the epoch
// returned from Start so ticks queued before a Stop or restart are dropped.
type Timer struct {
	initial   int
	remaining int
	running   bool
	expired   bool
	epoch     uint64
	onExpire  func()
}

// NewTimer creates a stopped timer. onExpire may be nil.
func NewTimer(onExpire func()) *Timer {
	return &Timer{onExpire: onExpire}
}

// Start (re)initializes the countdown and returns the epoch for its ticks.
func (t *Timer) Start(initialSeconds int) (uint64, error) {
	if initialSeconds <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDuration, initialSeconds)
	}
	t.initial = initialSeconds
	t.remaining = initialSeconds
	t.running = true
	t.expired = false
	t.epoch++
	return t.epoch, nil
}

// Tick applies one elapsed second. It returns true only on the tick that
// reaches zero, after firing onExpire.
func (t *Timer) Tick(epoch uint64) bool {
	if !t.running || epoch != t.epoch {
		return false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining > 0 {
		return false
	}
	t.running = false
	t.expired = true
	if t.onExpire != nil {
		t.onExpire()
	}
	return true
}

// Resume continues a stopped countdown from its remaining seconds under a
// new epoch. It fails once the timer has expired.
func (t *Timer) Resume() (uint64, bool) {
	if t.running || t.expired || t.remaining <= 0 {
		return 0, false
	}
	t.running = true
	t.epoch++
	return t.epoch, true
}

// Stop halts the countdown without firing expiry.
func (t *Timer) Stop() {
	t.running = false
	t.epoch++
}

func (t *Timer) Remaining() int { return t.remaining }
func (t *Timer) Initial() int   { return t.initial }
func (t *Timer) Running() bool  { return t.running }
func (t *Timer) Expired() bool  { return t.expired }
func (t *Timer) Epoch() uint64  { return t.epoch }

// IsRunningOut is a display signal for the final five minutes.
func (t *Timer) IsRunningOut() bool {
	return t.remaining < LowTimeThreshold
}

// FormatClock renders seconds as zero-padded MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
