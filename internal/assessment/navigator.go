package assessment

import "fmt"

// Navigator tracks which question is presented and whether review mode is on.
type Navigator struct {
	total   int
	current int
	review  bool
}

// NewNavigator positions a navigator on question 1 of n.
func NewNavigator(n int) *Navigator {
	return &Navigator{total: n, current: 1}
}

func (n *Navigator) Current() int     { return n.current }
func (n *Navigator) Total() int       { return n.total }
func (n *Navigator) ReviewMode() bool { return n.review }

// Next advances one question. It never moves past the last question.
func (n *Navigator) Next() bool {
	if n.current >= n.total {
		return false
	}
	n.current++
	return true
}

// Previous goes back one question. It never moves before the first question.
func (n *Navigator) Previous() bool {
	if n.current <= 1 {
		return false
	}
	n.current--
	return true
}

// JumpTo moves directly to id.
func (n *Navigator) JumpTo(id int) error {
	if id < 1 || id > n.total {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrQuestionOutOfRange, id, n.total)
	}
	n.current = id
	return nil
}

// EditFromReview jumps to id and leaves review mode.
func (n *Navigator) EditFromReview(id int) error {
	if err := n.JumpTo(id); err != nil {
		return err
	}
	n.review = false
	return nil
}

// ToggleReview flips review mode. The current position is preserved.
func (n *Navigator) ToggleReview() {
	n.review = !n.review
}

func (n *Navigator) IsLastQuestion() bool {
	return n.current == n.total
}

// ProgressPercent is current/N*100, pinned to 100 in review mode.
func (n *Navigator) ProgressPercent() float64 {
	if n.review || n.total == 0 {
		return 100
	}
	return float64(n.current) / float64(n.total) * 100
}
