package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

// QuestionList renders the numbered question picker shown beside the
// essay editor and in review mode.
type QuestionList struct {
	Labels   []string
	Answered []bool
	Current  int
	Width    int
}

// View renders one line per question with an answered marker.
func (q QuestionList) View() string {
	var b strings.Builder
	for i, label := range q.Labels {
		marker := "○"
		style := theme.Unanswered
		if i < len(q.Answered) && q.Answered[i] {
			marker = "●"
			style = theme.Answered
		}

		prefix := "  "
		if i == q.Current {
			prefix = "▸ "
			style = theme.Selected
		}

		line := fmt.Sprintf("%s%s %d. %s", prefix, marker, i+1, label)
		if q.Width > 0 {
			line = truncate(line, q.Width)
		}
		b.WriteString(style.Render(line))
		if i < len(q.Labels)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
