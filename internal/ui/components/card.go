package components

import (
	"charm.land/lipgloss/v2"

	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

// ContentWidth returns the inner width used for centred cards, clamped to
// a readable line length.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Card wraps content in a rounded-border card at the given content width.
func Card(content string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw).
		Padding(1, 2).
		Render(content)
}

// Banner renders a single-line notice box, used for demo mode and
// submission errors.
func Banner(text string, tone lipgloss.Style, cw int) string {
	return tone.
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(tone.GetForeground()).
		Width(cw).
		PaddingLeft(1).
		Render(text)
}
