package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

// Button is a single action in a ButtonRow.
type Button struct {
	Label    string
	OnPress  func() tea.Cmd
	Disabled bool
}

// ButtonRow is a horizontal group of buttons navigated with left/right.
type ButtonRow struct {
	Buttons []Button
	Focused int
}

// NewButtonRow creates a row focused on the button at index focused.
func NewButtonRow(focused int, buttons ...Button) ButtonRow {
	if focused < 0 || focused >= len(buttons) {
		focused = 0
	}
	return ButtonRow{Buttons: buttons, Focused: focused}
}

// Update handles key events.
func (r ButtonRow) Update(msg tea.Msg) (ButtonRow, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(r.Buttons) == 0 {
		return r, nil
	}

	switch kmsg.String() {
	case "left", "h":
		if r.Focused > 0 {
			r.Focused--
		}
	case "right", "l":
		if r.Focused < len(r.Buttons)-1 {
			r.Focused++
		}
	case "enter":
		b := r.Buttons[r.Focused]
		if b.OnPress != nil && !b.Disabled {
			return r, b.OnPress()
		}
	}
	return r, nil
}

// View renders the row.
func (r ButtonRow) View() string {
	parts := make([]string, 0, len(r.Buttons))
	for i, b := range r.Buttons {
		if i == r.Focused && !b.Disabled {
			parts = append(parts, theme.ButtonActive.Render("▸ "+b.Label))
		} else {
			parts = append(parts, theme.ButtonInactive.Render(b.Label))
		}
	}
	return strings.Join(parts, "  ")
}
