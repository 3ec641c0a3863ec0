package components

import (
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
)

// TextArea wraps bubbles/textarea for long-form answers.
type TextArea struct {
	Model textarea.Model
}

// NewTextArea creates a focused multi-line editor.
func NewTextArea(placeholder string, width, height int) TextArea {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(width)
	ta.SetHeight(height)
	ta.Focus()
	return TextArea{Model: ta}
}

// Update handles messages.
func (t TextArea) Update(msg tea.Msg) (TextArea, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// Load swaps the editor content, e.g. when moving to another question.
func (t *TextArea) Load(value, placeholder string) {
	t.Model.Placeholder = placeholder
	t.Model.SetValue(value)
}

// Resize adjusts the editor to the given content area.
func (t *TextArea) Resize(width, height int) {
	if width > 0 && width != t.Model.Width() {
		t.Model.SetWidth(width)
	}
	if height > 0 && height != t.Model.Height() {
		t.Model.SetHeight(height)
	}
}

// View renders the editor.
func (t TextArea) View() string {
	return t.Model.View()
}

// Value returns the editor content.
func (t TextArea) Value() string {
	return t.Model.Value()
}
