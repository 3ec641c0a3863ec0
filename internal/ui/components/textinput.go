package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

// TextInput wraps bubbles/textinput as a labelled form field.
type TextInput struct {
	Model textinput.Model
	Label string
	Err   string
}

// NewTextInput creates a labelled field. Password fields echo bullets.
func NewTextInput(label, placeholder string, password bool, width int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	if width > 0 {
		ti.SetWidth(width)
	}
	if password {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}

	return TextInput{
		Model: ti,
		Label: label,
	}
}

// Focus focuses the field.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur removes focus from the field.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders label, input and the field error if any.
func (t TextInput) View() string {
	labelStyle := lipgloss.NewStyle().Foreground(theme.TextDim)
	if t.Model.Focused() {
		labelStyle = theme.Selected
	}
	view := labelStyle.Render(t.Label) + "\n" + t.Model.View()
	if t.Err != "" {
		view += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(t.Err)
	}
	return view
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// SetValue replaces the input value.
func (t *TextInput) SetValue(v string) {
	t.Model.SetValue(v)
}
