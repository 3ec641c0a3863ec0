package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// EscapeHandler is implemented by screens that consume Esc themselves
// (confirm dialogs, review mode) instead of letting the app pop them.
type EscapeHandler interface {
	HandlesEscape() bool
}

// Leaver is implemented by screens that hold resources which must be
// released when the router drops them, such as a running countdown.
type Leaver interface {
	Leave() tea.Cmd
}

// SignedInMsg is emitted once a login or registration succeeds and the
// tokens are persisted. The app resets navigation to the dashboard.
type SignedInMsg struct {
	Session *identity.Session
}

// SignedOutMsg is emitted after logout. The app resets navigation to the
// auth screen.
type SignedOutMsg struct{}

// ProfileUpdatedMsg is emitted after the student saved their profile. The
// app updates the session and forwards it to every open screen.
type ProfileUpdatedMsg struct {
	User identity.User
}
