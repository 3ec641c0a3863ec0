package app

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/prodiplan/essaygrader/internal/assessment"
	"github.com/prodiplan/essaygrader/internal/config"
	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/report"
	"github.com/prodiplan/essaygrader/internal/router"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/store"
	"github.com/prodiplan/essaygrader/internal/ui/layout"
)

const (
	resolveTimeout = 10 * time.Second
	logoutTimeout  = 5 * time.Second
)

// Deps holds everything the TUI needs. Attempts and Events may be nil to
// run without local history. Results may be nil to hide the analysis
// screens.
type Deps struct {
	Config    *config.Config
	Provider  identity.Provider
	Tokens    identity.TokenStore
	Attempts  store.AttemptRepo
	Events    store.EventRepo
	Questions []assessment.Question
	Submitter assessment.Submitter
	Results   report.Provider
	Log       zerolog.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	screens *screens
	width   int
	height  int
}

// newAppModel starts on the welcome screen, which hands over to the
// dashboard when session is set and to the auth screen otherwise.
func newAppModel(deps Deps, session *identity.Session) AppModel {
	f := &screens{deps: deps, session: session}
	return AppModel{
		router:  router.New(f.welcome()),
		screens: f,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.SignedInMsg:
		m.screens.session = msg.Session
		m.screens.deps.Log.Info().Str("user_id", msg.Session.User.ID).Msg("signed in")
		return m, m.router.Reset(m.screens.dashboard())

	case screen.SignedOutMsg:
		m.screens.session = nil
		return m, m.router.Reset(m.screens.auth())

	case screen.ProfileUpdatedMsg:
		if s := m.screens.session; s != nil {
			s.User = msg.User
		}
		return m, m.router.Broadcast(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Sequence(m.router.Close(), tea.Quit)
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	header := layout.RenderHeader(active.Title(), m.status(), m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// status is the header's right-hand side: who is signed in and whether
// the demo backend is active.
func (m AppModel) status() string {
	s := m.screens.session
	if s == nil {
		return ""
	}
	status := s.User.DisplayName()
	if cfg := m.screens.deps.Config; cfg != nil && cfg.DemoMode {
		status += " · DEMO"
	}
	return status
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		if hints := p.KeyHints(); len(hints) > 0 {
			return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
		}
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run restores any saved session and starts the Bubble Tea program.
func Run(ctx context.Context, deps Deps) error {
	rctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	session, err := identity.Resolve(rctx, deps.Provider, deps.Tokens)
	cancel()
	if err != nil {
		deps.Log.Warn().Err(err).Msg("restore session")
		session = nil
	}

	p := tea.NewProgram(newAppModel(deps, session))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
