package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/ui/components"
	"github.com/prodiplan/essaygrader/internal/ui/layout"
	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

// requestTimeout bounds a single login or register call.
const requestTimeout = 15 * time.Second

const fieldWidth = 40

type mode int

const (
	modeLogin mode = iota
	modeRegister
)

// authResultMsg carries the provider's answer back to Update.
type authResultMsg struct {
	session *identity.Session
	err     error
}

// Config holds the screen's collaborators.
type Config struct {
	Provider identity.Provider
	Tokens   identity.TokenStore
	Demo     bool
	Log      zerolog.Logger
}

// AuthScreen is the combined login and registration form.
type AuthScreen struct {
	cfg    Config
	mode   mode
	keys   []string // form field names, matching FormError keys
	fields []components.TextInput
	focus  int
	busy   bool
	errMsg string
}

var _ screen.Screen = (*AuthScreen)(nil)
var _ screen.KeyHintProvider = (*AuthScreen)(nil)

// New creates the auth screen in login mode.
func New(cfg Config) *AuthScreen {
	s := &AuthScreen{cfg: cfg}
	s.setMode(modeLogin)
	return s
}

func (s *AuthScreen) setMode(m mode) {
	s.mode = m
	s.focus = 0
	s.errMsg = ""

	type fieldDef struct {
		key, label, placeholder string
		password                bool
	}
	var defs []fieldDef
	if m == modeLogin {
		defs = []fieldDef{
			{"email", "Email", "nama@email.com", false},
			{"password", "Kata Sandi", "", true},
		}
	} else {
		defs = []fieldDef{
			{"full_name", "Nama Lengkap", "Nama sesuai rapor", false},
			{"email", "Email", "nama@email.com", false},
			{"password", "Kata Sandi", "minimal 6 karakter", true},
			{"confirm_password", "Konfirmasi Kata Sandi", "", true},
			{"birth_date", "Tanggal Lahir", "YYYY-MM-DD", false},
			{"school_origin", "Asal Sekolah", "SMAN 1 Jakarta", false},
			{"dream_major", "Jurusan Impian", "Teknik Informatika", false},
		}
	}

	s.keys = make([]string, len(defs))
	s.fields = make([]components.TextInput, len(defs))
	for i, sp := range defs {
		s.keys[i] = sp.key
		s.fields[i] = components.NewTextInput(sp.label, sp.placeholder, sp.password, fieldWidth)
	}
	s.fields[0].Focus()
}

func (s *AuthScreen) Init() tea.Cmd {
	return s.fields[s.focus].Focus()
}

func (s *AuthScreen) Title() string {
	if s.mode == modeRegister {
		return "Daftar"
	}
	return "Masuk"
}

func (s *AuthScreen) KeyHints() []layout.KeyHint {
	toggle := "Daftar akun baru"
	if s.mode == modeRegister {
		toggle = "Sudah punya akun"
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl+T", Description: toggle},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *AuthScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case authResultMsg:
		return s.handleResult(msg)

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down":
			return s, s.moveFocus(1)
		case "shift+tab", "up":
			return s, s.moveFocus(-1)
		case "ctrl+t":
			if s.mode == modeLogin {
				s.setMode(modeRegister)
			} else {
				s.setMode(modeLogin)
			}
			return s, s.fields[0].Focus()
		case "enter":
			if s.focus < len(s.fields)-1 {
				return s, s.moveFocus(1)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *AuthScreen) moveFocus(delta int) tea.Cmd {
	next := s.focus + delta
	if next < 0 || next >= len(s.fields) {
		return nil
	}
	s.fields[s.focus].Blur()
	s.focus = next
	return s.fields[s.focus].Focus()
}

func (s *AuthScreen) value(key string) string {
	for i, k := range s.keys {
		if k == key {
			return s.fields[i].Value()
		}
	}
	return ""
}

func (s *AuthScreen) clearErrors() {
	s.errMsg = ""
	for i := range s.fields {
		s.fields[i].Err = ""
	}
}

func (s *AuthScreen) applyFieldErrors(fields map[string]string) {
	for i, k := range s.keys {
		if m, ok := fields[k]; ok {
			s.fields[i].Err = m
		}
	}
	if d, ok := fields["detail"]; ok {
		s.errMsg = d
	}
}

func (s *AuthScreen) submit() tea.Cmd {
	s.clearErrors()
	provider := s.cfg.Provider

	var call func(ctx context.Context) (*identity.Session, error)
	if s.mode == modeLogin {
		in := identity.LoginInput{
			Email:    s.value("email"),
			Password: s.value("password"),
		}
		if err := in.Validate(); err != nil {
			s.showError(err)
			return nil
		}
		call = func(ctx context.Context) (*identity.Session, error) { return provider.Login(ctx, in) }
	} else {
		in := identity.RegisterInput{
			Email:           s.value("email"),
			Password:        s.value("password"),
			ConfirmPassword: s.value("confirm_password"),
			FullName:        s.value("full_name"),
			BirthDate:       s.value("birth_date"),
			SchoolOrigin:    s.value("school_origin"),
			DreamMajor:      s.value("dream_major"),
		}
		if err := in.Validate(); err != nil {
			s.showError(err)
			return nil
		}
		call = func(ctx context.Context) (*identity.Session, error) { return provider.Register(ctx, in) }
	}

	s.busy = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sess, err := call(ctx)
		return authResultMsg{session: sess, err: err}
	}
}

func (s *AuthScreen) showError(err error) {
	var fe *identity.FormError
	switch {
	case errors.As(err, &fe):
		s.applyFieldErrors(fe.Fields)
	case errors.Is(err, identity.ErrInvalidCredentials):
		s.errMsg = "Email atau kata sandi salah."
	case errors.Is(err, identity.ErrEmailTaken):
		s.applyFieldErrors(map[string]string{"email": "Email sudah terdaftar."})
	default:
		s.errMsg = "Terjadi kesalahan: " + err.Error()
	}
}

func (s *AuthScreen) handleResult(msg authResultMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.err != nil {
		s.cfg.Log.Debug().Err(msg.err).Msg("authentication failed")
		s.showError(msg.err)
		return s, nil
	}

	if s.cfg.Tokens != nil {
		if err := identity.Persist(s.cfg.Tokens, msg.session); err != nil {
			// The session still works for this run.
			s.cfg.Log.Warn().Err(err).Msg("persist session tokens")
		}
	}
	s.cfg.Log.Info().Str("user_id", msg.session.User.ID).Msg("signed in")

	sess := msg.session
	return s, func() tea.Msg { return screen.SignedInMsg{Session: sess} }
}

func (s *AuthScreen) View(width, height int) string {
	cw := min(components.ContentWidth(width), fieldWidth+8)

	var b strings.Builder
	heading := "Masuk ke Prodiplan"
	sub := "Lanjutkan perjalananmu menemukan jurusan yang tepat."
	if s.mode == modeRegister {
		heading = "Buat Akun Baru"
		sub = "Lengkapi data dirimu untuk memulai."
	}
	b.WriteString(theme.Title.Render(heading) + "\n")
	b.WriteString(theme.Hint.Render(sub) + "\n\n")

	for i, f := range s.fields {
		b.WriteString(f.View())
		if i < len(s.fields)-1 {
			b.WriteString("\n\n")
		}
	}

	if s.errMsg != "" {
		b.WriteString("\n\n" + components.Banner(s.errMsg, theme.Danger, cw-4))
	}
	if s.busy {
		b.WriteString("\n\n" + theme.Hint.Render("Memproses..."))
	}

	sections := []string{components.Card(b.String(), cw)}
	if s.cfg.Demo && s.mode == modeLogin {
		demo := identity.DemoUsers()[0]
		notice := "Mode demo: " + demo.User.Email + " / " + demo.Password
		sections = append(sections, components.Banner(notice, theme.Notice, cw))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, sections...))
}
