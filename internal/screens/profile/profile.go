// Package profile shows the signed-in student's data and assessment stats
// and lets them edit their profile.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/report"
	"github.com/prodiplan/essaygrader/internal/router"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/store"
	"github.com/prodiplan/essaygrader/internal/ui/components"
	"github.com/prodiplan/essaygrader/internal/ui/layout"
	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

const (
	requestTimeout = 15 * time.Second
	fieldWidth     = 40
	// statsLimit caps the attempts summarized on the profile.
	statsLimit = 200
)

const notSet = "-"

type statsLoadedMsg struct {
	stats report.Stats
	err   error
}

type savedMsg struct {
	user *identity.User
	err  error
}

// Config holds the screen's collaborators. Attempts may be nil, which hides
// the stats card.
type Config struct {
	User     identity.User
	Token    string
	Provider identity.Provider
	Attempts store.AttemptRepo
	Log      zerolog.Logger
}

// ProfileScreen shows the profile and switches to an edit form on demand.
type ProfileScreen struct {
	cfg   Config
	user  identity.User
	stats *report.Stats

	editing bool
	keys    []string // form field names, matching FormError keys
	fields  []components.TextInput
	focus   int
	busy    bool
	errMsg  string
	notice  string
}

var _ screen.Screen = (*ProfileScreen)(nil)
var _ screen.KeyHintProvider = (*ProfileScreen)(nil)
var _ screen.EscapeHandler = (*ProfileScreen)(nil)

func New(cfg Config) *ProfileScreen {
	return &ProfileScreen{cfg: cfg, user: cfg.User}
}

func (s *ProfileScreen) Init() tea.Cmd {
	if s.cfg.Attempts == nil {
		return nil
	}
	repo, userID := s.cfg.Attempts, s.user.ID
	return func() tea.Msg {
		attempts, err := repo.ListByUser(context.Background(), userID, statsLimit)
		if err != nil {
			return statsLoadedMsg{err: err}
		}
		return statsLoadedMsg{stats: report.Summarize(attempts)}
	}
}

func (s *ProfileScreen) Title() string {
	if s.editing {
		return "Edit Profil"
	}
	return "Profil"
}

// HandlesEscape keeps Esc in the screen while editing so it cancels the
// form instead of leaving.
func (s *ProfileScreen) HandlesEscape() bool {
	return s.editing
}

func (s *ProfileScreen) KeyHints() []layout.KeyHint {
	if s.editing {
		return []layout.KeyHint{
			{Key: "Tab", Description: "Next field"},
			{Key: "Ctrl+S", Description: "Simpan"},
			{Key: "Esc", Description: "Batal"},
		}
	}
	return []layout.KeyHint{
		{Key: "E", Description: "Edit"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ProfileScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if msg.err != nil {
			s.cfg.Log.Warn().Err(msg.err).Msg("load profile stats")
			return s, nil
		}
		s.stats = &msg.stats
		return s, nil

	case savedMsg:
		return s.handleSaved(msg)

	case screen.ProfileUpdatedMsg:
		s.user = msg.User
		return s, nil

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		if !s.editing {
			switch msg.String() {
			case "e":
				return s, s.startEdit()
			case "esc":
				return s, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return s, nil
		}
		switch msg.String() {
		case "esc":
			s.editing = false
			s.errMsg = ""
			return s, nil
		case "tab", "down":
			return s, s.moveFocus(1)
		case "shift+tab", "up":
			return s, s.moveFocus(-1)
		case "ctrl+s":
			return s, s.save()
		case "enter":
			if s.focus < len(s.fields)-1 {
				return s, s.moveFocus(1)
			}
			return s, s.save()
		}
		var cmd tea.Cmd
		s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *ProfileScreen) startEdit() tea.Cmd {
	in := identity.ProfileInputFrom(s.user)
	defs := []struct {
		key, label, placeholder, value string
	}{
		{"full_name", "Nama Lengkap", "Nama sesuai rapor", in.FullName},
		{"birth_date", "Tanggal Lahir", "YYYY-MM-DD", in.BirthDate},
		{"school_origin", "Asal Sekolah", "SMAN 1 Jakarta", in.SchoolOrigin},
		{"dream_major", "Jurusan Impian", "Teknik Informatika", in.DreamMajor},
		{"phone_number", "Nomor Telepon", "+6281234567890", in.PhoneNumber},
		{"avatar_url", "URL Foto Profil", "https://...", in.AvatarURL},
	}
	s.keys = make([]string, len(defs))
	s.fields = make([]components.TextInput, len(defs))
	for i, d := range defs {
		s.keys[i] = d.key
		s.fields[i] = components.NewTextInput(d.label, d.placeholder, false, fieldWidth)
		s.fields[i].SetValue(d.value)
	}
	s.editing = true
	s.focus = 0
	s.errMsg = ""
	s.notice = ""
	return s.fields[0].Focus()
}

func (s *ProfileScreen) moveFocus(delta int) tea.Cmd {
	next := s.focus + delta
	if next < 0 || next >= len(s.fields) {
		return nil
	}
	s.fields[s.focus].Blur()
	s.focus = next
	return s.fields[s.focus].Focus()
}

func (s *ProfileScreen) value(key string) string {
	for i, k := range s.keys {
		if k == key {
			return s.fields[i].Value()
		}
	}
	return ""
}

func (s *ProfileScreen) save() tea.Cmd {
	s.errMsg = ""
	for i := range s.fields {
		s.fields[i].Err = ""
	}
	in := identity.UpdateProfileInput{
		FullName:     s.value("full_name"),
		BirthDate:    s.value("birth_date"),
		SchoolOrigin: s.value("school_origin"),
		DreamMajor:   s.value("dream_major"),
		PhoneNumber:  s.value("phone_number"),
		AvatarURL:    s.value("avatar_url"),
	}
	if err := in.Validate(); err != nil {
		s.showError(err)
		return nil
	}

	s.busy = true
	provider, token := s.cfg.Provider, s.cfg.Token
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		u, err := provider.UpdateProfile(ctx, token, in)
		return savedMsg{user: u, err: err}
	}
}

func (s *ProfileScreen) showError(err error) {
	var fe *identity.FormError
	switch {
	case errors.As(err, &fe):
		for i, k := range s.keys {
			if m, ok := fe.Fields[k]; ok {
				s.fields[i].Err = m
			}
		}
		if d, ok := fe.Fields["detail"]; ok {
			s.errMsg = d
		}
	case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, identity.ErrNotAuthenticated):
		s.errMsg = "Sesi kamu berakhir. Silakan keluar lalu masuk kembali."
	default:
		s.errMsg = "Gagal menyimpan profil: " + err.Error()
	}
}

func (s *ProfileScreen) handleSaved(msg savedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.err != nil {
		s.cfg.Log.Debug().Err(msg.err).Msg("update profile")
		s.showError(msg.err)
		return s, nil
	}
	s.user = *msg.user
	s.editing = false
	s.notice = "Profil berhasil diperbarui."
	s.cfg.Log.Info().Str("user_id", s.user.ID).Msg("profile updated")

	u := s.user
	return s, func() tea.Msg { return screen.ProfileUpdatedMsg{User: u} }
}

func (s *ProfileScreen) View(width, height int) string {
	if s.editing {
		return s.editView(width, height)
	}
	cw := components.ContentWidth(width)
	u := s.user

	var b strings.Builder
	b.WriteString(theme.Title.Render(u.DisplayName()) + "\n")
	b.WriteString(theme.Hint.Render(u.Email) + "\n\n")
	row := func(label, v string) {
		if v == "" {
			v = notSet
		}
		b.WriteString(theme.Hint.Render(fmt.Sprintf("%-16s", label)) + theme.Body.Render(v) + "\n")
	}
	row("Jurusan impian", u.DreamMajor)
	row("Asal sekolah", u.SchoolOrigin)
	row("Tanggal lahir", u.BirthDate)
	row("Nomor telepon", u.PhoneNumber)
	row("Foto profil", u.AvatarURL)
	if !u.CreatedAt.IsZero() {
		row("Bergabung", u.CreatedAt.Local().Format("02 Jan 2006"))
	}
	sections := []string{components.Card(strings.TrimRight(b.String(), "\n"), cw)}

	if s.stats != nil {
		sections = append(sections, "", components.Card(statsView(*s.stats), cw))
	}
	if s.notice != "" {
		sections = append(sections, "", components.Banner(s.notice, theme.Notice, cw))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func statsView(st report.Stats) string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render("Statistik Asesmen") + "\n\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%-16s", "Total asesmen")) + theme.Body.Render(fmt.Sprint(st.Total)) + "\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%-16s", "Selesai")) + theme.Body.Render(fmt.Sprint(st.Completed)) + "\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%-16s", "Dianalisis")) + theme.Body.Render(fmt.Sprint(st.Analyzing)) + "\n")
	if st.Completed > 0 {
		b.WriteString(theme.Hint.Render(fmt.Sprintf("%-16s", "Rata-rata skor")) + theme.Body.Render(fmt.Sprint(st.Average)) + "\n")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("%-16s", "Skor tertinggi")) + theme.Body.Render(fmt.Sprint(st.Highest)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *ProfileScreen) editView(width, height int) string {
	cw := min(components.ContentWidth(width), fieldWidth+8)

	var b strings.Builder
	b.WriteString(theme.Title.Render("Edit Profil") + "\n")
	b.WriteString(theme.Hint.Render(s.user.Email) + "\n\n")
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
		b.WriteString("\n\n" + theme.Hint.Render("Menyimpan..."))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, components.Card(b.String(), cw))
}
