package dashboard

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/router"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/store"
	"github.com/prodiplan/essaygrader/internal/ui/components"
	"github.com/prodiplan/essaygrader/internal/ui/layout"
	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

// NoMajor is shown when the student has not chosen a target major yet.
const NoMajor = "Belum dipilih"

type latestLoadedMsg struct {
	attempt *store.Attempt
	err     error
}

// Config wires the dashboard to the rest of the app. The factories let the
// app decide how each destination is built. OpenEssay may fail, in which
// case the dashboard stays and shows the error.
type Config struct {
	User        identity.User
	Attempts    store.AttemptRepo
	OpenEssay   func() (screen.Screen, error)
	OpenHistory func() screen.Screen
	OpenProfile func() screen.Screen
	Logout      func() tea.Cmd
}

// DashboardScreen greets the signed-in student and links to the assessment.
type DashboardScreen struct {
	cfg    Config
	menu   components.Menu
	latest *store.Attempt
	notice string
}

var _ screen.Screen = (*DashboardScreen)(nil)
var _ screen.KeyHintProvider = (*DashboardScreen)(nil)

// New creates the dashboard for cfg.User.
func New(cfg Config) *DashboardScreen {
	push := func(factory func() screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			if factory == nil {
				return nil
			}
			next := factory()
			return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	}

	d := &DashboardScreen{cfg: cfg}
	items := []components.MenuItem{
		{
			Label:       "Essay Grader",
			Description: "5 pertanyaan esai, 15 menit. Jawab dengan jujur.",
			Action:      d.openEssay,
		},
		{
			Label:       "Riwayat Asesmen",
			Description: "Lihat status dan hasil asesmen yang pernah kamu kirim.",
			Action:      push(cfg.OpenHistory),
			Disabled:    cfg.OpenHistory == nil,
		},
		{
			Label:       "Profil",
			Description: "Lihat dan ubah data dirimu.",
			Action:      push(cfg.OpenProfile),
			Disabled:    cfg.OpenProfile == nil,
		},
		{
			Label:       "Keluar",
			Description: "Keluar dari akun ini.",
			Action:      cfg.Logout,
		},
	}
	d.menu = components.NewMenu(items)
	return d
}

func (d *DashboardScreen) openEssay() tea.Cmd {
	if d.cfg.OpenEssay == nil {
		return nil
	}
	next, err := d.cfg.OpenEssay()
	if err != nil {
		d.notice = "Asesmen tidak dapat dimulai: " + err.Error()
		return nil
	}
	d.notice = ""
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (d *DashboardScreen) Init() tea.Cmd {
	if d.cfg.Attempts == nil {
		return nil
	}
	repo, userID := d.cfg.Attempts, d.cfg.User.ID
	return func() tea.Msg {
		list, err := repo.ListByUser(context.Background(), userID, 1)
		if err != nil || len(list) == 0 {
			return latestLoadedMsg{err: err}
		}
		return latestLoadedMsg{attempt: &list[0]}
	}
}

func (d *DashboardScreen) Title() string {
	return "Dashboard"
}

func (d *DashboardScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (d *DashboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case latestLoadedMsg:
		// A failed lookup only hides the summary line.
		d.latest = msg.attempt
		return d, nil
	case screen.ProfileUpdatedMsg:
		d.cfg.User = msg.User
		return d, nil
	}
	var cmd tea.Cmd
	d.menu, cmd = d.menu.Update(msg)
	return d, cmd
}

// FirstName returns the first word of the student's name.
func FirstName(u identity.User) string {
	name := u.DisplayName()
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

func (d *DashboardScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	major := d.cfg.User.TargetMajor()
	if major == "" {
		major = NoMajor
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Selamat datang kembali, %s!", FirstName(d.cfg.User))))
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render("Jurusan target  ") + theme.Body.Render(major) + "\n")
	if d.cfg.User.SchoolOrigin != "" {
		b.WriteString(theme.Hint.Render("Asal sekolah    ") + theme.Body.Render(d.cfg.User.SchoolOrigin) + "\n")
	}
	if d.latest != nil {
		last := fmt.Sprintf("%s · %s", d.latest.StartedAt.Local().Format("02 Jan 2006"), StatusLabel(d.latest.Status))
		if d.latest.Status == store.StatusCompleted {
			last += fmt.Sprintf(" · skor %d", d.latest.FinalScore)
		}
		b.WriteString(theme.Hint.Render("Asesmen terakhir ") + theme.Body.Render(last) + "\n")
	}

	steps := []string{
		"1. Mulai Test: jawab pertanyaan esai dengan jujur",
		"2. Analisis AI: sistem menganalisis jawabanmu",
		"3. Dapatkan Insight: lihat hasil analisis mendalam",
	}
	card := components.Card(b.String()+"\n"+theme.Hint.Render(strings.Join(steps, "\n")), cw)

	sections := []string{card, ""}
	if d.notice != "" {
		sections = append(sections, components.Banner(d.notice, theme.Danger, cw), "")
	}
	content := lipgloss.JoinVertical(lipgloss.Left, append(sections, d.menu.View())...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// StatusLabel is the student-facing name of an attempt status.
func StatusLabel(s store.AttemptStatus) string {
	switch s {
	case store.StatusAnalyzing:
		return "Sedang dianalisis"
	case store.StatusCompleted:
		return "Selesai"
	case store.StatusUnconfirmed:
		return "Belum terkonfirmasi"
	case store.StatusFailed:
		return "Tidak selesai"
	case store.StatusInProgress:
		return "Berlangsung"
	default:
		return string(s)
	}
}
