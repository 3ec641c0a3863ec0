package confirmation

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/prodiplan/essaygrader/internal/router"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/ui/components"
	"github.com/prodiplan/essaygrader/internal/ui/layout"
	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

// AnalysisETA is the range promised to the student for the analysis report.
const AnalysisETA = "2-24 jam"

// Summary describes the confirmed submission.
type Summary struct {
	AttemptID   string
	ReceiptID   string
	TargetMajor string
	Answered    int
	Total       int
	AutoSubmit  bool
	Elapsed     time.Duration
}

var nextSteps = [][2]string{
	{"Analisis AI", "Sistem menganalisis jawaban kamu"},
	{"Perhitungan Skor", "Menghitung skor kesiapan"},
	{"Pembuatan Laporan", "Membuat laporan komprehensif"},
	{"Notifikasi", "Kamu akan diberitahu saat hasil siap"},
}

// ConfirmationScreen thanks the student and explains what happens next.
type ConfirmationScreen struct {
	summary Summary
	buttons components.ButtonRow
}

var _ screen.Screen = (*ConfirmationScreen)(nil)
var _ screen.KeyHintProvider = (*ConfirmationScreen)(nil)

// New creates the screen. history builds the assessment history screen and
// result the analysis screen of one attempt; either may be nil, which
// hides its button.
func New(summary Summary, history func() screen.Screen, result func(attemptID string) screen.Screen) *ConfirmationScreen {
	back := components.Button{
		Label: "Kembali ke Dashboard",
		OnPress: func() tea.Cmd {
			return func() tea.Msg { return router.PopScreenMsg{} }
		},
	}
	buttons := []components.Button{back}
	if history != nil {
		buttons = append([]components.Button{{
			Label: "Lihat Riwayat Asesmen",
			OnPress: func() tea.Cmd {
				next := history()
				return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
			},
		}}, buttons...)
	}
	if result != nil && summary.AttemptID != "" {
		buttons = append([]components.Button{{
			Label: "Lihat Hasil",
			OnPress: func() tea.Cmd {
				next := result(summary.AttemptID)
				return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
			},
		}}, buttons...)
	}

	return &ConfirmationScreen{
		summary: summary,
		buttons: components.NewButtonRow(0, buttons...),
	}
}

func (c *ConfirmationScreen) Init() tea.Cmd { return nil }

func (c *ConfirmationScreen) Title() string {
	return "Jawaban Terkirim"
}

func (c *ConfirmationScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←→", Description: "Choose"},
		{Key: "Enter", Description: "Open"},
		{Key: "Esc", Description: "Dashboard"},
	}
}

func (c *ConfirmationScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	c.buttons, cmd = c.buttons.Update(msg)
	return c, cmd
}

func (c *ConfirmationScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	s := c.summary

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Success).Bold(true).
		Render("✔ Terima kasih telah menyelesaikan esai kamu"))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render("Jawaban kamu telah kami terima dan sedang dianalisis."))
	b.WriteString("\n")
	if s.AutoSubmit {
		b.WriteString(theme.Notice.Render("Waktu habis, jawaban dikirim otomatis."))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(theme.Hint.Render(fmt.Sprintf("Terjawab        %d dari %d", s.Answered, s.Total)) + "\n")
	b.WriteString(theme.Hint.Render("Waktu pengerjaan "+formatDuration(s.Elapsed)) + "\n")
	if s.TargetMajor != "" {
		b.WriteString(theme.Hint.Render("Jurusan target  "+s.TargetMajor) + "\n")
	}
	if s.ReceiptID != "" {
		b.WriteString(theme.Hint.Render("Nomor referensi "+s.ReceiptID) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(theme.Selected.Render("Estimasi hasil: " + AnalysisETA))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Bold(true).Render("Apa selanjutnya?"))
	b.WriteString("\n")
	for i, step := range nextSteps {
		b.WriteString(fmt.Sprintf("%s %s\n",
			theme.Selected.Render(fmt.Sprintf("%d.", i+1)),
			theme.Body.Render(step[0])+theme.Hint.Render("  "+step[1])))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		components.Card(b.String(), cw), "", c.buttons.View())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d menit %02d detik", int(d.Minutes()), int(d.Seconds())%60)
}
