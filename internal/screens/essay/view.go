package essay

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/prodiplan/essaygrader/internal/assessment"
	"github.com/prodiplan/essaygrader/internal/ui/components"
	"github.com/prodiplan/essaygrader/internal/ui/layout"
	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

const (
	sidebarWidth  = 32
	previewLength = 70
)

func (s *EssayScreen) View(width, height int) string {
	if s.confirmQuit {
		return renderQuitConfirm(width)
	}
	switch s.flow.Step() {
	case assessment.StepIntro:
		return s.renderIntro(width, height)
	case assessment.StepAnswering:
		if s.flow.Navigator().ReviewMode() {
			return s.renderReview(width, height)
		}
		return s.renderAnswering(width, height)
	case assessment.StepSubmitting:
		return s.renderSubmitting(width, height)
	}
	return theme.Hint.Render("\n  Mengalihkan...")
}

func (s *EssayScreen) renderIntro(width, height int) string {
	cw := components.ContentWidth(width)
	total := len(s.flow.Questions())
	minutes := max(s.flow.Duration()/60, 1)

	major := s.flow.User().TargetMajor()
	if major == "" {
		major = "Belum dipilih"
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Essay Grader") + "\n\n")
	b.WriteString(theme.Body.Render("Jawab pertanyaan esai berikut dengan jujur. Jawabanmu akan dianalisis untuk mengukur kesiapanmu menuju jurusan impian."))
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render("Jurusan target  ") + theme.Body.Render(major) + "\n\n")

	rules := []string{
		fmt.Sprintf("%d pertanyaan esai", total),
		fmt.Sprintf("Waktu %d menit, jawaban dikirim otomatis saat waktu habis", minutes),
		fmt.Sprintf("Disarankan minimal %d karakter per jawaban", assessment.MinAnswerLengthHint),
		"Kamu bisa berpindah soal dan meninjau jawaban sebelum mengirim",
	}
	for _, r := range rules {
		b.WriteString(theme.Selected.Render("• ") + theme.Body.Render(r) + "\n")
	}
	if s.notice != "" {
		b.WriteString("\n" + components.Banner(s.notice, theme.Danger, cw-4))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, components.Card(b.String(), cw), "", s.intro.View())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// renderStatusBar shows position, progress and the countdown.
func (s *EssayScreen) renderStatusBar(width int) string {
	nav := s.flow.Navigator()
	answers := s.flow.Answers()

	left := theme.Body.Bold(true).Render(fmt.Sprintf("Soal %d dari %d", nav.Current(), nav.Total()))
	if nav.ReviewMode() {
		left = theme.Body.Bold(true).Render("Review Jawaban")
	}

	timer := s.flow.Timer()
	clockStyle := theme.Body.Bold(true)
	if timer.IsRunningOut() {
		clockStyle = theme.Danger
	}
	right := theme.Hint.Render(fmt.Sprintf("%d/%d terjawab  ", answers.CompletionCount(), answers.Total())) +
		clockStyle.Render("⏱ "+assessment.FormatClock(timer.Remaining()))

	barWidth := width - lipgloss.Width(left) - lipgloss.Width(right) - 8
	bar := components.NewProgressBar("", int(nav.ProgressPercent()), false, max(barWidth, 4)).View()

	return " " + left + "  " + bar + "  " + right
}

func (s *EssayScreen) renderAnswering(width, height int) string {
	compact := layout.IsCompactWidth(width)
	q := s.flow.CurrentQuestion()
	answers := s.flow.Answers()

	mainWidth := width - 4
	if !compact {
		mainWidth -= sidebarWidth + 1
	}

	var head strings.Builder
	head.WriteString(theme.Body.Bold(true).Width(mainWidth).Render(q.Prompt) + "\n")
	if q.Tip != "" {
		head.WriteString(theme.Hint.Width(mainWidth).Render("Tips: "+q.Tip) + "\n")
	}

	count := len([]rune(answers.GetAnswer(q.ID)))
	counter := theme.Hint.Render(fmt.Sprintf("%d karakter", count))
	if answers.MeetsLengthHint(q.ID) {
		counter += "  " + theme.Answered.Render("✓")
	} else {
		counter += "  " + theme.Notice.Render(fmt.Sprintf("minimal %d karakter disarankan", assessment.MinAnswerLengthHint))
	}

	var foot []string
	foot = append(foot, counter)
	if s.notice != "" {
		foot = append(foot, components.Banner(s.notice, theme.Danger, mainWidth-2))
	}
	if s.flow.CanSubmit() {
		foot = append(foot, theme.Answered.Render("Semua pertanyaan terjawab. Ctrl+S untuk mengirim."))
	}

	statusBar := s.renderStatusBar(width)
	headStr := head.String()
	footStr := strings.Join(foot, "\n")

	editorHeight := height - lipgloss.Height(statusBar) - lipgloss.Height(headStr) - lipgloss.Height(footStr) - 4
	s.editor.Resize(mainWidth-2, max(editorHeight, 3))

	main := lipgloss.JoinVertical(lipgloss.Left,
		headStr,
		theme.Panel.Render(s.editor.View()),
		footStr,
	)

	body := main
	if !compact {
		body = lipgloss.JoinHorizontal(lipgloss.Top, s.renderSidebar(), " ", main)
	}
	return lipgloss.JoinVertical(lipgloss.Left, statusBar, "", body)
}

func (s *EssayScreen) renderSidebar() string {
	questions := s.flow.Questions()
	answers := s.flow.Answers()

	list := components.QuestionList{
		Labels:   make([]string, len(questions)),
		Answered: make([]bool, len(questions)),
		Current:  s.flow.Navigator().Current() - 1,
		Width:    sidebarWidth - 4,
	}
	for i, q := range questions {
		list.Labels[i] = q.Prompt
		list.Answered[i] = answers.IsAnswered(q.ID)
	}

	content := theme.Body.Bold(true).Render("Daftar Soal") + "\n\n" + list.View() + "\n\n" +
		theme.Hint.Render(fmt.Sprintf("%d dari %d terjawab", answers.CompletionCount(), answers.Total()))
	return theme.Panel.Width(sidebarWidth).Render(content)
}

func (s *EssayScreen) renderReview(width, height int) string {
	cw := min(width-4, 100)
	answers := s.flow.Answers()

	var b strings.Builder
	for i, q := range s.flow.Questions() {
		marker := theme.Unanswered.Render("○ Belum dijawab")
		if answers.IsAnswered(q.ID) {
			marker = theme.Answered.Render("● Terjawab")
		}
		title := fmt.Sprintf("%d. %s", q.ID, q.Prompt)
		style := theme.Unselected
		prefix := "  "
		if i == s.reviewCursor {
			style = theme.Selected
			prefix = "▸ "
		}
		b.WriteString(style.Width(cw).Render(prefix+title) + "\n")
		b.WriteString("    " + marker + "\n")
		if preview := previewOf(answers.GetAnswer(q.ID)); preview != "" {
			b.WriteString(theme.Hint.Width(cw-4).Render("    "+preview) + "\n")
		}
		b.WriteString("\n")
	}

	if s.notice != "" {
		b.WriteString(components.Banner(s.notice, theme.Danger, cw-2) + "\n")
	}
	if s.flow.CanSubmit() {
		b.WriteString(theme.Answered.Render("Siap dikirim. Tekan S untuk mengirim jawaban."))
	} else {
		b.WriteString(theme.Notice.Render(fmt.Sprintf("Lengkapi %d pertanyaan lagi sebelum mengirim.",
			answers.Total()-answers.CompletionCount())))
	}

	return lipgloss.JoinVertical(lipgloss.Left, s.renderStatusBar(width), "", b.String())
}

// previewOf flattens an answer into one short line.
func previewOf(answer string) string {
	flat := strings.Join(strings.Fields(answer), " ")
	r := []rune(flat)
	if len(r) > previewLength {
		return string(r[:previewLength]) + "…"
	}
	return flat
}

func (s *EssayScreen) renderSubmitting(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	if s.flow.Timer().Expired() {
		b.WriteString(theme.Notice.Render("Waktu habis! Jawaban kamu dikirim otomatis.") + "\n\n")
	}

	if s.flow.CanRetry() {
		b.WriteString(theme.Danger.Render("Pengiriman gagal") + "\n\n")
		if s.notice != "" {
			b.WriteString(components.Banner(s.notice, theme.Danger, cw-4) + "\n\n")
		}
		b.WriteString(theme.Body.Render("[R] Coba lagi") + "   " + theme.Hint.Render("[Esc] Keluar"))
	} else {
		b.WriteString(theme.Title.Render("Mengirim jawaban" + strings.Repeat(".", s.dots)))
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Mohon tunggu, jangan tutup aplikasi."))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, components.Card(b.String(), cw))
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")

	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	b.WriteString(center.Foreground(theme.Text).Bold(true).Render("Keluar dari tes?"))
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.TextDim).Render("Jawaban kamu tidak akan dikirim."))
	b.WriteString("\n\n")
	b.WriteString(center.Foreground(theme.Error).Render("[Y] Ya, keluar"))
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.Primary).Render("[N] Tidak, lanjutkan"))

	return b.String()
}
