// Package result shows the analysis report of one submitted attempt.
package result

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/prodiplan/essaygrader/internal/report"
	"github.com/prodiplan/essaygrader/internal/router"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/screens/confirmation"
	"github.com/prodiplan/essaygrader/internal/store"
	"github.com/prodiplan/essaygrader/internal/ui/components"
	"github.com/prodiplan/essaygrader/internal/ui/layout"
	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

// loadTimeout bounds one result lookup including the history write.
const loadTimeout = 15 * time.Second

type resultLoadedMsg struct {
	report *report.Report
	err    error
}

// Config holds the screen's collaborators. Attempts may be nil, in which
// case the local history is not updated with the score.
type Config struct {
	AttemptID string
	Provider  report.Provider
	Attempts  store.AttemptRepo
	Log       zerolog.Logger
}

// ResultScreen renders the score, readiness and feedback of an attempt.
type ResultScreen struct {
	cfg     Config
	log     zerolog.Logger
	report  *report.Report
	err     error
	loading bool
	offset  int
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

func New(cfg Config) *ResultScreen {
	return &ResultScreen{
		cfg: cfg,
		log: cfg.Log.With().Str("component", "result_screen").Str("attempt_id", cfg.AttemptID).Logger(),
	}
}

func (s *ResultScreen) Init() tea.Cmd {
	return s.load()
}

func (s *ResultScreen) Title() string {
	return "Hasil Analisis"
}

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "↑↓", Description: "Scroll"}}
	if s.report == nil && !s.loading {
		hints = append(hints, layout.KeyHint{Key: "r", Description: "Reload"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

// load fetches the report and, once it exists, stores the score on the
// local attempt so history and profile can show it.
func (s *ResultScreen) load() tea.Cmd {
	s.loading = true
	s.err = nil
	provider, attempts, id, log := s.cfg.Provider, s.cfg.Attempts, s.cfg.AttemptID, s.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		rep, err := provider.Result(ctx, id)
		if err != nil {
			return resultLoadedMsg{err: err}
		}
		if attempts != nil {
			if err := markCompleted(ctx, attempts, rep); err != nil {
				log.Warn().Err(err).Msg("store result")
			}
		}
		return resultLoadedMsg{report: rep}
	}
}

func markCompleted(ctx context.Context, attempts store.AttemptRepo, rep *report.Report) error {
	a, err := attempts.Get(ctx, rep.AttemptID)
	if err != nil || a == nil {
		return err
	}
	if a.Status == store.StatusCompleted && a.FinalScore == rep.FinalScore && a.Readiness == string(rep.Readiness) {
		return nil
	}
	a.Status = store.StatusCompleted
	a.FinalScore = rep.FinalScore
	a.Readiness = string(rep.Readiness)
	return attempts.Record(ctx, a)
}

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resultLoadedMsg:
		s.loading = false
		s.report, s.err = msg.report, msg.err
		s.offset = 0
		if msg.err != nil && !errors.Is(msg.err, report.ErrAnalyzing) {
			s.log.Warn().Err(msg.err).Msg("load result")
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			s.offset = max(s.offset-1, 0)
		case "down", "j":
			s.offset++
		case "pgup":
			s.offset = max(s.offset-10, 0)
		case "pgdown", "space":
			s.offset += 10
		case "r":
			if !s.loading && s.report == nil {
				return s, s.load()
			}
		}
	}
	return s, nil
}

func (s *ResultScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case s.loading:
		return center.Foreground(theme.TextDim).Render("\n\n  Memuat hasil analisis...")
	case errors.Is(s.err, report.ErrAnalyzing):
		return center.Foreground(theme.Secondary).Render(
			"\n\nJawaban kamu masih dianalisis.\nEstimasi hasil: " + confirmation.AnalysisETA +
				"\n\n" + theme.Hint.Render("Tekan r untuk memuat ulang."))
	case errors.Is(s.err, report.ErrNotFound):
		return center.Foreground(theme.TextDim).Render("\n\nHasil tidak ditemukan.")
	case s.err != nil:
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nGagal memuat hasil: %s", s.err))
	case s.report == nil:
		return ""
	}

	cw := components.ContentWidth(width)
	lines := strings.Split(s.render(cw), "\n")
	maxOffset := max(len(lines)-height, 0)
	s.offset = min(s.offset, maxOffset)
	end := min(s.offset+height, len(lines))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(lines[s.offset:end], "\n"))
}

func (s *ResultScreen) render(cw int) string {
	r := s.report
	wrap := lipgloss.NewStyle().Width(cw)

	var b strings.Builder
	tone := lipgloss.NewStyle().Foreground(ReadinessColor(r.Readiness)).Bold(true)
	score := fmt.Sprintf("Skor Akhir  %s  %s",
		tone.Render(fmt.Sprintf("%d/100", r.FinalScore)),
		tone.Render("· "+string(r.Readiness)))
	card := theme.Title.Render(score) + "\n\n" +
		components.NewProgressBar("", r.FinalScore, false, cw-6).View() + "\n"
	if r.TargetMajor != "" {
		card += "\n" + theme.Hint.Render("Jurusan target  ") + theme.Body.Render(r.TargetMajor)
	}
	if !r.CompletedAt.IsZero() {
		card += "\n" + theme.Hint.Render("Dianalisis      ") + theme.Body.Render(r.CompletedAt.Local().Format("02 Jan 2006 15:04"))
	}
	b.WriteString(components.Card(card, cw))
	b.WriteString("\n\n")

	b.WriteString(wrap.Render(theme.Body.Render(r.Summary)))
	b.WriteString("\n\n")

	section(&b, "Insight Utama")
	for _, in := range []struct {
		label string
		value int
	}{
		{"Motivasi", r.Insights.Motivation},
		{"Pemahaman Teknis", r.Insights.Technical},
		{"Keselarasan Karir", r.Insights.CareerAlignment},
	} {
		b.WriteString(components.NewProgressBar(fmt.Sprintf("%-17s", in.label), in.value, true, cw).View() + "\n")
	}
	b.WriteString("\n")

	list(&b, wrap, "Kekuatan", "✔", theme.Success, r.Strengths)
	list(&b, wrap, "Area Pengembangan", "!", theme.Warning, r.Weaknesses)

	if len(r.QuestionScores) > 0 {
		section(&b, "Skor per Pertanyaan")
		for _, q := range r.QuestionScores {
			b.WriteString(theme.Body.Render(fmt.Sprintf("Pertanyaan %d  ", q.QuestionID)) +
				theme.Selected.Render(fmt.Sprintf("%3d", q.Score)) + "\n")
			b.WriteString(wrap.Render(theme.Hint.Render("  "+q.Feedback)) + "\n")
		}
		b.WriteString("\n")
	}

	if len(r.Traits) > 0 {
		section(&b, "Karakter")
		for _, t := range r.Traits {
			b.WriteString(theme.Body.Render(fmt.Sprintf("%-20s", traitName(t.Name))) +
				theme.Hint.Render(traitLevel(t.Level)) + "\n")
		}
		b.WriteString("\n")
	}

	list(&b, wrap, "Rekomendasi", "→", theme.Primary, r.Recommendations)

	if len(r.CareerSuggestions) > 0 {
		section(&b, "Saran Karir")
		b.WriteString(wrap.Render(theme.Body.Render(strings.Join(r.CareerSuggestions, " · "))))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func section(b *strings.Builder, title string) {
	b.WriteString(theme.Body.Bold(true).Render(title) + "\n")
}

func list(b *strings.Builder, wrap lipgloss.Style, title, bullet string, c color.Color, items []string) {
	if len(items) == 0 {
		return
	}
	section(b, title)
	mark := lipgloss.NewStyle().Foreground(c).Render(bullet)
	for _, it := range items {
		b.WriteString(wrap.Render(mark+" "+theme.Body.Render(it)) + "\n")
	}
	b.WriteString("\n")
}

// ReadinessColor is the accent used for a readiness level.
func ReadinessColor(r report.Readiness) color.Color {
	switch r {
	case report.ReadinessReady:
		return theme.Success
	case report.ReadinessFair:
		return theme.Warning
	default:
		return theme.Error
	}
}

func traitName(key string) string {
	switch key {
	case "analytical_thinking":
		return "Berpikir analitis"
	case "problem_solving":
		return "Pemecahan masalah"
	case "creativity":
		return "Kreativitas"
	case "teamwork":
		return "Kerja sama tim"
	case "communication":
		return "Komunikasi"
	default:
		return strings.ReplaceAll(key, "_", " ")
	}
}

func traitLevel(level string) string {
	switch level {
	case "high":
		return "Tinggi"
	case "medium":
		return "Sedang"
	case "low":
		return "Rendah"
	default:
		return level
	}
}
