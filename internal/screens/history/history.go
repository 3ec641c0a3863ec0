package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/prodiplan/essaygrader/internal/report"
	"github.com/prodiplan/essaygrader/internal/router"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/screens/dashboard"
	"github.com/prodiplan/essaygrader/internal/store"
	"github.com/prodiplan/essaygrader/internal/ui/layout"
	"github.com/prodiplan/essaygrader/internal/ui/theme"
)

// listLimit caps how many attempts are loaded.
const listLimit = 50

type historyLoadedMsg struct {
	Attempts []store.Attempt
	Err      error
}

type eventsLoadedMsg struct {
	AttemptID string
	Events    []store.AttemptEvent
}

// HistoryScreen lists the student's past assessment attempts.
type HistoryScreen struct {
	attemptRepo store.AttemptRepo
	eventRepo   store.EventRepo
	userID      string
	attempts    []store.Attempt
	events      map[string][]store.AttemptEvent
	selected    int
	expanded    map[int]bool
	loaded      bool
	errMsg      string
	openResult  func(attemptID string) screen.Screen
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen for userID. eventRepo may be nil, in which
// case expanded rows show the attempt fields only.
func New(attemptRepo store.AttemptRepo, eventRepo store.EventRepo, userID string) *HistoryScreen {
	return &HistoryScreen{
		attemptRepo: attemptRepo,
		eventRepo:   eventRepo,
		userID:      userID,
		events:      make(map[string][]store.AttemptEvent),
		expanded:    make(map[int]bool),
	}
}

// WithResult lets the student open the analysis of a submitted attempt
// with r.
func (s *HistoryScreen) WithResult(open func(attemptID string) screen.Screen) *HistoryScreen {
	s.openResult = open
	return s
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo, userID := s.attemptRepo, s.userID
	return func() tea.Msg {
		attempts, err := repo.ListByUser(context.Background(), userID, listLimit)
		return historyLoadedMsg{Attempts: attempts, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "Riwayat Asesmen"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Enter", Description: "Details"}}
	if s.canOpenResult() {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Hasil"})
	}
	return append(hints,
		layout.KeyHint{Key: "↑↓", Description: "Navigate"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
}

func (s *HistoryScreen) canOpenResult() bool {
	return s.openResult != nil && s.selected < len(s.attempts) && s.attempts[s.selected].HasResult()
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.attempts = msg.Attempts
		}
		s.loaded = true
		return s, nil

	case eventsLoadedMsg:
		s.events[msg.AttemptID] = msg.Events
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.attempts)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if len(s.attempts) == 0 {
				return s, nil
			}
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, s.loadEvents(s.attempts[s.selected].ID)
		case "r":
			if !s.canOpenResult() {
				return s, nil
			}
			next := s.openResult(s.attempts[s.selected].ID)
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	}
	return s, nil
}

func (s *HistoryScreen) loadEvents(attemptID string) tea.Cmd {
	if s.eventRepo == nil {
		return nil
	}
	if _, ok := s.events[attemptID]; ok {
		return nil
	}
	repo := s.eventRepo
	return func() tea.Msg {
		events, err := repo.AttemptEvents(context.Background(), attemptID)
		if err != nil {
			events = nil
		}
		return eventsLoadedMsg{AttemptID: attemptID, Events: events}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Memuat riwayat...")
	}
	if len(s.attempts) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  Belum ada asesmen. Mulai Essay Grader dari dashboard!")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render(statsLine(report.Summarize(s.attempts)))))
	b.WriteString("\n\n")

	for i, a := range s.attempts {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s  %-19s  %d/%d terjawab  %s  %s",
			prefix,
			a.StartedAt.Local().Format("02 Jan 2006 15:04"),
			dashboard.StatusLabel(a.Status),
			a.Answered, a.Total,
			formatDuration(a.DurationSecs),
			scoreCell(a))

		style := lipgloss.NewStyle().Foreground(statusColor(a.Status))
		if i == s.selected {
			style = style.Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			for _, d := range s.details(a) {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(theme.TextDim).Render("    "+d)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func (s *HistoryScreen) details(a store.Attempt) []string {
	var lines []string
	if a.TargetMajor != "" {
		lines = append(lines, "Jurusan target: "+a.TargetMajor)
	}
	if a.Status == store.StatusCompleted {
		lines = append(lines, fmt.Sprintf("Skor akhir: %d (%s)", a.FinalScore, a.Readiness))
	}
	if a.HasResult() && s.openResult != nil {
		lines = append(lines, "Tekan r untuk melihat hasil analisis")
	}
	if a.Trigger == "timeout" {
		lines = append(lines, "Dikirim otomatis saat waktu habis")
	}
	if a.ReceiptID != "" {
		lines = append(lines, "Nomor referensi: "+a.ReceiptID)
	}
	if a.ErrorMessage != "" {
		lines = append(lines, "Catatan: "+a.ErrorMessage)
	}
	for _, e := range s.events[a.ID] {
		lines = append(lines, fmt.Sprintf("%s  %s", e.Timestamp.Local().Format("15:04:05"), e.Action))
	}
	if len(lines) == 0 {
		lines = append(lines, "Tidak ada detail")
	}
	return lines
}

func statsLine(st report.Stats) string {
	line := fmt.Sprintf("%d asesmen · %d selesai · %d dianalisis", st.Total, st.Completed, st.Analyzing)
	if st.Completed > 0 {
		line += fmt.Sprintf(" · rata-rata %d · tertinggi %d", st.Average, st.Highest)
	}
	return line
}

func scoreCell(a store.Attempt) string {
	if a.Status != store.StatusCompleted {
		return "   -"
	}
	return fmt.Sprintf("%4d", a.FinalScore)
}

func formatDuration(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func statusColor(s store.AttemptStatus) color.Color {
	switch s {
	case store.StatusAnalyzing:
		return theme.Secondary
	case store.StatusCompleted:
		return theme.Success
	case store.StatusFailed:
		return theme.Error
	case store.StatusUnconfirmed:
		return theme.Warning
	case store.StatusInProgress:
		return theme.Warning
	default:
		return theme.Text
	}
}
