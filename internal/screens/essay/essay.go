package essay

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/prodiplan/essaygrader/internal/assessment"
	"github.com/prodiplan/essaygrader/internal/router"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/screens/confirmation"
	"github.com/prodiplan/essaygrader/internal/store"
	"github.com/prodiplan/essaygrader/internal/ui/components"
	"github.com/prodiplan/essaygrader/internal/ui/layout"
)

const dotsInterval = 400 * time.Millisecond

// leftWhileSending is recorded when the student leaves before the backend
// answered.
const leftWhileSending = "ditinggalkan saat mengirim"

// Config holds the screen's collaborators. Attempts and Events may be nil
// to run without local history. History and Result feed the confirmation
// screen's links.
type Config struct {
	Flow     *assessment.Flow
	Attempts store.AttemptRepo
	Events   store.EventRepo
	History  func() screen.Screen
	Result   func(attemptID string) screen.Screen
	Log      zerolog.Logger
}

// EssayScreen drives one timed essay assessment: intro, answering with an
// optional review list, and the submitting state.
type EssayScreen struct {
	cfg  Config
	flow *assessment.Flow
	log  zerolog.Logger

	editor       components.TextArea
	intro        components.ButtonRow
	reviewCursor int
	confirmQuit  bool
	dots         int
	notice       string
	left         bool
}

var _ screen.Screen = (*EssayScreen)(nil)
var _ screen.KeyHintProvider = (*EssayScreen)(nil)
var _ screen.EscapeHandler = (*EssayScreen)(nil)
var _ screen.Leaver = (*EssayScreen)(nil)

// New creates the screen in the flow's intro step.
func New(cfg Config) *EssayScreen {
	s := &EssayScreen{
		cfg:  cfg,
		flow: cfg.Flow,
		log:  cfg.Log.With().Str("component", "essay_screen").Logger(),
	}
	first := s.flow.CurrentQuestion()
	s.editor = components.NewTextArea(first.Placeholder, 60, 8)
	s.editor.Model.Blur()
	s.intro = components.NewButtonRow(1,
		components.Button{Label: "Kembali", OnPress: func() tea.Cmd {
			return func() tea.Msg { return router.PopScreenMsg{} }
		}},
		components.Button{Label: "Mulai Tes", OnPress: s.start},
	)
	return s
}

func (s *EssayScreen) Init() tea.Cmd {
	return nil
}

func (s *EssayScreen) Title() string {
	return "Essay Grader"
}

// HandlesEscape keeps Esc inside the screen once the countdown started, so
// leaving always goes through the quit confirmation.
func (s *EssayScreen) HandlesEscape() bool {
	switch s.flow.Step() {
	case assessment.StepAnswering, assessment.StepSubmitting:
		return !s.flow.Abandoned()
	}
	return false
}

func (s *EssayScreen) KeyHints() []layout.KeyHint {
	if s.confirmQuit {
		return []layout.KeyHint{
			{Key: "Y", Description: "Keluar"},
			{Key: "N", Description: "Lanjutkan"},
		}
	}
	switch s.flow.Step() {
	case assessment.StepIntro:
		return []layout.KeyHint{
			{Key: "←→", Description: "Choose"},
			{Key: "Enter", Description: "Select"},
			{Key: "Esc", Description: "Back"},
		}
	case assessment.StepAnswering:
		if s.flow.Navigator().ReviewMode() {
			return []layout.KeyHint{
				{Key: "↑↓", Description: "Pilih"},
				{Key: "E", Description: "Edit"},
				{Key: "S", Description: "Kirim"},
				{Key: "Ctrl+R", Description: "Tutup review"},
			}
		}
		return []layout.KeyHint{
			{Key: "Tab", Description: "Berikutnya"},
			{Key: "Shift+Tab", Description: "Sebelumnya"},
			{Key: "Alt+1-9", Description: "Lompat"},
			{Key: "Ctrl+R", Description: "Review"},
			{Key: "Ctrl+S", Description: "Kirim"},
			{Key: "Esc", Description: "Keluar"},
		}
	case assessment.StepSubmitting:
		if s.flow.CanRetry() {
			return []layout.KeyHint{
				{Key: "R", Description: "Coba lagi"},
				{Key: "Esc", Description: "Keluar"},
			}
		}
	}
	return nil
}

func (s *EssayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return s.handleTick(msg)

	case submitResultMsg:
		return s.handleResult(msg)

	case dotsTickMsg:
		if s.flow.Step() == assessment.StepSubmitting && s.flow.InFlight() {
			s.dots = (s.dots + 1) % 4
			return s, dotsTick()
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.editing() {
		return s, s.edit(msg)
	}
	return s, nil
}

// editing reports whether input should reach the answer editor.
func (s *EssayScreen) editing() bool {
	return s.flow.Step() == assessment.StepAnswering &&
		!s.flow.Abandoned() &&
		!s.flow.Navigator().ReviewMode() &&
		!s.confirmQuit
}

// edit forwards msg to the editor and stores the result as the current answer.
func (s *EssayScreen) edit(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.editor, cmd = s.editor.Update(msg)
	s.flow.SetAnswer(s.flow.Navigator().Current(), s.editor.Value())
	return cmd
}

// loadEditor shows the current question's stored answer.
func (s *EssayScreen) loadEditor() tea.Cmd {
	q := s.flow.CurrentQuestion()
	s.editor.Load(s.flow.Answers().GetAnswer(q.ID), q.Placeholder)
	return s.editor.Model.Focus()
}

func (s *EssayScreen) start() tea.Cmd {
	epoch, err := s.flow.Start()
	if err != nil {
		s.notice = err.Error()
		return nil
	}
	s.notice = ""
	s.recordAttempt(store.StatusInProgress, assessment.TriggerManual, "")
	s.appendEvent(store.ActionStart, "", "")
	return tea.Batch(tickCmd(epoch), s.loadEditor())
}

func (s *EssayScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	switch s.flow.Step() {
	case assessment.StepIntro:
		var cmd tea.Cmd
		s.intro, cmd = s.intro.Update(msg)
		return s, cmd

	case assessment.StepAnswering:
		if s.flow.Navigator().ReviewMode() {
			return s.handleReviewKey(key)
		}
		return s.handleAnswerKey(msg, key)

	case assessment.StepSubmitting:
		switch key {
		case "r", "R":
			if sub, ok := s.flow.Retry(); ok {
				return s, s.dispatch(sub)
			}
		case "esc":
			s.confirmQuit = true
		}
	}
	return s, nil
}

func (s *EssayScreen) handleAnswerKey(msg tea.KeyMsg, key string) (screen.Screen, tea.Cmd) {
	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "tab":
		if s.flow.Next() {
			return s, s.loadEditor()
		}
		return s, nil
	case "shift+tab":
		if s.flow.Previous() {
			return s, s.loadEditor()
		}
		return s, nil
	case "ctrl+r":
		s.flow.ToggleReview()
		s.reviewCursor = s.flow.Navigator().Current() - 1
		s.editor.Model.Blur()
		return s, nil
	case "ctrl+s":
		return s, s.submit()
	}

	if id, ok := altDigit(key); ok {
		if err := s.flow.JumpTo(id); err == nil {
			return s, s.loadEditor()
		}
		return s, nil
	}

	return s, s.edit(msg)
}

func (s *EssayScreen) handleReviewKey(key string) (screen.Screen, tea.Cmd) {
	switch key {
	case "up", "k":
		if s.reviewCursor > 0 {
			s.reviewCursor--
		}
	case "down", "j":
		if s.reviewCursor < len(s.flow.Questions())-1 {
			s.reviewCursor++
		}
	case "e", "enter":
		if err := s.flow.EditFromReview(s.reviewCursor + 1); err == nil {
			return s, s.loadEditor()
		}
	case "s", "ctrl+s":
		return s, s.submit()
	case "ctrl+r", "esc":
		s.flow.ToggleReview()
		return s, s.loadEditor()
	}
	return s, nil
}

// altDigit parses "alt+N" jump keys.
func altDigit(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "alt+")
	if !ok || len(rest) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// submit is the manual path. A disabled submit explains what is missing.
func (s *EssayScreen) submit() tea.Cmd {
	sub, ok := s.flow.RequestSubmit()
	if !ok {
		s.notice = s.submitBlockedReason()
		return nil
	}
	return s.dispatch(sub)
}

func (s *EssayScreen) submitBlockedReason() string {
	answers := s.flow.Answers()
	if !answers.IsComplete() {
		return fmt.Sprintf("Jawab semua pertanyaan sebelum mengirim (%d dari %d terjawab).",
			answers.CompletionCount(), answers.Total())
	}
	return "Buka pertanyaan terakhir atau mode review (Ctrl+R) untuk mengirim."
}

func (s *EssayScreen) dispatch(sub *assessment.Submission) tea.Cmd {
	s.notice = ""
	s.dots = 0
	s.editor.Model.Blur()
	s.appendEvent(store.ActionSubmit, sub.Trigger.String(), "")
	return tea.Batch(s.execute(sub), dotsTick())
}

// execute runs the submitter off the update loop.
func (s *EssayScreen) execute(sub *assessment.Submission) tea.Cmd {
	flow := s.flow
	return func() tea.Msg {
		receipt, err := flow.Execute(context.Background(), sub)
		return submitResultMsg{sub: sub, receipt: receipt, err: err}
	}
}

func (s *EssayScreen) handleTick(msg tickMsg) (screen.Screen, tea.Cmd) {
	if sub, fired := s.flow.Tick(msg.epoch); fired {
		s.confirmQuit = false
		return s, s.dispatch(sub)
	}
	if epoch, ok := s.flow.TickEpoch(); ok && epoch == msg.epoch {
		return s, tickCmd(epoch)
	}
	return s, nil
}

func (s *EssayScreen) handleResult(msg submitResultMsg) (screen.Screen, tea.Cmd) {
	if s.flow.Abandoned() {
		return s, nil
	}
	if err := s.flow.Complete(msg.sub, msg.receipt, msg.err); err != nil {
		s.log.Debug().Err(err).Msg("dropping submission result")
		return s, nil
	}

	switch s.flow.Step() {
	case assessment.StepConfirmed:
		s.recordAttempt(store.StatusAnalyzing, msg.sub.Trigger, "")
		s.appendEvent(store.ActionConfirmed, msg.sub.Trigger.String(), "")
		next := confirmation.New(s.summary(msg.sub), s.cfg.History, s.cfg.Result)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }

	case assessment.StepAnswering:
		s.appendEvent(store.ActionSubmitFailed, msg.sub.Trigger.String(), msg.err.Error())
		s.notice = "Gagal mengirim jawaban: " + msg.err.Error() + ". Jawaban kamu masih tersimpan."
		cmds := []tea.Cmd{s.loadEditor()}
		if epoch, ok := s.flow.TickEpoch(); ok {
			cmds = append(cmds, tickCmd(epoch))
		}
		return s, tea.Batch(cmds...)

	default:
		s.appendEvent(store.ActionSubmitFailed, msg.sub.Trigger.String(), msg.err.Error())
		s.notice = "Gagal mengirim jawaban: " + msg.err.Error() + "."
		return s, nil
	}
}

func (s *EssayScreen) summary(sub *assessment.Submission) confirmation.Summary {
	sum := confirmation.Summary{
		AttemptID:   s.flow.AttemptID(),
		TargetMajor: sub.TargetMajor,
		Answered:    s.flow.Answers().CompletionCount(),
		Total:       s.flow.Answers().Total(),
		AutoSubmit:  sub.Trigger == assessment.TriggerTimeout,
		Elapsed:     s.flow.Elapsed(),
	}
	if r := s.flow.Receipt(); r != nil {
		sum.ReceiptID = r.ID
	}
	return sum
}

// Leave abandons an unfinished assessment when the router drops the screen.
func (s *EssayScreen) Leave() tea.Cmd {
	if s.left {
		return nil
	}
	s.left = true

	step := s.flow.Step()
	if step == assessment.StepIntro || step == assessment.StepConfirmed || s.flow.Abandoned() {
		return nil
	}
	// A submission already on the wire may still reach the backend, so the
	// attempt is neither failed nor confirmed.
	inFlight, pending := s.flow.InFlight(), s.flow.Pending()
	s.flow.Abandon()

	status, reason := store.StatusFailed, "dibatalkan"
	switch {
	case inFlight:
		status, reason = store.StatusUnconfirmed, leftWhileSending
	case s.flow.LastError() != nil:
		reason = s.flow.LastError().Error()
	}
	trigger := assessment.TriggerManual
	if s.flow.Timer().Expired() {
		trigger = assessment.TriggerTimeout
	}
	if inFlight && pending != nil {
		trigger = pending.Trigger
	}
	s.recordAttempt(status, trigger, reason)
	s.appendEvent(store.ActionAbandoned, "", reason)
	s.log.Info().Str("attempt_id", s.flow.AttemptID()).Stringer("step", step).Msg("assessment abandoned")
	return nil
}

func tickCmd(epoch uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{epoch: epoch}
	})
}

func dotsTick() tea.Cmd {
	return tea.Tick(dotsInterval, func(time.Time) tea.Msg {
		return dotsTickMsg{}
	})
}
