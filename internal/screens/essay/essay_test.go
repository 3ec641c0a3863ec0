package essay

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/prodiplan/essaygrader/internal/assessment"
	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/router"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/screens/confirmation"
	"github.com/prodiplan/essaygrader/internal/store"
)

// mockAttemptRepo keeps the latest version of each recorded attempt.
type mockAttemptRepo struct {
	byID map[string]store.Attempt
}

func (m *mockAttemptRepo) Record(_ context.Context, a *store.Attempt) error {
	if m.byID == nil {
		m.byID = make(map[string]store.Attempt)
	}
	m.byID[a.ID] = *a
	return nil
}
func (m *mockAttemptRepo) Get(_ context.Context, id string) (*store.Attempt, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}
func (m *mockAttemptRepo) ListByUser(context.Context, string, int) ([]store.Attempt, error) {
	return nil, nil
}

// mockEventRepo records appended events.
type mockEventRepo struct {
	events []store.AttemptEventData
}

func (m *mockEventRepo) AppendAttemptEvent(_ context.Context, data store.AttemptEventData) error {
	m.events = append(m.events, data)
	return nil
}
func (m *mockEventRepo) AttemptEvents(context.Context, string) ([]store.AttemptEvent, error) {
	return nil, nil
}

func (m *mockEventRepo) actions() []string {
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Action
	}
	return out
}

// queuedSubmitter returns the queued errors in order, then succeeds.
type queuedSubmitter struct {
	errs  []error
	calls int
}

func (q *queuedSubmitter) Submit(_ context.Context, sub *assessment.Submission) (*assessment.Receipt, error) {
	q.calls++
	if len(q.errs) > 0 {
		err := q.errs[0]
		q.errs = q.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &assessment.Receipt{ID: "sub-" + sub.AttemptID[:8], Status: "analyzing"}, nil
}

var testQuestions = []assessment.Question{
	{ID: 1, Prompt: "Mengapa jurusan ini?", Placeholder: "Motivasi..."},
	{ID: 2, Prompt: "Kekuatan dan kelemahan?", Placeholder: "Kekuatan..."},
	{ID: 3, Prompt: "Rencana lima tahun?", Placeholder: "Rencana...", Tip: "Spesifik."},
}

type fixture struct {
	screen    *EssayScreen
	attempts  *mockAttemptRepo
	events    *mockEventRepo
	submitter *queuedSubmitter
}

func newFixture(t *testing.T, opts ...assessment.Option) *fixture {
	t.Helper()
	sub := &queuedSubmitter{}
	user := &identity.User{ID: "u1", FullName: "Budi Santoso", DreamMajor: "Teknik Informatika"}
	all := append([]assessment.Option{assessment.WithSubmitter(sub), assessment.WithDuration(600)}, opts...)
	flow, err := assessment.NewFlow(testQuestions, user, all...)
	if err != nil {
		t.Fatalf("NewFlow: %v", err)
	}
	f := &fixture{attempts: &mockAttemptRepo{}, events: &mockEventRepo{}, submitter: sub}
	f.screen = New(Config{
		Flow:     flow,
		Attempts: f.attempts,
		Events:   f.events,
		Log:      zerolog.Nop(),
	})
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	f.screen.Update(specialKey(tea.KeyEnter))
	if f.screen.flow.Step() != assessment.StepAnswering {
		t.Fatalf("expected answering after start, got %s", f.screen.flow.Step())
	}
}

func (f *fixture) answerAll() {
	for _, q := range testQuestions {
		f.screen.flow.SetAnswer(q.ID, strings.Repeat("jawaban ", 15))
	}
}

// resolve runs the pending submission and feeds the result back.
func (f *fixture) resolve(t *testing.T) tea.Cmd {
	t.Helper()
	pending := f.screen.flow.Pending()
	if pending == nil {
		t.Fatal("expected a pending submission")
	}
	_, cmd := f.screen.Update(f.screen.execute(pending)())
	return cmd
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func ctrl(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

func alt(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModAlt}
}

func TestEssayScreen_Intro(t *testing.T) {
	f := newFixture(t)
	view := f.screen.View(120, 40)
	for _, want := range []string{"3 pertanyaan esai", "10 menit", "Teknik Informatika", "Mulai Tes"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in intro", want)
		}
	}
	if f.screen.HandlesEscape() {
		t.Error("intro should let the app pop on Esc")
	}
}

func TestEssayScreen_IntroBack(t *testing.T) {
	f := newFixture(t)
	f.screen.Update(specialKey(tea.KeyLeft))
	_, cmd := f.screen.Update(specialKey(tea.KeyEnter))
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("expected Kembali to pop")
	}
	if f.screen.flow.Step() != assessment.StepIntro {
		t.Error("flow must stay in intro")
	}
}

func TestEssayScreen_StartRecordsAttempt(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	id := f.screen.flow.AttemptID()
	a, ok := f.attempts.byID[id]
	if !ok {
		t.Fatal("expected attempt recorded on start")
	}
	if a.Status != store.StatusInProgress || a.Total != 3 || a.UserID != "u1" {
		t.Errorf("unexpected attempt %+v", a)
	}
	if got := f.events.actions(); len(got) != 1 || got[0] != store.ActionStart {
		t.Errorf("expected start event, got %v", got)
	}
	if !f.screen.HandlesEscape() {
		t.Error("answering screen must capture Esc")
	}
}

func TestEssayScreen_TypingStoresAnswer(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	for _, r := range "halo" {
		f.screen.Update(keyPress(r))
	}
	if got := f.screen.flow.Answers().GetAnswer(1); got != "halo" {
		t.Errorf("expected answer %q, got %q", "halo", got)
	}
}

func TestEssayScreen_NavigationLoadsEditor(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.screen.flow.SetAnswer(2, "jawaban dua")

	f.screen.Update(specialKey(tea.KeyTab))
	if f.screen.flow.Navigator().Current() != 2 {
		t.Fatalf("expected question 2, got %d", f.screen.flow.Navigator().Current())
	}
	if f.screen.editor.Value() != "jawaban dua" {
		t.Errorf("expected editor to show stored answer, got %q", f.screen.editor.Value())
	}

	f.screen.Update(alt('3'))
	if f.screen.flow.Navigator().Current() != 3 {
		t.Errorf("expected alt+3 to jump to 3, got %d", f.screen.flow.Navigator().Current())
	}
	f.screen.Update(alt('9'))
	if f.screen.flow.Navigator().Current() != 3 {
		t.Error("out-of-range jump must be ignored")
	}

	f.screen.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if f.screen.flow.Navigator().Current() != 2 {
		t.Errorf("expected shift+tab back to 2, got %d", f.screen.flow.Navigator().Current())
	}
}

func TestEssayScreen_SubmitBlockedWhenIncomplete(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.screen.Update(alt('3'))

	_, cmd := f.screen.Update(ctrl('s'))
	if cmd != nil {
		t.Error("incomplete submit must not dispatch")
	}
	if f.screen.flow.Step() != assessment.StepAnswering {
		t.Error("flow must stay in answering")
	}
	if !strings.Contains(f.screen.notice, "0 dari 3") {
		t.Errorf("expected completion notice, got %q", f.screen.notice)
	}
}

func TestEssayScreen_SubmitNeedsLastQuestionOrReview(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.answerAll()

	f.screen.Update(ctrl('s'))
	if f.screen.flow.Step() != assessment.StepAnswering {
		t.Fatal("submit from question 1 must be disabled")
	}
	if !strings.Contains(f.screen.notice, "review") {
		t.Errorf("expected review hint, got %q", f.screen.notice)
	}
}

func TestEssayScreen_ManualSubmitSuccess(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.answerAll()
	f.screen.Update(alt('3'))

	_, cmd := f.screen.Update(ctrl('s'))
	if cmd == nil {
		t.Fatal("expected dispatch command")
	}
	if f.screen.flow.Step() != assessment.StepSubmitting {
		t.Fatalf("expected submitting, got %s", f.screen.flow.Step())
	}
	if !strings.Contains(f.screen.View(120, 40), "Mengirim jawaban") {
		t.Error("expected submitting view")
	}

	next := f.resolve(t)
	if next == nil {
		t.Fatal("expected navigation command")
	}
	replace, ok := next().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", next())
	}
	if _, ok := replace.Screen.(*confirmation.ConfirmationScreen); !ok {
		t.Errorf("expected confirmation screen, got %T", replace.Screen)
	}

	a := f.attempts.byID[f.screen.flow.AttemptID()]
	if a.Status != store.StatusAnalyzing || a.Trigger != "manual" || a.ReceiptID == "" {
		t.Errorf("unexpected attempt after success %+v", a)
	}
	want := []string{store.ActionStart, store.ActionSubmit, store.ActionConfirmed}
	if got := f.events.actions(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected events %v, got %v", want, got)
	}
}

func TestEssayScreen_ManualSubmitFailureKeepsAnswers(t *testing.T) {
	f := newFixture(t)
	f.submitter.errs = []error{errors.New("server unavailable")}
	f.start(t)
	f.answerAll()
	f.screen.Update(alt('3'))
	f.screen.Update(ctrl('s'))

	cmd := f.resolve(t)
	if cmd == nil {
		t.Fatal("expected editor focus and tick restart")
	}
	if f.screen.flow.Step() != assessment.StepAnswering {
		t.Fatalf("expected answering after failure, got %s", f.screen.flow.Step())
	}
	if !f.screen.flow.Answers().IsComplete() {
		t.Error("answers must survive a failed submit")
	}
	if !f.screen.flow.Timer().Running() {
		t.Error("countdown should resume after a manual failure")
	}
	if !strings.Contains(f.screen.notice, "server unavailable") {
		t.Errorf("expected error banner, got %q", f.screen.notice)
	}
	if got := f.events.actions(); got[len(got)-1] != store.ActionSubmitFailed {
		t.Errorf("expected submit_failed event, got %v", got)
	}
}

func TestEssayScreen_TickCountsDownAndReschedules(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	epoch, _ := f.screen.flow.TickEpoch()

	_, cmd := f.screen.Update(tickMsg{epoch: epoch})
	if cmd == nil {
		t.Error("expected next tick to be scheduled")
	}
	if got := f.screen.flow.Timer().Remaining(); got != 599 {
		t.Errorf("expected 599 remaining, got %d", got)
	}
	if !strings.Contains(f.screen.View(120, 40), "09:59") {
		t.Error("expected clock in status bar")
	}
}

func TestEssayScreen_StaleTickIgnored(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	epoch, _ := f.screen.flow.TickEpoch()

	_, cmd := f.screen.Update(tickMsg{epoch: epoch + 7})
	if cmd != nil {
		t.Error("stale tick must not reschedule")
	}
	if got := f.screen.flow.Timer().Remaining(); got != 600 {
		t.Errorf("stale tick must not count down, got %d", got)
	}
}

func TestEssayScreen_TimeoutAutoSubmitsIncomplete(t *testing.T) {
	f := newFixture(t, assessment.WithDuration(2))
	f.start(t)
	f.screen.Update(keyPress('x'))
	epoch, _ := f.screen.flow.TickEpoch()

	f.screen.Update(tickMsg{epoch: epoch})
	_, cmd := f.screen.Update(tickMsg{epoch: epoch})
	if cmd == nil {
		t.Fatal("expected auto-submit dispatch")
	}
	pending := f.screen.flow.Pending()
	if pending == nil || pending.Trigger != assessment.TriggerTimeout {
		t.Fatalf("expected timeout submission, got %+v", pending)
	}
	if pending.Answers[1] != "x" {
		t.Errorf("expected snapshot to carry partial answer, got %q", pending.Answers[1])
	}

	next := f.resolve(t)
	replace := next().(router.ReplaceScreenMsg)
	if !strings.Contains(replace.Screen.View(120, 40), "otomatis") {
		t.Error("confirmation should mention auto-submit")
	}
}

func TestEssayScreen_ExpiredFailureRetry(t *testing.T) {
	f := newFixture(t, assessment.WithDuration(1))
	f.submitter.errs = []error{errors.New("timeout")}
	f.start(t)
	epoch, _ := f.screen.flow.TickEpoch()
	f.screen.Update(tickMsg{epoch: epoch})

	f.resolve(t)
	if !f.screen.flow.CanRetry() {
		t.Fatalf("expected parked retry state, step %s", f.screen.flow.Step())
	}
	if !strings.Contains(f.screen.View(120, 40), "Coba lagi") {
		t.Error("expected retry prompt")
	}

	_, cmd := f.screen.Update(keyPress('r'))
	if cmd == nil {
		t.Fatal("expected retry dispatch")
	}
	next := f.resolve(t)
	if _, ok := next().(router.ReplaceScreenMsg); !ok {
		t.Fatal("expected confirmation after retry")
	}
	if f.submitter.calls != 2 {
		t.Errorf("expected 2 submit calls, got %d", f.submitter.calls)
	}
}

func TestEssayScreen_ReviewMode(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.screen.flow.SetAnswer(1, "jawaban pertama yang cukup panjang")

	f.screen.Update(ctrl('r'))
	if !f.screen.flow.Navigator().ReviewMode() {
		t.Fatal("expected review mode")
	}
	view := f.screen.View(120, 40)
	if !strings.Contains(view, "jawaban pertama") || !strings.Contains(view, "Lengkapi 2 pertanyaan") {
		t.Error("expected answer preview and completion hint in review")
	}

	f.screen.Update(specialKey(tea.KeyDown))
	f.screen.Update(keyPress('e'))
	if f.screen.flow.Navigator().ReviewMode() {
		t.Error("edit must leave review mode")
	}
	if f.screen.flow.Navigator().Current() != 2 {
		t.Errorf("expected question 2, got %d", f.screen.flow.Navigator().Current())
	}
}

func TestEssayScreen_SubmitFromReview(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.answerAll()

	f.screen.Update(ctrl('r'))
	_, cmd := f.screen.Update(keyPress('s'))
	if cmd == nil || f.screen.flow.Step() != assessment.StepSubmitting {
		t.Fatal("expected submit from review on question 1")
	}
}

func TestEssayScreen_CompactHidesSidebar(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	if !strings.Contains(f.screen.View(120, 40), "Daftar Soal") {
		t.Error("wide layout should show the question sidebar")
	}
	if strings.Contains(f.screen.View(90, 40), "Daftar Soal") {
		t.Error("compact layout should hide the question sidebar")
	}
}

func TestEssayScreen_QuitConfirm(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.screen.Update(specialKey(tea.KeyEscape))
	if !f.screen.confirmQuit {
		t.Fatal("expected quit confirmation")
	}
	if !strings.Contains(f.screen.View(120, 40), "Keluar dari tes?") {
		t.Error("expected confirmation dialog")
	}

	f.screen.Update(keyPress('n'))
	if f.screen.confirmQuit {
		t.Error("N should dismiss the dialog")
	}

	f.screen.Update(specialKey(tea.KeyEscape))
	_, cmd := f.screen.Update(keyPress('y'))
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("Y should pop the screen")
	}
}

func TestEssayScreen_LeaveAbandons(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	id := f.screen.flow.AttemptID()

	f.screen.Leave()
	f.screen.Leave()

	if !f.screen.flow.Abandoned() {
		t.Fatal("expected flow abandoned")
	}
	if f.screen.flow.Timer().Running() {
		t.Error("timer must stop on leave")
	}
	if a := f.attempts.byID[id]; a.Status != store.StatusFailed {
		t.Errorf("expected failed attempt, got %s", a.Status)
	}
	abandoned := 0
	for _, a := range f.events.actions() {
		if a == store.ActionAbandoned {
			abandoned++
		}
	}
	if abandoned != 1 {
		t.Errorf("expected one abandoned event, got %d", abandoned)
	}
}

func TestEssayScreen_LateResultAfterLeaveIgnored(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.answerAll()
	f.screen.Update(alt('3'))
	f.screen.Update(ctrl('s'))
	pending := f.screen.flow.Pending()

	f.screen.Leave()
	_, cmd := f.screen.Update(f.screen.execute(pending)())
	if cmd != nil {
		t.Error("result after leave must be ignored")
	}
	if f.screen.flow.Step() == assessment.StepConfirmed {
		t.Error("abandoned flow must not confirm")
	}
}

func TestEssayScreen_LeaveBeforeStartRecordsNothing(t *testing.T) {
	f := newFixture(t)
	f.screen.Leave()
	if len(f.attempts.byID) != 0 || len(f.events.events) != 0 {
		t.Error("leaving the intro must not record history")
	}
}

func TestEssayScreen_LeaveWhileSendingIsUnconfirmed(t *testing.T) {
	tests := []struct {
		name    string
		send    func(f *fixture)
		status  store.AttemptStatus
		reason  string
		trigger string
	}{
		{
			name: "manual submission on the wire",
			send: func(f *fixture) {
				f.answerAll()
				f.screen.Update(alt('3'))
				f.screen.Update(ctrl('s'))
			},
			status:  store.StatusUnconfirmed,
			reason:  leftWhileSending,
			trigger: "manual",
		},
		{
			name:    "nothing sent",
			send:    func(*fixture) {},
			status:  store.StatusFailed,
			reason:  "dibatalkan",
			trigger: "manual",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.start(t)
			tt.send(f)
			id := f.screen.flow.AttemptID()

			f.screen.Leave()

			a := f.attempts.byID[id]
			if a.Status != tt.status || a.ErrorMessage != tt.reason || a.Trigger != tt.trigger {
				t.Errorf("got status=%s reason=%q trigger=%q", a.Status, a.ErrorMessage, a.Trigger)
			}
			last := f.events.events[len(f.events.events)-1]
			if last.Action != store.ActionAbandoned || last.Message != tt.reason {
				t.Errorf("unexpected last event %+v", last)
			}
		})
	}
}

func TestEssayScreen_ConfirmationLinksResult(t *testing.T) {
	f := newFixture(t)
	var opened string
	f.screen.cfg.Result = func(id string) screen.Screen {
		opened = id
		return confirmation.New(confirmation.Summary{}, nil, nil)
	}
	f.start(t)
	f.answerAll()
	f.screen.Update(alt('3'))
	f.screen.Update(ctrl('s'))

	replace, ok := f.resolve(t)().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected ReplaceScreenMsg")
	}
	conf := replace.Screen.(*confirmation.ConfirmationScreen)
	if !strings.Contains(conf.View(120, 40), "Lihat Hasil") {
		t.Fatal("expected result button on confirmation")
	}
	_, cmd := conf.Update(specialKey(tea.KeyEnter))
	cmd()
	if opened != f.screen.flow.AttemptID() {
		t.Errorf("expected result for %s, got %q", f.screen.flow.AttemptID(), opened)
	}
}
