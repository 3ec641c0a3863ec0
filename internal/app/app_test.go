package app

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prodiplan/essaygrader/internal/assessment"
	"github.com/prodiplan/essaygrader/internal/config"
	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/report"
	"github.com/prodiplan/essaygrader/internal/router"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/screens/auth"
	"github.com/prodiplan/essaygrader/internal/screens/dashboard"
	"github.com/prodiplan/essaygrader/internal/screens/essay"
	"github.com/prodiplan/essaygrader/internal/screens/profile"
	"github.com/prodiplan/essaygrader/internal/screens/result"
	"github.com/prodiplan/essaygrader/internal/store"
)

type memTokens struct {
	saved *identity.Tokens
}

func (m *memTokens) Load() (*identity.Tokens, error) { return m.saved, nil }
func (m *memTokens) Save(t identity.Tokens) error   { m.saved = &t; return nil }
func (m *memTokens) Clear() error                   { m.saved = nil; return nil }

type memAttempts struct {
	byID map[string]store.Attempt
}

func (m *memAttempts) Record(_ context.Context, a *store.Attempt) error {
	m.byID[a.ID] = *a
	return nil
}
func (m *memAttempts) Get(_ context.Context, id string) (*store.Attempt, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}
func (m *memAttempts) ListByUser(context.Context, string, int) ([]store.Attempt, error) {
	return nil, nil
}

type testEnv struct {
	deps     Deps
	provider *identity.DemoProvider
	tokens   *memTokens
	attempts *memAttempts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	p, err := identity.NewDemoProvider("test-secret", identity.DemoUsers(), identity.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	env := &testEnv{
		provider: p,
		tokens:   &memTokens{},
		attempts: &memAttempts{byID: make(map[string]store.Attempt)},
	}
	env.deps = Deps{
		Config: &config.Config{
			DemoMode:             true,
			EssayDuration:        60 * time.Second,
			SubmitTimeout:        time.Second,
			ExpiredFailurePolicy: assessment.ExpiredFailureRetry,
		},
		Provider:  p,
		Tokens:    env.tokens,
		Attempts:  env.attempts,
		Questions: assessment.DefaultQuestions(),
		Submitter: assessment.SubmitterFunc(func(context.Context, *assessment.Submission) (*assessment.Receipt, error) {
			return &assessment.Receipt{ID: "r-1", Status: "analyzing"}, nil
		}),
		Log: zerolog.Nop(),
	}
	return env
}

func (e *testEnv) login(t *testing.T) *identity.Session {
	t.Helper()
	acct := identity.DemoUsers()[0]
	s, err := e.provider.Login(context.Background(), identity.LoginInput{Email: acct.User.Email, Password: acct.Password})
	require.NoError(t, err)
	return s
}

func mustEssay(t *testing.T, m AppModel) screen.Screen {
	t.Helper()
	s, err := m.screens.essay()
	require.NoError(t, err)
	return s
}

func send(m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

// runNav feeds the navigation message produced by cmd back into m.
func runNav(t *testing.T, m AppModel, cmd tea.Cmd) AppModel {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	switch msg.(type) {
	case router.PushScreenMsg, router.PopScreenMsg, router.ReplaceScreenMsg, router.ResetScreenMsg,
		screen.SignedInMsg, screen.SignedOutMsg:
	default:
		t.Fatalf("expected navigation message, got %T", msg)
	}
	m, _ = send(m, msg)
	return m
}

func TestApp_WelcomeHandsOverToAuthWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	m := newAppModel(env.deps, nil)

	_, cmd := send(m, tea.KeyPressMsg{Code: tea.KeyEnter})
	m = runNav(t, m, cmd)

	assert.IsType(t, &auth.AuthScreen{}, m.router.Active())
	assert.Equal(t, 1, m.router.Depth())
}

func TestApp_WelcomeHandsOverToDashboardWithSession(t *testing.T) {
	env := newTestEnv(t)
	m := newAppModel(env.deps, env.login(t))

	_, cmd := send(m, tea.KeyPressMsg{Code: tea.KeyEnter})
	m = runNav(t, m, cmd)

	assert.IsType(t, &dashboard.DashboardScreen{}, m.router.Active())
	assert.Equal(t, "Demo User · DEMO", m.status())
}

func TestApp_SignedInResetsToDashboard(t *testing.T) {
	env := newTestEnv(t)
	m := newAppModel(env.deps, nil)
	m.router.Push(m.screens.auth())

	m, _ = send(m, screen.SignedInMsg{Session: env.login(t)})

	assert.IsType(t, &dashboard.DashboardScreen{}, m.router.Active())
	assert.Equal(t, 1, m.router.Depth())
}

func TestApp_SignedOutResetsToAuth(t *testing.T) {
	env := newTestEnv(t)
	m := newAppModel(env.deps, env.login(t))
	m.router.Push(m.screens.dashboard())

	m, _ = send(m, screen.SignedOutMsg{})

	assert.IsType(t, &auth.AuthScreen{}, m.router.Active())
	assert.Equal(t, 1, m.router.Depth())
	assert.Empty(t, m.status())
}

func TestApp_LogoutClearsTokens(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)
	require.NoError(t, identity.Persist(env.tokens, session))
	m := newAppModel(env.deps, session)

	msg := m.screens.logout()()

	assert.IsType(t, screen.SignedOutMsg{}, msg)
	assert.Nil(t, env.tokens.saved)
	_, err := env.provider.Me(context.Background(), session.Token)
	assert.Error(t, err, "logged out token must be revoked")
}

func TestApp_EssayWithoutSessionShowsAuth(t *testing.T) {
	env := newTestEnv(t)
	m := newAppModel(env.deps, nil)

	next, err := m.screens.essay()
	require.NoError(t, err)
	assert.IsType(t, &auth.AuthScreen{}, next)
}

func TestApp_EscPopsOrIsForwarded(t *testing.T) {
	env := newTestEnv(t)
	m := newAppModel(env.deps, env.login(t))
	m.router.Push(mustEssay(t, m))

	// Intro: the app pops.
	_, cmd := send(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())

	// Answering: the screen owns Esc.
	m, _ = send(m, tea.KeyPressMsg{Code: tea.KeyEnter})
	es := m.router.Active().(*essay.EssayScreen)
	require.True(t, es.HandlesEscape())
	_, cmd = send(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		_, isPop := cmd().(router.PopScreenMsg)
		assert.False(t, isPop, "answering screen must not be popped by Esc")
	}
	assert.Equal(t, 2, m.router.Depth())
}

func TestApp_CtrlCAbandonsRunningAssessment(t *testing.T) {
	env := newTestEnv(t)
	m := newAppModel(env.deps, env.login(t))
	m.router.Push(mustEssay(t, m))
	m, _ = send(m, tea.KeyPressMsg{Code: tea.KeyEnter})
	require.Len(t, env.attempts.byID, 1)

	_, cmd := send(m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)

	for _, a := range env.attempts.byID {
		assert.Equal(t, store.StatusFailed, a.Status)
	}
}

func TestApp_FooterUsesScreenHints(t *testing.T) {
	env := newTestEnv(t)
	m := newAppModel(env.deps, env.login(t))
	m.router.Push(mustEssay(t, m))
	m, _ = send(m, tea.KeyPressMsg{Code: tea.KeyEnter})

	hints := m.footerHints(m.router.Active())
	require.NotEmpty(t, hints)
	assert.Equal(t, "Tab", hints[0].Key)
	assert.Equal(t, "Ctrl+C", hints[len(hints)-1].Key)
}

func TestApp_EssaySetupErrorStaysOnDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Questions = nil
	m := newAppModel(env.deps, env.login(t))
	m.router.Reset(m.screens.dashboard())

	_, err := m.screens.essay()
	require.ErrorIs(t, err, assessment.ErrNoQuestions)

	m, cmd := send(m, tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.IsType(t, &dashboard.DashboardScreen{}, m.router.Active())
	assert.Contains(t, m.router.View(100, 30), "tidak dapat dimulai")
}

func TestApp_ProfileUpdateReachesDashboard(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)
	m := newAppModel(env.deps, session)
	m.router.Reset(m.screens.dashboard())
	m.router.Push(m.screens.profile())
	require.IsType(t, &profile.ProfileScreen{}, m.router.Active())

	u := session.User
	u.FullName = "Rina Kartika"
	m, _ = send(m, screen.ProfileUpdatedMsg{User: u})

	assert.Equal(t, "Rina Kartika · DEMO", m.status())
	m, _ = send(m, router.PopScreenMsg{})
	assert.Contains(t, m.router.View(100, 30), "Rina!")
}

func TestApp_ResultScreenRecordsScore(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Results = report.NewLocalProvider(env.attempts)
	session := env.login(t)
	env.attempts.byID["a1"] = store.Attempt{
		ID: "a1", UserID: session.User.ID, Status: store.StatusAnalyzing,
		AnsweredIDs: []int{1, 2, 3, 4, 5}, Answered: 5, Total: 5,
		StartedAt: time.Now().Add(-time.Hour), FinishedAt: time.Now().Add(-50 * time.Minute),
	}
	m := newAppModel(env.deps, session)

	s := m.screens.result("a1")
	require.IsType(t, &result.ResultScreen{}, s)
	m.router.Push(s)
	m, _ = send(m, s.Init()())

	assert.Contains(t, m.router.View(100, 200), "82/100")
	assert.Equal(t, store.StatusCompleted, env.attempts.byID["a1"].Status)
	assert.Equal(t, 82, env.attempts.byID["a1"].FinalScore)
}
