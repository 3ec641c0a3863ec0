package app

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/prodiplan/essaygrader/internal/assessment"
	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/screen"
	"github.com/prodiplan/essaygrader/internal/screens/auth"
	"github.com/prodiplan/essaygrader/internal/screens/dashboard"
	"github.com/prodiplan/essaygrader/internal/screens/essay"
	"github.com/prodiplan/essaygrader/internal/screens/history"
	"github.com/prodiplan/essaygrader/internal/screens/profile"
	"github.com/prodiplan/essaygrader/internal/screens/result"
	"github.com/prodiplan/essaygrader/internal/screens/welcome"
)

// screens builds every screen from the shared dependencies and the
// current session. It is shared by all copies of AppModel.
type screens struct {
	deps    Deps
	session *identity.Session
}

func (f *screens) welcome() screen.Screen {
	return welcome.New(f.home)
}

// home is the landing screen for the current identity.
func (f *screens) home() screen.Screen {
	if f.session == nil {
		return f.auth()
	}
	return f.dashboard()
}

func (f *screens) auth() screen.Screen {
	demo := f.deps.Config != nil && f.deps.Config.DemoMode
	return auth.New(auth.Config{
		Provider: f.deps.Provider,
		Tokens:   f.deps.Tokens,
		Demo:     demo,
		Log:      f.deps.Log,
	})
}

func (f *screens) dashboard() screen.Screen {
	if f.session == nil {
		return f.auth()
	}
	cfg := dashboard.Config{
		User:        f.session.User,
		Attempts:    f.deps.Attempts,
		OpenEssay:   f.essay,
		OpenProfile: f.profile,
		Logout:      f.logout,
	}
	if f.deps.Attempts != nil {
		cfg.OpenHistory = f.history
	}
	return dashboard.New(cfg)
}

// essay starts a fresh assessment. Without an identity the student is sent
// to the login form instead. Any other setup failure is returned so the
// dashboard can report it.
func (f *screens) essay() (screen.Screen, error) {
	if f.session == nil {
		return f.auth(), nil
	}
	user := f.session.User
	opts := []assessment.Option{
		assessment.WithSubmitter(f.deps.Submitter),
		assessment.WithLogger(f.deps.Log),
	}
	if cfg := f.deps.Config; cfg != nil {
		opts = append(opts,
			assessment.WithDuration(cfg.EssaySeconds()),
			assessment.WithSubmitTimeout(cfg.SubmitTimeout),
			assessment.WithExpiredFailurePolicy(cfg.ExpiredFailurePolicy),
		)
	}

	flow, err := assessment.NewFlow(f.deps.Questions, &user, opts...)
	if errors.Is(err, assessment.ErrNoIdentity) {
		f.deps.Log.Warn().Err(err).Msg("create assessment")
		return f.auth(), nil
	}
	if err != nil {
		f.deps.Log.Error().Err(err).Msg("create assessment")
		return nil, fmt.Errorf("create assessment: %w", err)
	}

	var hist func() screen.Screen
	if f.deps.Attempts != nil {
		hist = f.history
	}
	var res func(string) screen.Screen
	if f.deps.Results != nil {
		res = f.result
	}
	return essay.New(essay.Config{
		Flow:     flow,
		Attempts: f.deps.Attempts,
		Events:   f.deps.Events,
		History:  hist,
		Result:   res,
		Log:      f.deps.Log,
	}), nil
}

func (f *screens) history() screen.Screen {
	userID := ""
	if f.session != nil {
		userID = f.session.User.ID
	}
	h := history.New(f.deps.Attempts, f.deps.Events, userID)
	if f.deps.Results != nil {
		h = h.WithResult(f.result)
	}
	return h
}

func (f *screens) result(attemptID string) screen.Screen {
	return result.New(result.Config{
		AttemptID: attemptID,
		Provider:  f.deps.Results,
		Attempts:  f.deps.Attempts,
		Log:       f.deps.Log,
	})
}

func (f *screens) profile() screen.Screen {
	if f.session == nil {
		return f.auth()
	}
	return profile.New(profile.Config{
		User:     f.session.User,
		Token:    f.session.Token,
		Provider: f.deps.Provider,
		Attempts: f.deps.Attempts,
		Log:      f.deps.Log,
	})
}

// logout revokes the session on the provider and forgets the stored tokens.
// Either step failing still signs the student out locally.
func (f *screens) logout() tea.Cmd {
	token := ""
	if f.session != nil {
		token = f.session.Token
	}
	provider, tokens, log := f.deps.Provider, f.deps.Tokens, f.deps.Log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		defer cancel()
		if err := provider.Logout(ctx, token); err != nil {
			log.Warn().Err(err).Msg("logout")
		}
		if err := tokens.Clear(); err != nil {
			log.Warn().Err(err).Msg("clear tokens")
		}
		log.Info().Msg("signed out")
		return screen.SignedOutMsg{}
	}
}
