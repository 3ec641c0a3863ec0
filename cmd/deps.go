package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/prodiplan/essaygrader/internal/api"
	"github.com/prodiplan/essaygrader/internal/assessment"
	"github.com/prodiplan/essaygrader/internal/config"
	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/logging"
	"github.com/prodiplan/essaygrader/internal/report"
	"github.com/prodiplan/essaygrader/internal/store"
)

// runtime is the wiring shared by the TUI and the non-interactive commands.
type runtime struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    *store.Store
	tokens   *identity.TokenFile
	provider identity.Provider
	closers  []io.Closer
}

// newRuntime sets up logging, opens the history database and picks the
// identity provider for the configured mode.
func newRuntime(cfg *config.Config) (*runtime, error) {
	log, logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	rt := &runtime{cfg: cfg, log: log, closers: []io.Closer{logCloser}}

	if err := store.EnsureDir(cfg.DBPath); err != nil {
		rt.Close()
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt.store = st
	rt.closers = append(rt.closers, st)

	rt.tokens = identity.NewTokenFile(cfg.TokenPath)
	rt.provider, err = newProvider(cfg, log)
	if err != nil {
		rt.Close()
		return nil, err
	}

	log.Debug().
		Bool("demo", cfg.DemoMode).
		Str("api_url", cfg.APIURL).
		Str("db", cfg.DBPath).
		Msg("runtime ready")
	return rt, nil
}

func newProvider(cfg *config.Config, log zerolog.Logger) (identity.Provider, error) {
	if cfg.DemoMode {
		p, err := identity.NewDemoProvider(cfg.DemoSecret, identity.DemoUsers())
		if err != nil {
			return nil, fmt.Errorf("demo provider: %w", err)
		}
		return p, nil
	}
	return api.NewAuthProvider(api.NewClient(cfg.APIURL, api.WithLogger(log))), nil
}

// submitter sends answers to the backend, or simulates acceptance in demo
// mode.
func (rt *runtime) submitter() assessment.Submitter {
	if rt.cfg.DemoMode {
		return &api.SimulatedSubmitter{Delay: rt.cfg.SimulatedDelay}
	}
	client := api.NewClient(rt.cfg.APIURL, api.WithLogger(rt.log))
	return api.NewSubmitter(client, rt.accessToken)
}

// results fetches analysis reports from the backend, or builds them from
// local history in demo mode.
func (rt *runtime) results() report.Provider {
	if rt.cfg.DemoMode {
		return report.NewLocalProvider(rt.store.AttemptRepo(), report.WithAnalysisDelay(rt.cfg.AnalysisDelay))
	}
	client := api.NewClient(rt.cfg.APIURL, api.WithLogger(rt.log))
	return api.NewResultProvider(client, rt.accessToken)
}

// accessToken reads the token file on every call so a refreshed token is
// picked up.
func (rt *runtime) accessToken() string {
	t, err := rt.tokens.Load()
	if err != nil || t == nil {
		return ""
	}
	return t.Token
}

// questions returns the configured question set, or the built-in one.
func (rt *runtime) questions() ([]assessment.Question, error) {
	if rt.cfg.QuestionsFile == "" {
		return assessment.DefaultQuestions(), nil
	}
	qs, err := assessment.LoadQuestions(rt.cfg.QuestionsFile)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return qs, nil
}

// Close releases everything in reverse order of acquisition.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
