package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prodiplan/essaygrader/internal/api"
	"github.com/prodiplan/essaygrader/internal/app"
	"github.com/prodiplan/essaygrader/internal/selfupdate"
)

// runApp builds dependencies and launches the TUI.
func runApp(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	questions, err := rt.questions()
	if err != nil {
		return err
	}

	if err := rt.checkRelease(cmd.Context()); err != nil {
		return err
	}

	rt.log.Info().Bool("demo", cfg.DemoMode).Int("questions", len(questions)).Msg("starting")
	return app.Run(cmd.Context(), app.Deps{
		Config:    cfg,
		Provider:  rt.provider,
		Tokens:    rt.tokens,
		Attempts:  rt.store.AttemptRepo(),
		Events:    rt.store.EventRepo(),
		Questions: questions,
		Submitter: rt.submitter(),
		Results:   rt.results(),
		Log:       rt.log,
	})
}

// checkRelease refuses to start a client older than the backend's minimum
// supported release, since its submissions would be rejected. Lookup
// failures only get logged.
func (rt *runtime) checkRelease(ctx context.Context) error {
	if rt.cfg.DemoMode {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	st, err := selfupdate.New(api.NewClient(rt.cfg.APIURL, api.WithLogger(rt.log))).Check(ctx, version)
	if err != nil {
		rt.log.Debug().Err(err).Msg("release check skipped")
		return nil
	}
	if st.Required {
		return fmt.Errorf("prodiplan %s is no longer supported (oldest supported %s); run: prodiplan update",
			st.Current, st.Release.MinSupported)
	}
	if st.Available {
		rt.log.Info().Str("current", st.Current).Str("latest", st.Release.Version).Msg("update available")
	}
	return nil
}
