package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/prodiplan/essaygrader/internal/api"
	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/logging"
	"github.com/prodiplan/essaygrader/internal/mockapi"
	"github.com/prodiplan/essaygrader/internal/selfupdate"
)

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Serve a local in-memory backend with the demo accounts",
	Long: `Serve a local in-memory backend with the demo accounts.

Point the TUI at it with --api-url, which turns demo mode off:

  prodiplan mock-api &
  prodiplan --api-url http://localhost:4001

PRODIPLAN_API_URL with a localhost address keeps demo mode on unless
PRODIPLAN_DEMO=false is also set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.MockAddr
		}
		latency, _ := cmd.Flags().GetDuration("latency")
		failSubmits, _ := cmd.Flags().GetBool("fail-submissions")
		analysis := cfg.AnalysisDelay
		if cmd.Flags().Changed("analysis-delay") {
			analysis, _ = cmd.Flags().GetDuration("analysis-delay")
		}

		// The terminal is free here, so log to stderr.
		log, closer, err := logging.Setup(cfg.LogLevel, "pretty", logging.Stderr)
		if err != nil {
			return err
		}
		defer closer.Close()

		provider, err := identity.NewDemoProvider(cfg.DemoSecret, identity.DemoUsers())
		if err != nil {
			return fmt.Errorf("demo provider: %w", err)
		}
		opts := []mockapi.Option{
			mockapi.WithLogger(log),
			mockapi.WithLatency(latency),
			mockapi.WithFailSubmissions(failSubmits),
			mockapi.WithAnalysisDelay(analysis),
		}
		if path, _ := cmd.Flags().GetString("release-manifest"); path != "" {
			rel, err := readReleaseManifest(path)
			if err != nil {
				return err
			}
			opts = append(opts, mockapi.WithRelease(rel))
		}
		server := mockapi.New(provider, opts...)

		srv := &http.Server{
			Addr:              addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Msg("mock backend listening")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}

// readReleaseManifest loads a JSON file shaped like the
// GET /v1/client/release payload.
func readReleaseManifest(path string) (*selfupdate.Release, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read release manifest: %w", err)
	}
	var d api.ReleaseData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse release manifest %s: %w", path, err)
	}
	rel := d.Release()
	if _, err := selfupdate.Evaluate(selfupdate.DevVersion, rel); err != nil {
		return nil, fmt.Errorf("release manifest %s: %w", path, err)
	}
	return rel, nil
}

func init() {
	mockAPICmd.Flags().String("release-manifest", "", "JSON release manifest served on /v1/client/release")
	mockAPICmd.Flags().String("addr", "", "Listen address (defaults to PRODIPLAN_MOCK_ADDR or :4001)")
	mockAPICmd.Flags().Duration("latency", 0, "Artificial delay added to every response")
	mockAPICmd.Flags().Bool("fail-submissions", false, "Reject every essay submission with 503")
	mockAPICmd.Flags().Duration("analysis-delay", 0, "How long results stay in analysis after a submission (defaults to PRODIPLAN_ANALYSIS_DELAY)")
}
