package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/prodiplan/essaygrader/internal/api"
	"github.com/prodiplan/essaygrader/internal/selfupdate"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Install the client release the backend advertises",
	Long: "Fetch the release manifest from PRODIPLAN_API_URL (GET /v1/client/release), " +
		"download the build for this platform, verify its SHA-256 and replace the running binary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.APIURL == "" {
			return errors.New("no backend configured: set PRODIPLAN_API_URL or pass --api-url")
		}
		checkOnly, _ := cmd.Flags().GetBool("check")

		updater := selfupdate.New(api.NewClient(cfg.APIURL))
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		if checkOnly {
			st, err := updater.Check(ctx, version)
			if err != nil {
				return fmt.Errorf("check for updates: %w", err)
			}
			printStatus(st)
			return nil
		}

		_, err = updater.Install(ctx, version, func(p selfupdate.Progress) {
			fmt.Println(p.Message)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, selfupdate.ErrDevBuild):
			fmt.Println("Cannot update a development build. Install a release build first.")
			return nil
		case errors.Is(err, selfupdate.ErrUpToDate):
			fmt.Printf("prodiplan %s is up to date.\n", version)
			return nil
		case errors.Is(err, os.ErrPermission):
			return fmt.Errorf("%w\n\nTry running: sudo prodiplan update", err)
		}
		return err
	},
}

func printStatus(st *selfupdate.Status) {
	switch {
	case st.Required:
		fmt.Printf("prodiplan %s is required (running %s, oldest supported %s). Run: prodiplan update\n",
			st.Release.Version, st.Current, st.Release.MinSupported)
	case st.Available:
		fmt.Printf("prodiplan %s is available (running %s).\n", st.Release.Version, st.Current)
	default:
		fmt.Printf("prodiplan %s is up to date.\n", st.Current)
	}
	if st.Release.NotesURL != "" && st.Available {
		fmt.Println(st.Release.NotesURL)
	}
}

func init() {
	updateCmd.Flags().Bool("check", false, "Only report whether a newer release exists")
}
