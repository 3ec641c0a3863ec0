package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		tokens, err := rt.tokens.Load()
		if err != nil || tokens == nil {
			_ = rt.tokens.Clear()
			fmt.Println("Not signed in.")
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := rt.provider.Logout(ctx, tokens.Token); err != nil {
			rt.log.Warn().Err(err).Msg("logout")
		}
		if err := rt.tokens.Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Println("Signed out.")
		return nil
	},
}
