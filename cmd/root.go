package cmd

import (
	"github.com/spf13/cobra"

	"github.com/prodiplan/essaygrader/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "prodiplan",
	Short: "Essay assessment for choosing a university major",
	Long:  "Prodiplan: a timed essay assessment in the terminal. Answers are sent for analysis toward your dream major.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PRODIPLAN_DB)")
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL (overrides PRODIPLAN_API_URL and turns demo mode off)")
	rootCmd.PersistentFlags().Bool("demo", false, "Use the built-in demo accounts and a simulated submitter")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(mockAPICmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment, then applies persistent flags that
// were set explicitly. Flags win over PRODIPLAN_* variables. An explicit
// --api-url always talks to that backend unless --demo is also given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if p, _ := flags.GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if u, _ := flags.GetString("api-url"); u != "" {
		cfg.UseAPIURL(u)
	}
	if flags.Changed("demo") {
		cfg.DemoMode, _ = flags.GetBool("demo")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
