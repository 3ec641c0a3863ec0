package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/report"
	"github.com/prodiplan/essaygrader/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded assessment attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		userID, _ := cmd.Flags().GetString("user")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		if userID == "" {
			session, err := identity.Resolve(ctx, rt.provider, rt.tokens)
			if err != nil {
				return fmt.Errorf("restore session: %w", err)
			}
			if session == nil {
				return errors.New("not signed in: run prodiplan to log in, or pass --user")
			}
			userID = session.User.ID
		}

		attempts, err := rt.store.AttemptRepo().ListByUser(ctx, userID, limit)
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}
		if len(attempts) == 0 {
			fmt.Println("No assessments recorded.")
			return nil
		}

		// Header.
		fmt.Printf("%-4s  %-19s  %-12s  %-8s  %-8s  %-7s  %-5s  %-15s  %-24s  %s\n",
			"#", "Started", "Status", "Trigger", "Answered", "Time", "Score", "Readiness", "Target major", "Receipt")
		fmt.Println(strings.Repeat("─", 134))

		for _, a := range attempts {
			major := a.TargetMajor
			if major == "" {
				major = "-"
			}
			if len(major) > 24 {
				major = major[:21] + "..."
			}
			receipt := a.ReceiptID
			if receipt == "" {
				receipt = "-"
			}
			score := "-"
			if a.Status == store.StatusCompleted {
				score = fmt.Sprint(a.FinalScore)
			}
			fmt.Printf("%-4d  %-19s  %-12s  %-8s  %-8s  %-7s  %-5s  %-15s  %-24s  %s\n",
				a.Seq,
				a.StartedAt.Local().Format("2006-01-02 15:04:05"),
				a.Status,
				orDash(a.Trigger),
				fmt.Sprintf("%d/%d", a.Answered, a.Total),
				formatSeconds(a.DurationSecs),
				score,
				orDash(a.Readiness),
				major,
				receipt,
			)
			if (a.Status == store.StatusFailed || a.Status == store.StatusUnconfirmed) && a.ErrorMessage != "" {
				fmt.Printf("      %s\n", a.ErrorMessage)
			}
		}

		st := report.Summarize(attempts)
		fmt.Printf("\n%d attempts, %d completed", st.Total, st.Completed)
		if st.Completed > 0 {
			fmt.Printf(", average score %d, best %d", st.Average, st.Highest)
		}
		fmt.Println()
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatSeconds(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of attempts to show (0 for all)")
	historyCmd.Flags().String("user", "", "User ID to list (defaults to the signed-in user)")
}
