package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prodiplan/essaygrader/internal/assessment"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Inspect essay question sets",
}

var questionsListCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "Print the built-in question set, or the one in file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		questions := assessment.DefaultQuestions()
		if len(args) == 1 {
			var err error
			questions, err = assessment.LoadQuestions(args[0])
			if err != nil {
				return err
			}
		}

		for _, q := range questions {
			fmt.Printf("%d. %s\n", q.ID, q.Prompt)
			if q.Tip != "" {
				fmt.Printf("   Tips: %s\n", q.Tip)
			}
		}
		fmt.Printf("\n%d questions\n", len(questions))
		return nil
	},
}

var questionsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a question set file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		questions, err := assessment.LoadQuestions(args[0])
		if err != nil {
			return err
		}
		ids := make([]string, len(questions))
		for i, q := range questions {
			ids[i] = fmt.Sprint(q.ID)
		}
		fmt.Printf("%s: %d questions OK (ids %s)\n", args[0], len(questions), strings.Join(ids, ", "))
		return nil
	},
}

func init() {
	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsValidateCmd)
}
