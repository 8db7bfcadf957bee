package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/engine"
	"github.com/abhisek/prepcoach/internal/history"
)

var pathCmd = &cobra.Command{
	Use:   "path <learner>",
	Short: "List the learner's subject areas, weakest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		records, err := s.Records().ForLearner(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		records, _ = history.SanitizeRecords(records)

		path := engine.LearningPath(records)
		out := cmd.OutOrStdout()
		if len(path) == 0 {
			fmt.Fprintln(out, hintStyle.Render("No practice history yet."))
			return nil
		}
		for i, subject := range path {
			fmt.Fprintf(out, "%d. %s\n", i+1, subject)
		}
		return nil
	},
}
