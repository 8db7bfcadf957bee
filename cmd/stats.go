package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/features"
	"github.com/abhisek/prepcoach/internal/history"
)

var statsCmd = &cobra.Command{
	Use:   "stats <learner>",
	Short: "Show per-subject practice statistics",
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

		out := cmd.OutOrStdout()
		subjects := history.Subjects(records)
		if len(subjects) == 0 {
			fmt.Fprintln(out, hintStyle.Render("No practice history yet."))
			return nil
		}

		fmt.Fprintf(out, "%-6s  %8s  %8s  %11s  %10s  %7s\n",
			"Area", "Sessions", "Accuracy", "Consistency", "Trend", "Avg sec")
		for _, subject := range subjects {
			v := features.Extract(records, args[0], subject)
			acc := accuracyStyle(v.AvgAccuracy).Render(fmt.Sprintf("%7.1f%%", v.AvgAccuracy))
			fmt.Fprintf(out, "%-6s  %8d  %s  %11.2f  %+9.1f%%  %7.0f\n",
				subject, v.Samples, acc, v.Consistency, v.ImprovementRate*100, v.AvgTimeSpent)
		}
		return nil
	},
}
