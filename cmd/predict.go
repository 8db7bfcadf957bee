package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/history"
	"github.com/abhisek/prepcoach/internal/predict"
)

var predictCmd = &cobra.Command{
	Use:   "predict <learner> <subject>",
	Short: "Predict a learner's accuracy in one subject area",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		difficulty, _ := cmd.Flags().GetFloat64("difficulty")
		if !cmd.Flags().Changed("difficulty") {
			difficulty = cfg.Engine.DefaultDifficulty
		}
		if difficulty < history.MinDifficulty || difficulty > history.MaxDifficulty {
			return fmt.Errorf("difficulty %.1f out of range [%.0f, %.0f]", difficulty, history.MinDifficulty, history.MaxDifficulty)
		}
		asJSON, _ := cmd.Flags().GetBool("json")

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

		p := predict.New(cfg.Predict)
		p.Train(records)
		pred := p.Predict(args[0], args[1], difficulty)

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), pred)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderPrediction(pred))
		return nil
	},
}

func init() {
	predictCmd.Flags().Float64("difficulty", 3, "Target difficulty (1-5); defaults to engine.default_difficulty")
	predictCmd.Flags().Bool("json", false, "Print the prediction as JSON")
}
