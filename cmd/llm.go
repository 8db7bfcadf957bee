package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/coach"
	"github.com/abhisek/prepcoach/internal/engine"
	"github.com/abhisek/prepcoach/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the language model used for plan summaries",
}

var llmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the configured provider and optionally send a test summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ping, _ := cmd.Flags().GetBool("ping")
		out := cmd.OutOrStdout()

		provider, err := llm.NewProvider(cmd.Context(), cfg.LLM)
		if errors.Is(err, llm.ErrDisabled) {
			fmt.Fprintln(out, "No LLM provider configured; plans are served without a summary.")
			fmt.Fprintln(out, hintStyle.Render("Set PREPCOACH_LLM_PROVIDER or llm.discover to enable one."))
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Provider:  %s\n", cfg.LLM.WithDiscovered().Provider)
		fmt.Fprintf(out, "Model:     %s\n", provider.ModelID())
		if !ping {
			return nil
		}

		sample := engine.Bundle{
			LearnerID:             "sample",
			DifficultyAdjustments: map[string]float64{"PU": cfg.Engine.DefaultDifficulty},
			Insights:              []string{engine.InsufficientDataInsight},
			GeneratedAt:           time.Now(),
		}
		start := time.Now()
		summary, err := coach.NewNarrator(provider, cfg.Coach()).Narrate(cmd.Context(), sample)
		if err != nil {
			return fmt.Errorf("test summary: %w", err)
		}
		fmt.Fprintf(out, "Latency:   %dms\n\n", time.Since(start).Milliseconds())
		fmt.Fprintln(out, cardStyle.Render(summary))
		return nil
	},
}

func init() {
	llmCheckCmd.Flags().Bool("ping", false, "Send a sample plan and print the summary")
	llmCmd.AddCommand(llmCheckCmd)
}
