package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/coach"
	"github.com/abhisek/prepcoach/internal/engine"
	"github.com/abhisek/prepcoach/internal/llm"
	"github.com/abhisek/prepcoach/internal/logging"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <learner>",
	Short: "Build the learner's study plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asJSON, _ := cmd.Flags().GetBool("json")
		engineCfg := cfg.Engine
		if cmd.Flags().Changed("count") {
			engineCfg.RecommendationCount, _ = cmd.Flags().GetInt("count")
		}
		if engineCfg.RecommendationCount < 0 {
			return fmt.Errorf("count must not be negative")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		src := s.Source()
		if cfg.Breaker.Enabled {
			src = engine.NewBreakerSource(src, "store", cfg.Breaker)
		}
		opts := []engine.Option{
			engine.WithPredictConfig(cfg.Predict),
			engine.WithCollabConfig(cfg.Collab),
		}

		provider, err := llm.NewProvider(ctx, cfg.LLM)
		switch {
		case err == nil:
			opts = append(opts, engine.WithNarrator(coach.NewNarrator(provider, cfg.Coach())))
		case errors.Is(err, llm.ErrDisabled):
		default:
			fmt.Fprintln(cmd.ErrOrStderr(), "LLM provider not configured:", err)
			fmt.Fprintln(cmd.ErrOrStderr(), "The plan will not include a summary.")
		}

		eng := engine.New(src, engineCfg, opts...)
		if err := eng.Initialize(ctx, args[0]); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("serving degraded plan")
		}
		bundle := eng.Recommendations(ctx, args[0])

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), bundle)
		}
		fmt.Fprint(cmd.OutOrStdout(), renderBundle(bundle))
		return nil
	},
}

func init() {
	recommendCmd.Flags().Bool("json", false, "Print the bundle as JSON")
	recommendCmd.Flags().Int("count", 5, "Number of content items; 0 uses engine.recommendation_count")
}
