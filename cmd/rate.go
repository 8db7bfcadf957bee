package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/history"
)

var rateCmd = &cobra.Command{
	Use:   "rate <learner> <item> <rating>",
	Short: "Record a learner's rating (1-5) of a content item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid rating %q: %w", args[2], err)
		}

		edges, rejected := history.SanitizeRatings([]history.RatingEdge{{
			LearnerID: args[0],
			ItemID:    args[1],
			Rating:    rating,
		}})
		if len(rejected) > 0 {
			return fmt.Errorf("invalid rating: %w", rejected[0].Err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Ratings().Upsert(cmd.Context(), edges...); err != nil {
			return fmt.Errorf("save rating: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rated %s %.1f for %s.\n", edges[0].ItemID, edges[0].Rating, edges[0].LearnerID)
		return nil
	},
}
