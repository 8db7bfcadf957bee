package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/history"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load practice history or ratings from a JSON file",
}

var importRecordsCmd = &cobra.Command{
	Use:   "records <file.json>",
	Short: "Import performance records (a JSON array)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in []history.PerformanceRecord
		if err := decodeFile(args[0], &in); err != nil {
			return err
		}
		records, rejected := history.SanitizeRecords(in)
		reportRejected(cmd.ErrOrStderr(), rejected)

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Records().Append(cmd.Context(), records...); err != nil {
			return fmt.Errorf("save records: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d record(s), skipped %d.\n", len(records), len(rejected))
		return nil
	},
}

var importRatingsCmd = &cobra.Command{
	Use:   "ratings <file.json>",
	Short: "Import content ratings (a JSON array); later rows replace earlier ones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in []history.RatingEdge
		if err := decodeFile(args[0], &in); err != nil {
			return err
		}
		edges, rejected := history.SanitizeRatings(in)
		reportRejected(cmd.ErrOrStderr(), rejected)

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Ratings().Upsert(cmd.Context(), edges...); err != nil {
			return fmt.Errorf("save ratings: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rating(s), skipped %d.\n", len(edges), len(rejected))
		return nil
	},
}

func init() {
	importCmd.AddCommand(importRecordsCmd)
	importCmd.AddCommand(importRatingsCmd)
}

func decodeFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func reportRejected(w io.Writer, rejected []history.Rejected) {
	for _, r := range rejected {
		fmt.Fprintf(w, "skipping row %d: %v\n", r.Index, r.Err)
	}
}
