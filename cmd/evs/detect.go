package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/detect"
)

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <transcript>",
		Short: "Classify a transcript's agent format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := detect.DetectFile(args[0])
			if err != nil {
				return fmt.Errorf("detecting format: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (confidence=%d, sampled=%d, malformed=%d)\n",
				res.Format, res.Confidence, res.SampleSize, res.Malformed)
			return nil
		},
	}
	return cmd
}
