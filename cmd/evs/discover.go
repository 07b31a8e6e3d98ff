package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/discovery"
)

func newDiscoverCmd() *cobra.Command {
	var (
		agentFlag    string
		lookbackDays int
	)

	cmd := &cobra.Command{
		Use:   "discover [cwd]",
		Short: "Find candidate transcripts for a working directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd := ""
			if len(args) == 1 {
				cwd = args[0]
			} else {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolving working directory: %w", err)
				}
				cwd = wd
			}

			var candidates []discovery.Candidate
			switch agentFlag {
			case "", "claude":
				c, err := discovery.DiscoverClaude(cwd)
				if err != nil {
					return fmt.Errorf("discovering claude-code transcripts: %w", err)
				}
				candidates = append(candidates, c...)
			}
			switch agentFlag {
			case "", "codex":
				c, err := discovery.DiscoverCodex(cwd, lookbackDays)
				if err != nil {
					return fmt.Errorf("discovering codex transcripts: %w", err)
				}
				candidates = append(candidates, c...)
			}

			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "no candidates found")
				return nil
			}
			for _, c := range candidates {
				fmt.Fprintf(out, "%s\t%s\tscore=%d\tmodified=%s\n",
					c.Path, c.Agent, c.Score, c.ModTime.Format("2006-01-02T15:04:05Z07:00"))
			}
			if best, confidence, ok := discovery.Best(candidates); ok {
				fmt.Fprintf(out, "best: %s\tconfidence=%s\n", best.Path, confidence)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "restrict to claude or codex (default: both)")
	cmd.Flags().IntVar(&lookbackDays, "lookback-days", 30, "how many days of codex rollouts to scan")
	return cmd
}
