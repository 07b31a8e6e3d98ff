package main

import (
	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/ops"
)

func newCleanCmd() *cobra.Command {
	var (
		agentFlag string
		write     bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "clean <transcript>",
		Short: "Remove entries the validator flags as structurally unsound",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := loadSession(args[0], agentFlag)
			if err != nil {
				return err
			}

			switch ls.agent {
			case "claude":
				result := ops.CleanClaude(ls.claude)
				return reportAndMaybeWrite(cmd, args[0], ls, result, write, force)
			case "codex":
				result := ops.CleanCodex(ls.codex)
				return reportAndMaybeWriteCodex(cmd, args[0], ls, result, write, force)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent format: claude, codex, codex-legacy (default: auto-detect)")
	cmd.Flags().BoolVar(&write, "write", false, "apply the cleanup in place (otherwise dry run)")
	cmd.Flags().BoolVar(&force, "force", false, "write even if the rewrite has more validator errors than the input")
	return cmd
}
