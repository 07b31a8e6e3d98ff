package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/ops"
)

func newTrimCmd() *cobra.Command {
	var (
		agentFlag string
		amountStr string
		keepLast  bool
		write     bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "trim <transcript>",
		Short: "Drop the oldest messages from the visible chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if amountStr == "" {
				return fmt.Errorf("--amount is required")
			}
			amount, err := evsutil.ParseAmount(amountStr)
			if err != nil {
				return fmt.Errorf("parsing --amount: %w", err)
			}
			if keepLast {
				amount, err = amount.ApplyKeepLast()
				if err != nil {
					return fmt.Errorf("applying --keep-last: %w", err)
				}
			}

			ls, err := loadSession(args[0], agentFlag)
			if err != nil {
				return err
			}
			if ls.agent != "claude" {
				return fmt.Errorf("trim currently only supports claude-code transcripts")
			}

			messageCount := resolveClaudeMessageCount(ls.claude, amount)
			cutoff := ops.ResolveTrimCutoff(ls.claude, amount, messageCount)
			result := ops.TrimClaude(ls.claude, cutoff)

			return reportAndMaybeWrite(cmd, args[0], ls, result, write, force)
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent format: claude, codex, codex-legacy (default: auto-detect)")
	cmd.Flags().StringVar(&amountStr, "amount", "", `amount to trim: a count ("50"), percent ("40%"), tokens ("140k"), or percent-of-tokens ("40%t")`)
	cmd.Flags().BoolVar(&keepLast, "keep-last", false, `reinterpret --amount as "keep the last n, remove the rest" (invalid with a token amount)`)
	cmd.Flags().BoolVar(&write, "write", false, "apply the trim in place (otherwise dry run)")
	cmd.Flags().BoolVar(&force, "force", false, "write even if the rewrite has more validator errors than the input")
	return cmd
}
