package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/ops"
)

func newCompactCmd() *cobra.Command {
	var (
		agentFlag   string
		amountStr   string
		keepLast    bool
		summaryText string
		write       bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "compact <transcript>",
		Short: "Fold the oldest messages into a single synthetic summary entry",
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
			if summaryText == "" {
				summaryText = "(conversation summary omitted)"
			}

			ls, err := loadSession(args[0], agentFlag)
			if err != nil {
				return err
			}

			now := time.Now().UTC().Format(time.RFC3339)
			switch ls.agent {
			case "claude":
				if amount.Kind == evsutil.AmountTokens || amount.Kind == evsutil.AmountPercentTokens {
					resolved := resolveClaudeMessageCount(ls.claude, amount)
					amount = evsutil.Amount{Kind: evsutil.AmountCount, Value: float64(resolved)}
				}
				result := ops.CompactClaude(ls.claude, amount, summaryText, now)
				return reportAndMaybeWrite(cmd, args[0], ls, result, write, force)
			case "codex":
				if amount.Kind == evsutil.AmountTokens || amount.Kind == evsutil.AmountPercentTokens {
					cutoff, _ := resolveCodexMessageCount(ls.codex, amount)
					amount = evsutil.Amount{Kind: evsutil.AmountCount, Value: float64(cutoff)}
				}
				result := ops.CompactCodex(ls.codex, amount, summaryText, now)
				return reportAndMaybeWriteCodex(cmd, args[0], ls, result, write, force)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent format: claude, codex, codex-legacy (default: auto-detect)")
	cmd.Flags().StringVar(&amountStr, "amount", "", `amount to compact: a count ("50"), percent ("40%"), tokens ("140k"), or percent-of-tokens ("40%t")`)
	cmd.Flags().BoolVar(&keepLast, "keep-last", false, `reinterpret --amount as "keep the last n, remove the rest" (invalid with a token amount)`)
	cmd.Flags().StringVar(&summaryText, "summary", "", "text for the synthesized summary entry")
	cmd.Flags().BoolVar(&write, "write", false, "apply the compaction in place (otherwise dry run)")
	cmd.Flags().BoolVar(&force, "force", false, "write even if the rewrite has more validator errors than the input")
	return cmd
}
