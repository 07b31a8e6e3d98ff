package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/fixer"
	"github.com/eversession/evs/internal/model"
)

func newFixCmd() *cobra.Command {
	var (
		agentFlag       string
		write           bool
		force           bool
		brokenParents   bool
		thinkingOrder   bool
		stripThinking   bool
		apiErrors       bool
		abortedOutputs  bool
	)

	cmd := &cobra.Command{
		Use:   "fix <transcript>",
		Short: "Apply targeted repairs to a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := loadSession(args[0], agentFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var summaries []string
			entries := func() []*model.ClaudeEntry {
				if ls.claude != nil {
					return ls.claude.Entries
				}
				return nil
			}()

			switch ls.agent {
			case "claude":
				if brokenParents {
					r := fixer.RepairBrokenParentUUIDs(ls.claude)
					summaries = append(summaries, r.Changes.Summary()...)
				}
				if thinkingOrder {
					newEntries, r := fixer.FixThinkingBlockOrder(ls.claude)
					entries = newEntries
					summaries = append(summaries, r.Changes.Summary()...)
				}
				if stripThinking {
					r := fixer.StripThinkingBlocks(ls.claude)
					summaries = append(summaries, r.Changes.Summary()...)
				}
				if apiErrors {
					newEntries, r := fixer.RemoveAPIErrorMessages(ls.claude)
					entries = newEntries
					summaries = append(summaries, r.Changes.Summary()...)
				}
			case "codex":
				if abortedOutputs {
					newEntries, r := fixer.InsertAbortedOutputs(ls.codex)
					ls.codex.Entries = newEntries
					summaries = append(summaries, r.Changes.Summary()...)
				}
			}

			for _, line := range summaries {
				fmt.Fprintln(out, line)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(out, "no changes")
				return nil
			}

			if !write {
				fmt.Fprintln(out, "(dry run, pass --write to apply)")
				return nil
			}

			switch ls.agent {
			case "claude":
				if err := checkNotWorseClaude(ls, entries, force); err != nil {
					return err
				}
				backup, err := writeClaude(args[0], ls.claude, entries)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s (backup: %s)\n", args[0], backup)
			case "codex":
				if err := checkNotWorseCodex(ls, ls.codex.Entries, force); err != nil {
					return err
				}
				backup, err := writeCodex(args[0], ls.codex, ls.codex.Entries)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s (backup: %s)\n", args[0], backup)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent format: claude, codex, codex-legacy (default: auto-detect)")
	cmd.Flags().BoolVar(&write, "write", false, "apply the fix in place (otherwise dry run)")
	cmd.Flags().BoolVar(&force, "force", false, "write even if the rewrite has more validator errors than the input")
	cmd.Flags().BoolVar(&brokenParents, "broken-parents", false, "relink entries with an unresolvable parentUuid to root")
	cmd.Flags().BoolVar(&thinkingOrder, "thinking-order", false, "reorder thinking blocks to come first")
	cmd.Flags().BoolVar(&stripThinking, "strip-thinking", false, "remove thinking blocks entirely")
	cmd.Flags().BoolVar(&apiErrors, "api-errors", false, "remove synthetic API-error message entries (claude)")
	cmd.Flags().BoolVar(&abortedOutputs, "aborted-outputs", false, "insert synthetic outputs for calls missing one (codex)")
	return cmd
}
