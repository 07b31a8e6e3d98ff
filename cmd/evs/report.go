package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/model"
	"github.com/eversession/evs/internal/ops"
	"github.com/eversession/evs/internal/validate"
)

// checkNotWorseClaude re-parses the proposed rewrite (exactly as it would be
// written to disk) and refuses the operation if doing so would strictly
// increase the validator's error count, per spec.md §2's orchestrator
// contract and §7's OperationRefused: "never rewrites a file whose
// post-rewrite validation has more errors than the input (unless
// explicitly forced)". Returns a non-nil error describing the before/after
// counts when the write should be refused.
func checkNotWorseClaude(ls *loadedSession, entries []*model.ClaudeEntry, force bool) error {
	before := validate.ValidateClaude(ls.claude).ErrorCount()
	data, err := model.MergeClaudeOutput(entries, ls.claude.Invalid)
	if err != nil {
		return fmt.Errorf("rendering proposed rewrite: %w", err)
	}
	reparsed, err := model.ParseClaudeSession(data)
	if err != nil {
		return fmt.Errorf("re-parsing proposed rewrite: %w", err)
	}
	after := validate.ValidateClaude(reparsed).ErrorCount()
	if after > before && !force {
		return fmt.Errorf("refusing to write: proposed rewrite has %d errors, up from %d (pass --force to write anyway)", after, before)
	}
	return nil
}

func checkNotWorseCodex(ls *loadedSession, entries []*model.CodexEntry, force bool) error {
	before := validate.ValidateCodex(ls.codex).ErrorCount()
	data, err := model.MergeCodexOutput(entries, ls.codex.Invalid)
	if err != nil {
		return fmt.Errorf("rendering proposed rewrite: %w", err)
	}
	reparsed, err := model.ParseCodexSession(data, ls.codex.Legacy)
	if err != nil {
		return fmt.Errorf("re-parsing proposed rewrite: %w", err)
	}
	after := validate.ValidateCodex(reparsed).ErrorCount()
	if after > before && !force {
		return fmt.Errorf("refusing to write: proposed rewrite has %d errors, up from %d (pass --force to write anyway)", after, before)
	}
	return nil
}

// reportAndMaybeWrite prints a ClaudeResult's change-set summary and, if
// write is set, persists the rewritten entries back to path. The write is
// refused (OperationRefused) if it would strictly worsen the error count,
// unless force is set.
func reportAndMaybeWrite(cmd *cobra.Command, path string, ls *loadedSession, result ops.ClaudeResult, write, force bool) error {
	out := cmd.OutOrStdout()
	summaries := result.Changes.Summary()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "no changes")
		return nil
	}
	for _, line := range summaries {
		fmt.Fprintln(out, line)
	}
	if !write {
		fmt.Fprintln(out, "(dry run, pass --write to apply)")
		return nil
	}
	if err := checkNotWorseClaude(ls, result.Entries, force); err != nil {
		return err
	}
	backup, err := writeClaude(path, ls.claude, result.Entries)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (backup: %s)\n", path, backup)
	return nil
}

// reportAndMaybeWriteCodex is the Agent-X analogue of reportAndMaybeWrite.
func reportAndMaybeWriteCodex(cmd *cobra.Command, path string, ls *loadedSession, result ops.CodexResult, write, force bool) error {
	out := cmd.OutOrStdout()
	summaries := result.Changes.Summary()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "no changes")
		return nil
	}
	for _, line := range summaries {
		fmt.Fprintln(out, line)
	}
	if !write {
		fmt.Fprintln(out, "(dry run, pass --write to apply)")
		return nil
	}
	if err := checkNotWorseCodex(ls, result.Entries, force); err != nil {
		return err
	}
	backup, err := writeCodex(path, ls.codex, result.Entries)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (backup: %s)\n", path, backup)
	return nil
}
