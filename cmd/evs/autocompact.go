package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/autocompact"
	"github.com/eversession/evs/internal/evspaths"
	"github.com/eversession/evs/internal/summarizer"
	"github.com/eversession/evs/internal/telemetry"
)

func newAutocompactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autocompact",
		Short: "Check a session against its token threshold and manage its pending-compact plan",
	}
	cmd.AddCommand(newAutocompactCheckCmd(), newAutocompactApplyCmd())
	return cmd
}

func newAutocompactCheckCmd() *cobra.Command {
	var (
		agentFlag    string
		sessionID    string
		threshold    int
		apiKey       string
		summaryModel string
	)

	cmd := &cobra.Command{
		Use:   "check <transcript>",
		Short: "Compute current tokens; if over threshold, enqueue a pending-compact plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf("--session-id is required")
			}
			if threshold <= 0 {
				return fmt.Errorf("--threshold-tokens must be positive")
			}
			agent, legacy, err := resolveFormat(args[0], agentFlag)
			if err != nil {
				return err
			}

			planPath, err := evspaths.PendingCompactFile(sessionID, agent)
			if err != nil {
				return fmt.Errorf("resolving pending-compact path: %w", err)
			}
			logPath, err := evspaths.SessionLogFile(sessionID)
			if err != nil {
				return fmt.Errorf("resolving session log path: %w", err)
			}

			summ := summarizer.New(summarizer.Config{APIKey: apiKey, Model: summaryModel})

			var state autocompact.State
			switch agent {
			case "claude":
				state, err = autocompact.CheckClaude(planPath, logPath, args[0], sessionID, threshold, summ.SummarizeClaude)
			case "codex":
				state, err = autocompact.CheckCodex(planPath, logPath, args[0], sessionID, legacy, threshold, summ.SummarizeCodex)
			default:
				return fmt.Errorf("unsupported agent %q", agent)
			}
			if err != nil {
				telemetry.TrackAutocompact(sessionID, agent, "failed", map[string]any{"threshold_tokens": threshold})
				return err
			}
			telemetry.TrackAutocompact(sessionID, agent, string(state), map[string]any{"threshold_tokens": threshold})
			fmt.Fprintf(cmd.OutOrStdout(), "pending-compact state: %s\n", state)
			return nil
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent format: claude, codex, codex-legacy (default: auto-detect)")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "session identifier owning the pending-compact plan")
	cmd.Flags().IntVar(&threshold, "threshold-tokens", 0, "token count that triggers a pending compaction")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Anthropic API key for the summarizer (defaults to ANTHROPIC_API_KEY)")
	cmd.Flags().StringVar(&summaryModel, "summary-model", "", "model id used to produce the summary (default: "+summarizer.DefaultModel+")")
	return cmd
}

func newAutocompactApplyCmd() *cobra.Command {
	var (
		agentFlag string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a ready, non-stale pending-compact plan to its transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf("--session-id is required")
			}
			agent := agentFlag
			if agent == "" {
				agent = "claude"
			}
			planPath, err := evspaths.PendingCompactFile(sessionID, agent)
			if err != nil {
				return fmt.Errorf("resolving pending-compact path: %w", err)
			}
			logPath, err := evspaths.SessionLogFile(sessionID)
			if err != nil {
				return fmt.Errorf("resolving session log path: %w", err)
			}

			var applied bool
			switch agent {
			case "claude":
				applied, err = autocompact.ApplyClaude(planPath, logPath)
			case "codex":
				applied, err = autocompact.ApplyCodex(planPath, logPath, false)
			default:
				return fmt.Errorf("unsupported agent %q", agent)
			}
			if err != nil {
				telemetry.TrackAutocompact(sessionID, agent, "failed", map[string]any{"stage": "apply"})
				return err
			}
			if applied {
				telemetry.TrackAutocompact(sessionID, agent, "applied", nil)
				fmt.Fprintln(cmd.OutOrStdout(), "applied pending compaction")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "no plan applied")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent format: claude or codex (default: claude)")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "session identifier owning the pending-compact plan")
	return cmd
}
