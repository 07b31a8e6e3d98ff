package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/validate"
)

func newValidateCmd() *cobra.Command {
	var agentFlag string

	cmd := &cobra.Command{
		Use:   "validate <transcript>",
		Short: "Check a transcript against the structural invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := loadSession(args[0], agentFlag)
			if err != nil {
				return err
			}

			var report validate.Report
			switch ls.agent {
			case "claude":
				report = validate.ValidateClaude(ls.claude)
			case "codex":
				report = validate.ValidateCodex(ls.codex)
			}

			out := cmd.OutOrStdout()
			if len(report.Issues) == 0 {
				fmt.Fprintln(out, "no issues found")
				return nil
			}
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "[%s] %s (line %d): %s\n", issue.Severity, issue.Code, issue.Location, issue.Message)
			}
			fmt.Fprintf(out, "%d issue(s), %d error(s)\n", len(report.Issues), report.ErrorCount())
			if report.ErrorCount() > 0 {
				return fmt.Errorf("validation found %d error(s)", report.ErrorCount())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent format: claude, codex, codex-legacy (default: auto-detect)")
	return cmd
}
