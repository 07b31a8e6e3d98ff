package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/ops"
)

func newRemoveCmd() *cobra.Command {
	var (
		agentFlag string
		linesStr  string
		write     bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "remove <transcript>",
		Short: "Delete specific lines, expanding to keep tool pairs intact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := parseLineList(linesStr)
			if err != nil {
				return err
			}

			ls, err := loadSession(args[0], agentFlag)
			if err != nil {
				return err
			}

			initial := make(map[int]string, len(lines))
			for _, l := range lines {
				initial[l] = "explicitly requested for removal"
			}

			switch ls.agent {
			case "claude":
				result := ops.RemoveClaude(ls.claude, initial)
				return reportAndMaybeWrite(cmd, args[0], ls, result, write, force)
			case "codex":
				result := ops.RemoveCodex(ls.codex, initial)
				return reportAndMaybeWriteCodex(cmd, args[0], ls, result, write, force)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent format: claude, codex, codex-legacy (default: auto-detect)")
	cmd.Flags().StringVar(&linesStr, "lines", "", "comma-separated line numbers to remove")
	cmd.Flags().BoolVar(&write, "write", false, "apply the removal in place (otherwise dry run)")
	cmd.Flags().BoolVar(&force, "force", false, "write even if the rewrite has more validator errors than the input")
	return cmd
}

func parseLineList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("--lines is required")
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parsing line number %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
