package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/hook"
)

func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Install or remove the agent-side notify hook",
	}
	cmd.AddCommand(newHookInstallCmd(), newHookRemoveCmd())
	return cmd
}

func newHookInstallCmd() *cobra.Command {
	var (
		settingsPath string
		command      string
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the evs notify hook into a claude-code settings.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			if settingsPath == "" || command == "" {
				return fmt.Errorf("--settings and --command are required")
			}
			if err := hook.InstallClaudeHook(settingsPath, command); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed notify hook in %s\n", settingsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&settingsPath, "settings", "", "path to claude-code settings.json")
	cmd.Flags().StringVar(&command, "command", "", "shell command the hook invokes")
	return cmd
}

func newHookRemoveCmd() *cobra.Command {
	var settingsPath string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the evs notify hook from a claude-code settings.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			if settingsPath == "" {
				return fmt.Errorf("--settings is required")
			}
			if err := hook.RemoveClaudeHook(settingsPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed notify hook from %s\n", settingsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&settingsPath, "settings", "", "path to claude-code settings.json")
	return cmd
}
