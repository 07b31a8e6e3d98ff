package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/runid"
	"github.com/eversession/evs/internal/runregistry"
	"github.com/eversession/evs/internal/supervisor"
)

func newSuperviseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supervise",
		Short: "Run and control a supervised agent process",
	}
	cmd.AddCommand(newSuperviseStartCmd(), newSuperviseReloadCmd(), newSuperviseShutdownCmd())
	return cmd
}

// defaultResumeArgs builds the resume_args(session_id) callback of spec.md
// §4.10 from each agent's own CLI resume convention.
func defaultResumeArgs(agent string, initialArgs []string) supervisor.ResumeArgs {
	return func(sessionID string) []string {
		if sessionID == "" {
			return initialArgs
		}
		switch agent {
		case "claude":
			return append(append([]string{}, initialArgs...), "--resume", sessionID)
		case "codex":
			return append(append([]string{}, initialArgs...), "resume", sessionID)
		default:
			return initialArgs
		}
	}
}

func newSuperviseStartCmd() *cobra.Command {
	var (
		agent      string
		controlDir string
		sessionID  string
	)

	cmd := &cobra.Command{
		Use:   "start -- <agent-command> [args...]",
		Short: "Spawn an agent process under supervision",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if controlDir == "" {
				return fmt.Errorf("--control-dir is required")
			}
			runID := runid.New()

			sup := supervisor.New(agent, controlDir, supervisor.Config{})
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolving working directory: %w", err)
			}
			if err := runregistry.Register(agent, runID, runregistry.Record{
				RunID: runID, Agent: agent, Pid: os.Getpid(), Cwd: cwd,
				StartedAt: time.Now().UTC().Format(time.RFC3339),
			}); err != nil {
				return fmt.Errorf("registering active run: %w", err)
			}
			defer runregistry.Unregister(agent, runID) //nolint:errcheck // best-effort cleanup

			return sup.Start(cmd.Context(), args[0], args[1:], sessionID, runID, defaultResumeArgs(agent, args[1:]))
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "claude", "agent name tag for this run (claude or codex)")
	cmd.Flags().StringVar(&controlDir, "control-dir", "", "directory for handshake.json and control.jsonl")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "session identifier this run starts against (if known up front)")
	return cmd
}

func newSuperviseReloadCmd() *cobra.Command {
	var (
		controlDir string
		reason     string
	)

	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Ask a running supervised run to stop, apply its pending plan, and respawn",
		RunE: func(cmd *cobra.Command, args []string) error {
			if controlDir == "" {
				return fmt.Errorf("--control-dir is required")
			}
			if err := supervisor.SendReload(controlDir, reason); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reload request sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&controlDir, "control-dir", "", "control channel directory")
	cmd.Flags().StringVar(&reason, "reason", "", "human-readable reason recorded on the control message")
	return cmd
}

func newSuperviseShutdownCmd() *cobra.Command {
	var (
		controlDir string
		graceMs    int
	)

	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Stop a running supervised run's child process",
		RunE: func(cmd *cobra.Command, args []string) error {
			if controlDir == "" {
				return fmt.Errorf("--control-dir is required")
			}
			if err := supervisor.RequestShutdown(controlDir, time.Duration(graceMs)*time.Millisecond); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "shutdown requested")
			return nil
		},
	}

	cmd.Flags().StringVar(&controlDir, "control-dir", "", "control channel directory")
	cmd.Flags().IntVar(&graceMs, "grace-ms", 5000, "grace period before SIGKILL")
	return cmd
}
