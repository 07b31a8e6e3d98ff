package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eversession/evs/internal/evslog"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "evs",
		Short:         "Parse, validate, repair, and compact AI coding-agent transcripts",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			evslog.SetLogLevelGetter(func() slog.Level { return parseLevel(logLevel) })
			_, err := evslog.Init("")
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newDetectCmd(),
		newValidateCmd(),
		newFixCmd(),
		newRemoveCmd(),
		newTrimCmd(),
		newCleanCmd(),
		newCompactCmd(),
		newDiscoverCmd(),
		newSuperviseCmd(),
		newAutocompactCmd(),
		newHookCmd(),
	)

	return cmd
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
