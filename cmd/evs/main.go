// Command evs is the command-line front end over the transcript engine in
// internal/: detect a transcript's format, validate it against the
// structural invariants, repair or restructure it, discover candidate
// transcripts for a working directory, and supervise a running agent
// process. The engine packages are the product; this command only wires
// them to a terminal the way entirecli's cmd/entire/cli wires its own
// session/settings/strategy packages to cobra.
package main

import (
	"fmt"
	"os"

	"github.com/eversession/evs/internal/telemetry"
)

func main() {
	defer telemetry.Close()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
