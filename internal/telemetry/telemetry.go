// Package telemetry emits best-effort usage events around auto-compact
// decisions: how often sessions cross threshold, how often a plan applies
// cleanly versus gets refused. It is deliberately inert by default — no
// event leaves the machine unless EVERSESSION_POSTHOG_API_KEY is set — and
// every call is fire-and-forget: a dead network or misconfigured key must
// never affect whether a compaction is decided or applied.
package telemetry

import (
	"os"
	"sync"

	"github.com/posthog/posthog-go"
)

const apiKeyEnvVar = "EVERSESSION_POSTHOG_API_KEY"

var (
	mu     sync.Mutex
	client posthog.Client
	inited bool
)

// enabled lazily constructs the posthog client the first time an event is
// tracked, so a process that never triggers auto-compact never pays for
// one. Returns nil when telemetry is not configured.
func enabled() posthog.Client {
	mu.Lock()
	defer mu.Unlock()
	if inited {
		return client
	}
	inited = true
	key := os.Getenv(apiKeyEnvVar)
	if key == "" {
		return nil
	}
	c, err := posthog.New(key)
	if err != nil {
		return nil
	}
	client = c
	return client
}

// TrackAutocompact records one auto-compact lifecycle event (the
// pending-compact state a check resolved to, such as absent/running/ready,
// or applied/failed) for a given session,
// tagged with the agent and whatever numeric fields are relevant. Errors
// are swallowed: telemetry is an observability nicety, never a dependency
// of the control flow that decides or applies a compaction.
func TrackAutocompact(sessionID, agent, event string, props map[string]any) {
	c := enabled()
	if c == nil {
		return
	}
	properties := posthog.NewProperties().Set("agent", agent)
	for k, v := range props {
		properties = properties.Set(k, v)
	}
	_ = c.Enqueue(posthog.Capture{ //nolint:errcheck // best-effort, never blocks the caller
		DistinctId: sessionID,
		Event:      "evs_autocompact_" + event,
		Properties: properties,
	})
}

// Close flushes any buffered events; callers invoke this once at process
// shutdown (main's deferred cleanup), mirroring posthog-go's documented
// usage.
func Close() {
	mu.Lock()
	c := client
	mu.Unlock()
	if c != nil {
		_ = c.Close() //nolint:errcheck // best-effort on shutdown
	}
}
