package telemetry

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackAutocompactNoopWithoutAPIKey(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	os.Unsetenv(apiKeyEnvVar)

	mu.Lock()
	inited = false
	client = nil
	mu.Unlock()

	assert.NotPanics(t, func() {
		TrackAutocompact("session-1", "claude", "ready", map[string]any{"tokens": 123})
	})
}

func TestCloseNoopWhenNeverEnabled(t *testing.T) {
	mu.Lock()
	inited = false
	client = nil
	mu.Unlock()

	assert.NotPanics(t, Close)
}
