package runregistry

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eversession/evs/internal/evspaths"
)

func withHome(t *testing.T) {
	t.Helper()
	t.Setenv(evspaths.HomeEnvVar, t.TempDir())
}

func TestRegisterListUnregister(t *testing.T) {
	withHome(t)

	require.NoError(t, Register("claude", "run-1", Record{
		RunID: "run-1", Agent: "claude", Pid: os.Getpid(), Cwd: "/tmp/proj", StartedAt: "2026-01-01T00:00:00Z",
	}))

	all, err := List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "run-1", all[0].RunID)

	require.NoError(t, Unregister("claude", "run-1"))
	all, err = List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUnregisterMissingRecordIsNotAnError(t *testing.T) {
	withHome(t)
	assert.NoError(t, Unregister("claude", "never-registered"))
}

func TestListOnEmptyRegistryIsEmpty(t *testing.T) {
	withHome(t)
	all, err := List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProcessAliveForCurrentProcess(t *testing.T) {
	assert.True(t, ProcessAlive(os.Getpid()))
}

func TestProcessAliveFalseForInvalidPid(t *testing.T) {
	assert.False(t, ProcessAlive(0))
	assert.False(t, ProcessAlive(-1))
}

func TestPruneStaleRemovesDeadProcessRecords(t *testing.T) {
	withHome(t)
	require.NoError(t, Register("claude", "dead-run", Record{
		RunID: "dead-run", Agent: "claude", Pid: 999999, Cwd: "/tmp/proj", StartedAt: "2026-01-01T00:00:00Z",
	}))

	removed, err := PruneStale()
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "dead-run", removed[0].RunID)

	all, err := List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAgeParsesStartedAt(t *testing.T) {
	_, err := Age(Record{StartedAt: "not-a-time"})
	assert.Error(t, err)
}
