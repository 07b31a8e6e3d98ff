package evspaths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(HomeEnvVar, dir)
	return dir
}

func TestEvsRootUsesHomeOverride(t *testing.T) {
	home := withHome(t)
	root, err := EvsRoot()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".eversession"), root)
}

func TestSessionLogAndStateFiles(t *testing.T) {
	home := withHome(t)
	logFile, err := SessionLogFile("session-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".eversession", "sessions", "session-1", "log.jsonl"), logFile)

	stateFile, err := SessionStateFile("session-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".eversession", "sessions", "session-1", "state.json"), stateFile)
}

func TestPendingCompactFileNamesByAgent(t *testing.T) {
	withHome(t)
	p, err := PendingCompactFile("session-1", "claude")
	require.NoError(t, err)
	assert.Equal(t, "pending-compact.claude.json", filepath.Base(p))
}

func TestHashCwdSpellings(t *testing.T) {
	assert.Equal(t, "-home-user-proj", HashCwd("/home/user/proj", false))
	assert.Equal(t, "-home-user-proj-2-0", HashCwd("/home/user/proj.2.0", true))
	assert.Equal(t, "-home-user-proj.2.0", HashCwd("/home/user/proj.2.0", false))
}

func TestClaudeCandidateDirsDiffersBySpelling(t *testing.T) {
	withHome(t)
	dirA, dirB, err := ClaudeCandidateDirs("/home/user/my.repo")
	require.NoError(t, err)
	assert.NotEqual(t, dirA, dirB)
	assert.Contains(t, dirA, "my.repo")
	assert.NotContains(t, dirB, "my.repo")
}

func TestIsInfrastructurePath(t *testing.T) {
	assert.True(t, IsInfrastructurePath(".eversession"))
	assert.True(t, IsInfrastructurePath(".eversession/sessions/x"))
	assert.False(t, IsInfrastructurePath("src/main.go"))
}

func TestAbsPathPassesThroughAbsolute(t *testing.T) {
	p, err := AbsPath("/already/absolute")
	require.NoError(t, err)
	assert.Equal(t, "/already/absolute", p)
}
