package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eversession/evs/internal/evspaths"
)

func withHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(evspaths.HomeEnvVar, dir)
	return dir
}

func TestLoadDefaultsWhenNoFilesExist(t *testing.T) {
	withHome(t)
	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "manual", s.ReloadMode)
	assert.Equal(t, "", s.LogLevel)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	home := withHome(t)
	root := filepath.Join(home, ".eversession")
	require.NoError(t, os.MkdirAll(root, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, SettingsFile), []byte(`{"not_a_real_field":true}`), 0o600))

	_, err := Load()
	assert.Error(t, err)
}

func TestLocalOverrideOnlyTouchesPresentKeys(t *testing.T) {
	home := withHome(t)
	root := filepath.Join(home, ".eversession")
	require.NoError(t, os.MkdirAll(root, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, SettingsFile),
		[]byte(`{"log_level":"info","reload_mode":"auto"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, LocalSettingsFile),
		[]byte(`{"log_level":"debug"}`), 0o600))

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "auto", s.ReloadMode)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	withHome(t)
	enabled := true
	require.NoError(t, Save(&Settings{LogLevel: "warn", ReloadMode: "off", TelemetryEnabled: &enabled}))

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, "off", s.ReloadMode)
	require.NotNil(t, s.TelemetryEnabled)
	assert.True(t, *s.TelemetryEnabled)
}
