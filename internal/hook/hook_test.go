package hook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallClaudeHookOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, InstallClaudeHook(path, "evs supervise apply-plan"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	hooks, ok := doc["hooks"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, hooks, "Notification")
}

func TestInstallClaudeHookPreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark","hooks":{"PreToolUse":[{"matcher":"*"}]}}`), 0o600))

	require.NoError(t, InstallClaudeHook(path, "evs supervise apply-plan"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "dark", doc["theme"])
	hooks := doc["hooks"].(map[string]any)
	assert.Contains(t, hooks, "PreToolUse")
	assert.Contains(t, hooks, "Notification")
}

func TestRemoveClaudeHookLeavesOtherHooksAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, InstallClaudeHook(path, "evs supervise apply-plan"))

	require.NoError(t, RemoveClaudeHook(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	hooks, ok := doc["hooks"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, hooks, "Notification")
}

func TestInstallCodexHookWritesNotifyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, InstallCodexHook(path, []string{"evs", "supervise", "apply-plan"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	_, err = toml.Decode(string(data), &doc)
	require.NoError(t, err)
	notify, ok := doc["notify"].([]any)
	require.True(t, ok)
	require.Len(t, notify, 3)
	assert.Equal(t, "evs", notify[0])
}
