// Package hook installs and removes the agent-side notify hook that lets
// EVS learn when a session file changes without polling (spec.md §6.3).
// The hook itself is a small shell command the agent's own settings file
// is configured to invoke; this package only edits that settings file.
package hook

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/eversession/evs/internal/jsonutil"
)

// claudeSettingsDoc is the subset of Claude Code's settings.json this package
// reads and writes: just enough to install/remove a notify hook without
// disturbing any other key (spec.md §9 "never drop unknown keys on
// rewrite" applies here too).
type claudeSettingsDoc = map[string]any

// InstallClaudeHook adds (or replaces) an evs notify-hook entry in a Claude
// settings.json file at path, preserving every other key untouched.
func InstallClaudeHook(path, command string) error {
	doc, err := readJSONDoc(path)
	if err != nil {
		return err
	}

	hooksRaw, _ := doc["hooks"].(map[string]any)
	if hooksRaw == nil {
		hooksRaw = map[string]any{}
	}
	hooksRaw["Notification"] = []any{
		map[string]any{
			"matcher": "*",
			"hooks": []any{
				map[string]any{"type": "command", "command": command},
			},
		},
	}
	doc["hooks"] = hooksRaw

	return writeJSONDoc(path, doc)
}

// RemoveClaudeHook removes the Notification hook entry evs installed,
// leaving any other hook type alone.
func RemoveClaudeHook(path string) error {
	doc, err := readJSONDoc(path)
	if err != nil {
		return err
	}
	if hooksRaw, ok := doc["hooks"].(map[string]any); ok {
		delete(hooksRaw, "Notification")
		doc["hooks"] = hooksRaw
	}
	return writeJSONDoc(path, doc)
}

func readJSONDoc(path string) (claudeSettingsDoc, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled settings location
	if err != nil {
		if os.IsNotExist(err) {
			return claudeSettingsDoc{}, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	m, err := jsonutil.CompactObject(data)
	if err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	out := make(claudeSettingsDoc, len(m))
	for k, v := range m {
		var val any
		if err := jsonutil.UnmarshalRaw(v, &val); err != nil {
			return nil, fmt.Errorf("decoding settings field %q: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

func writeJSONDoc(path string, doc claudeSettingsDoc) error {
	data, err := jsonutil.MarshalIndentWithNewline(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// CodexConfig is the subset of Codex's config.toml this package edits: the
// notify command array (spec.md §6.3 "Agent-X has no JSON hooks file, only
// a TOML notify key").
type CodexConfig struct {
	Notify []string       `toml:"notify,omitempty"`
	Rest   map[string]any `toml:"-"`
}

// InstallCodexHook sets the notify command in a Codex config.toml at path.
func InstallCodexHook(path string, command []string) error {
	var doc map[string]any
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled config location
	switch {
	case err == nil:
		if _, decodeErr := toml.Decode(string(data), &doc); decodeErr != nil {
			return fmt.Errorf("decoding config.toml: %w", decodeErr)
		}
	case os.IsNotExist(err):
		doc = map[string]any{}
	default:
		return fmt.Errorf("reading config.toml: %w", err)
	}

	notify := make([]any, len(command))
	for i, c := range command {
		notify[i] = c
	}
	doc["notify"] = notify

	f, err := os.Create(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return fmt.Errorf("creating config.toml: %w", err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(doc)
}
