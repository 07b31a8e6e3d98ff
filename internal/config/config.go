// Package config loads EVS's own configuration, the way entirecli's
// settings package loads .entire/settings.json: a strict-decoded base file
// plus an optional local override that only overrides explicitly-present
// keys.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/eversession/evs/internal/evspaths"
	"github.com/eversession/evs/internal/jsonutil"
)

// SettingsFile is the project-level settings path, relative to <evs-root>.
const SettingsFile = "settings.json"

// LocalSettingsFile is the uncommitted local override, relative to
// <evs-root>.
const LocalSettingsFile = "settings.local.json"

// Settings is the EVS configuration loaded from settings.json (+ local
// override).
type Settings struct {
	// LogLevel sets logging verbosity (debug, info, warn, error). Overridden
	// by the EVS_LOG_LEVEL environment variable at read time.
	LogLevel string `json:"log_level,omitempty"`

	// AutoCompactThreshold is a spec-string ("50", "40%", "140k") resolved
	// by internal/evsutil's spec parser into an absolute or percent token
	// threshold (spec.md §4.9).
	AutoCompactThreshold string `json:"auto_compact_threshold,omitempty"`

	// AutoCompactAmount is a spec-string for the compaction amount.
	AutoCompactAmount string `json:"auto_compact_amount,omitempty"`

	// ReloadMode is one of manual, auto, off (spec.md Glossary).
	ReloadMode string `json:"reload_mode,omitempty"`

	// TelemetryEnabled mirrors entirecli's opt-in telemetry flag semantics:
	// nil = not asked yet, true = opted in, false = opted out.
	TelemetryEnabled *bool `json:"telemetry,omitempty"`
}

// Load reads settings.json then applies settings.local.json overrides, both
// rooted at <evs-root> (internal/evspaths.EvsRoot). Returns defaults if
// neither file exists.
func Load() (*Settings, error) {
	root, err := evspaths.EvsRoot()
	if err != nil {
		return nil, fmt.Errorf("resolving evs root: %w", err)
	}

	base, err := loadFromFile(root + "/" + SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	localData, err := os.ReadFile(root + "/" + LocalSettingsFile) //nolint:gosec // path built from trusted root
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading local settings file: %w", err)
		}
		return base, nil
	}

	if err := mergeJSON(base, localData); err != nil {
		return nil, fmt.Errorf("merging local settings: %w", err)
	}
	return base, nil
}

// LoadFromFile loads settings from an explicit path without merging an
// override, used to show a single layer in isolation.
func LoadFromFile(path string) (*Settings, error) {
	return loadFromFile(path)
}

func loadFromFile(path string) (*Settings, error) {
	s := &Settings{ReloadMode: "manual"}

	data, err := os.ReadFile(path) //nolint:gosec // path from caller
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	return s, nil
}

// mergeJSON applies only the keys present in data onto settings, leaving
// unmentioned fields untouched — a local override file containing only
// {"log_level":"debug"} must not reset every other field to its zero value.
func mergeJSON(settings *Settings, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var probe Settings
	if err := dec.Decode(&probe); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	if v, ok := raw["log_level"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("parsing log_level: %w", err)
		}
		if s != "" {
			settings.LogLevel = s
		}
	}
	if v, ok := raw["auto_compact_threshold"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("parsing auto_compact_threshold: %w", err)
		}
		settings.AutoCompactThreshold = s
	}
	if v, ok := raw["auto_compact_amount"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("parsing auto_compact_amount: %w", err)
		}
		settings.AutoCompactAmount = s
	}
	if v, ok := raw["reload_mode"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("parsing reload_mode: %w", err)
		}
		if s != "" {
			settings.ReloadMode = s
		}
	}
	if v, ok := raw["telemetry"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return fmt.Errorf("parsing telemetry: %w", err)
		}
		settings.TelemetryEnabled = &b
	}
	return nil
}

// Save writes settings back to settings.json, indented with a trailing
// newline the way a hand-edited config file would look.
func Save(s *Settings) error {
	root, err := evspaths.EvsRoot()
	if err != nil {
		return fmt.Errorf("resolving evs root: %w", err)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("creating evs root: %w", err)
	}
	data, err := jsonutil.MarshalIndentWithNewline(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	return os.WriteFile(root+"/"+SettingsFile, data, 0o600)
}
