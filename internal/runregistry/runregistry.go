// Package runregistry tracks active supervised runs (spec.md §4.12,
// component L): one record file per run under the active-runs directory,
// cleaned up when the recorded process is no longer alive.
package runregistry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eversession/evs/internal/evspaths"
	"github.com/eversession/evs/internal/jsonl"
)

// Record is one active-run entry.
type Record struct {
	RunID      string `json:"run_id"`
	Agent      string `json:"agent"`
	Pid        int    `json:"pid"`
	Cwd        string `json:"cwd"`
	SessionID  string `json:"session_id,omitempty"`
	StartedAt  string `json:"started_at"`
}

// Register writes a new active-run record, atomically.
func Register(agent, runID string, r Record) error {
	path, err := evspaths.ActiveRunFile(agent, runID)
	if err != nil {
		return fmt.Errorf("resolving active-run path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating active-run dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding active-run record: %w", err)
	}
	return jsonl.WriteAtomic(path, append(data, '\n'))
}

// Unregister removes a run's record, called when a supervised run exits
// cleanly.
func Unregister(agent, runID string) error {
	path, err := evspaths.ActiveRunFile(agent, runID)
	if err != nil {
		return fmt.Errorf("resolving active-run path: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing active-run record: %w", err)
	}
	return nil
}

// List returns every active-run record currently on disk, regardless of
// whether the recorded pid is actually still alive.
func List() ([]Record, error) {
	dir, err := evspaths.ActiveDir()
	if err != nil {
		return nil, fmt.Errorf("resolving active-run dir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active-run dir: %w", err)
	}

	var out []Record
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, ent.Name())) //nolint:gosec // fixed registry dir
		if err != nil {
			continue
		}
		var r Record
		if json.Unmarshal(data, &r) != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ProcessAlive reports whether pid refers to a live process, the check
// that distinguishes a genuinely active run from a stale record left
// behind by a crash (spec.md §4.12 "stale record cleanup").
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 performs no-op permission/existence checks without
	// affecting the target process.
	return process.Signal(syscall.Signal(0)) == nil
}

// PruneStale removes every record whose pid is no longer alive, returning
// the records it removed.
func PruneStale() ([]Record, error) {
	all, err := List()
	if err != nil {
		return nil, err
	}
	var removed []Record
	for _, r := range all {
		if ProcessAlive(r.Pid) {
			continue
		}
		if err := Unregister(r.Agent, r.RunID); err != nil {
			continue
		}
		removed = append(removed, r)
	}
	return removed, nil
}

// Age returns how long ago a record's StartedAt timestamp was, used by
// callers deciding whether a "running" record that outlived any reasonable
// session length is actually stale even though its pid got reused.
func Age(r Record) (time.Duration, error) {
	t, err := time.Parse(time.RFC3339, r.StartedAt)
	if err != nil {
		return 0, fmt.Errorf("parsing started_at: %w", err)
	}
	return time.Since(t), nil
}
