package main

import (
	"fmt"

	"github.com/eversession/evs/internal/jsonl"
	"github.com/eversession/evs/internal/model"
)

// writeClaude backs up path, then atomically rewrites it with entries
// merged back in against the session's invalid lines.
func writeClaude(path string, s *model.ClaudeSession, entries []*model.ClaudeEntry) (backupPath string, err error) {
	backupPath, err = jsonl.CreateBackup(path)
	if err != nil {
		return "", fmt.Errorf("backing up before write: %w", err)
	}
	data, err := model.MergeClaudeOutput(entries, s.Invalid)
	if err != nil {
		return backupPath, fmt.Errorf("rendering rewritten transcript: %w", err)
	}
	if err := jsonl.WriteAtomic(path, data); err != nil {
		return backupPath, fmt.Errorf("writing rewritten transcript: %w", err)
	}
	return backupPath, nil
}

// writeCodex is the Agent-X analogue of writeClaude.
func writeCodex(path string, s *model.CodexSession, entries []*model.CodexEntry) (backupPath string, err error) {
	backupPath, err = jsonl.CreateBackup(path)
	if err != nil {
		return "", fmt.Errorf("backing up before write: %w", err)
	}
	data, err := model.MergeCodexOutput(entries, s.Invalid)
	if err != nil {
		return backupPath, fmt.Errorf("rendering rewritten transcript: %w", err)
	}
	if err := jsonl.WriteAtomic(path, data); err != nil {
		return backupPath, fmt.Errorf("writing rewritten transcript: %w", err)
	}
	return backupPath, nil
}
