package main

import (
	"fmt"

	"github.com/eversession/evs/internal/detect"
	"github.com/eversession/evs/internal/model"
)

// loadedSession holds whichever of the two session types a path resolved
// to, so the structural-operation commands can share one loading path
// regardless of agent format.
type loadedSession struct {
	path    string
	agent   string // "claude" or "codex"
	claude  *model.ClaudeSession
	codex   *model.CodexSession
	legacy  bool
}

// resolveFormat maps a --agent override (or "" to auto-detect) plus a path
// to the concrete format to parse with.
func resolveFormat(path, agentFlag string) (agent string, legacy bool, err error) {
	switch agentFlag {
	case "claude":
		return "claude", false, nil
	case "codex":
		return "codex", false, nil
	case "codex-legacy":
		return "codex", true, nil
	case "":
		res, err := detect.DetectFile(path)
		if err != nil {
			return "", false, fmt.Errorf("detecting transcript format: %w", err)
		}
		switch res.Format {
		case detect.ClaudeCode:
			return "claude", false, nil
		case detect.CodexWrapped:
			return "codex", false, nil
		case detect.CodexLegacy:
			return "codex", true, nil
		default:
			return "", false, fmt.Errorf("could not detect transcript format for %s (sampled %d objects, %d malformed)", path, res.SampleSize, res.Malformed)
		}
	default:
		return "", false, fmt.Errorf("unknown --agent %q (want claude, codex, or codex-legacy)", agentFlag)
	}
}

func loadSession(path, agentFlag string) (*loadedSession, error) {
	agent, legacy, err := resolveFormat(path, agentFlag)
	if err != nil {
		return nil, err
	}

	ls := &loadedSession{path: path, agent: agent, legacy: legacy}
	switch agent {
	case "claude":
		s, err := model.ParseClaudeSessionFile(path)
		if err != nil {
			return nil, fmt.Errorf("parsing %s as a claude-code transcript: %w", path, err)
		}
		ls.claude = s
	case "codex":
		s, err := model.ParseCodexSessionFile(path, legacy)
		if err != nil {
			return nil, fmt.Errorf("parsing %s as a codex transcript: %w", path, err)
		}
		ls.codex = s
	}
	return ls, nil
}
