package ops

import (
	"github.com/eversession/evs/internal/model"
	"github.com/eversession/evs/internal/validate"
)

// CleanableClaudeCodes are the issue codes clean is willing to act on by
// deleting the offending line (spec.md §4.6 "clean"). Anything else clean
// finds is left for repair, which may rewrite rather than delete.
var CleanableClaudeCodes = map[string]bool{
	validate.CodeOrphanToolResult: true,
	validate.CodeOrphanToolUse:    true,
	validate.CodeAPIErrorMessage:  true,
}

// CleanClaude validates s and removes every line whose issue code is in
// CleanableClaudeCodes, running the same selection-expansion and relink
// passes as remove so a deleted tool_use/tool_result never leaves its
// partner dangling.
func CleanClaude(s *model.ClaudeSession) ClaudeResult {
	report := validate.ValidateClaude(s)
	initial := make(map[int]string)
	for _, issue := range report.Issues {
		if CleanableClaudeCodes[issue.Code] {
			initial[issue.Location] = issue.Message
		}
	}
	return RemoveClaude(s, initial)
}

// CleanableCodexCodes mirrors CleanableClaudeCodes for Agent-X transcripts.
var CleanableCodexCodes = map[string]bool{
	validate.CodeCodexOrphanOutput: true,
}

// CleanCodex is the Agent-X analogue of CleanClaude.
func CleanCodex(s *model.CodexSession) CodexResult {
	report := validate.ValidateCodex(s)
	initial := make(map[int]string)
	for _, issue := range report.Issues {
		if CleanableCodexCodes[issue.Code] {
			initial[issue.Location] = issue.Message
		}
	}
	return RemoveCodex(s, initial)
}
