// Package validate is pure over a parsed session: it emits a flat list of
// invariant-violation issues (spec.md §4.3) and never mutates anything.
package validate

import (
	"fmt"

	"github.com/eversession/evs/internal/model"
)

// Severity grades how serious an issue is.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Issue is one invariant violation found by the validator.
type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Location int // line number, 0 if not line-addressable
	Details  map[string]any
}

// Stable issue codes, spec.md §4.3.
const (
	CodeInvalidJSONLine             = "claude.invalid_json_line"
	CodeDuplicateUUID               = "claude.duplicate_uuid"
	CodeBrokenParentChain           = "claude.broken_parent_chain"
	CodeOrphanToolResult             = "claude.orphan_tool_result"
	CodeOrphanToolUse                = "claude.orphan_tool_use"
	CodeThinkingBlockOrder           = "claude.thinking_block_order"
	CodeThinkingBlockOrderMerged     = "claude.thinking_block_order_merged"
	CodeThinkingBlockOrderResumeChain = "claude.thinking_block_order_resume_chain"
	CodeAPIErrorMessage              = "claude.api_error_message"

	CodeCodexUnrecognizedFormat   = "codex.unrecognized_format"
	CodeCodexOrphanOutput         = "codex.orphan_output"
	CodeCodexDuplicateOutput      = "codex.duplicate_output"
	CodeCodexSandboxPolicyAlias   = "codex.sandbox_policy_mode_alias"
)

// Report is the full output of validating a session.
type Report struct {
	Issues []Issue
}

// ErrorCount returns how many issues are severity Error, the quantity
// OperationRefused compares before/after a rewrite (spec.md §7).
func (r Report) ErrorCount() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == Error {
			n++
		}
	}
	return n
}

func (r *Report) add(sev Severity, code, msg string, line int, details map[string]any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Code: code, Message: msg, Location: line, Details: details})
}

// ValidateClaude runs the full rule set from spec.md §3.2/§4.3 over a
// parsed Agent-C session.
func ValidateClaude(s *model.ClaudeSession) Report {
	var r Report

	for _, inv := range s.Invalid {
		r.add(Error, CodeInvalidJSONLine, fmt.Sprintf("line %d is not valid JSON: %v", inv.Line, inv.Err), inv.Line, nil)
	}

	for uuid, lines := range s.DuplicateUUIDs() {
		r.add(Warning, CodeDuplicateUUID, fmt.Sprintf("uuid %q appears on %d lines", uuid, len(lines)), lines[0],
			map[string]any{"uuid": uuid, "lines": lines})
	}

	for _, e := range s.Entries {
		ref := e.ParentUUID()
		if ref.Points() {
			if _, ok := s.ByUUID(ref.UUID); !ok {
				r.add(Warning, CodeBrokenParentChain,
					fmt.Sprintf("line %d: parentUuid %q points to no entry in this file", e.Line, ref.UUID),
					e.Line, map[string]any{"parentUuid": ref.UUID})
			}
		}
	}

	toolUse := s.ToolUseLines()
	toolResult := s.ToolResultLines()
	for id, lines := range toolResult {
		if _, ok := toolUse[id]; !ok {
			for _, line := range lines {
				r.add(Error, CodeOrphanToolResult,
					fmt.Sprintf("line %d: tool_result %q has no matching tool_use", line, id),
					line, map[string]any{"tool_use_id": id})
			}
		}
	}
	for id, lines := range toolUse {
		if _, ok := toolResult[id]; !ok {
			for _, line := range lines {
				r.add(Warning, CodeOrphanToolUse,
					fmt.Sprintf("line %d: tool_use %q has no matching tool_result", line, id),
					line, map[string]any{"tool_use_id": id})
			}
		}
	}

	for _, e := range s.Entries {
		if e.Type() != model.TypeAssistant {
			continue
		}
		msg := e.Message()
		if msg == nil || !msg.HasThinking() {
			continue
		}
		if !msg.FirstBlockIsThinking() {
			r.add(Error, CodeThinkingBlockOrder,
				fmt.Sprintf("line %d: assistant content has a thinking block not in first position", e.Line),
				e.Line, nil)
		}
	}

	validateMergedThinkingOrder(s, &r)
	validateResumeChainThinkingOrder(s, &r)

	for _, e := range s.Entries {
		if e.IsAPIError() {
			r.add(Info, CodeAPIErrorMessage, fmt.Sprintf("line %d is a synthetic API-error message", e.Line), e.Line, nil)
		}
	}

	return r
}

// validateMergedThinkingOrder implements spec.md §4.3
// claude.thinking_block_order_merged: when an assistant's parent lacks
// thinking but the pair's merged content has thinking not in first
// position.
func validateMergedThinkingOrder(s *model.ClaudeSession, r *Report) {
	for _, e := range s.Entries {
		if e.Type() != model.TypeAssistant {
			continue
		}
		ref := e.ParentUUID()
		if !ref.Points() {
			continue
		}
		parent, ok := s.ByUUID(ref.UUID)
		if !ok || parent.Type() != model.TypeAssistant {
			continue
		}
		key, hasKey := e.MergeKey()
		parentKey, parentHasKey := parent.MergeKey()
		if !hasKey || !parentHasKey || key != parentKey {
			continue
		}

		parentMsg := parent.Message()
		childMsg := e.Message()
		if parentMsg == nil || childMsg == nil || parentMsg.HasThinking() {
			continue
		}
		merged := append(append([]model.Block{}, parentMsg.Blocks()...), childMsg.Blocks()...)
		hasThinking := false
		for _, b := range merged {
			if b.IsThinking() {
				hasThinking = true
				break
			}
		}
		if hasThinking && len(merged) > 0 && !merged[0].IsThinking() {
			r.add(Error, CodeThinkingBlockOrderMerged,
				fmt.Sprintf("line %d: merged with parent line %d, thinking present but not first", e.Line, parent.Line),
				e.Line, nil)
		}
	}
}

// validateResumeChainThinkingOrder implements spec.md §4.3
// claude.thinking_block_order_resume_chain: reconstruct the visible prompt
// by walking the leaf back through parents, merge consecutive assistant
// entries sharing a merge key, and fail if any merged assistant's content
// has thinking but does not start with thinking. This is the one check
// that mirrors the server-side resume validation and must have a near-zero
// false-positive rate.
func validateResumeChainThinkingOrder(s *model.ClaudeSession, r *Report) {
	chain := s.VisibleChain()
	seen := map[int]bool{}
	for _, e := range chain {
		if e.Type() != model.TypeAssistant || seen[e.Line] {
			continue
		}
		merged := s.MergedAssistantChain(e)
		for _, m := range merged {
			seen[m.Line] = true
		}
		var blocks []model.Block
		for _, m := range merged {
			if msg := m.Message(); msg != nil {
				blocks = append(blocks, msg.Blocks()...)
			}
		}
		hasThinking := false
		for _, b := range blocks {
			if b.IsThinking() {
				hasThinking = true
				break
			}
		}
		if hasThinking && len(blocks) > 0 && !blocks[0].IsThinking() {
			r.add(Error, CodeThinkingBlockOrderResumeChain,
				fmt.Sprintf("line %d: resume-chain merge has thinking not first", merged[len(merged)-1].Line),
				merged[len(merged)-1].Line, nil)
		}
	}
}

// ValidateCodex runs the Agent-X rule set from spec.md §3.3/§4.3.
func ValidateCodex(s *model.CodexSession) Report {
	var r Report

	for _, inv := range s.Invalid {
		r.add(Error, CodeInvalidJSONLine, fmt.Sprintf("line %d is not valid JSON: %v", inv.Line, inv.Err), inv.Line, nil)
	}

	for _, e := range s.Entries {
		if e.Kind == model.CodexUnknownJSON {
			r.add(Warning, CodeCodexUnrecognizedFormat, fmt.Sprintf("line %d does not match a recognized envelope shape", e.Line), e.Line, nil)
		}
	}

	calls := s.Calls()
	outputs := s.Outputs()
	for id, lines := range outputs {
		if _, ok := calls[id]; !ok {
			for _, e := range lines {
				r.add(Error, CodeCodexOrphanOutput, fmt.Sprintf("line %d: output %q has no matching call", e.Line, id), e.Line, nil)
			}
		}
		if len(lines) > 1 {
			for _, e := range lines[1:] {
				r.add(Warning, CodeCodexDuplicateOutput, fmt.Sprintf("line %d: duplicate output for call %q", e.Line, id), e.Line, nil)
			}
		}
	}
	for id, callLines := range calls {
		outLines, ok := outputs[id]
		if !ok || len(outLines) == 0 {
			for _, e := range callLines {
				r.add(Warning, CodeCodexOrphanOutput, fmt.Sprintf("line %d: call %q has no matching output", e.Line, id), e.Line, nil)
			}
			continue
		}
		callKind, _, _ := model.CallKindOf(callLines[0].PayloadType())
		for _, out := range outLines {
			outKind, _, _ := model.CallKindOf(out.PayloadType())
			if outKind != callKind {
				r.add(Error, CodeCodexOrphanOutput,
					fmt.Sprintf("line %d: output kind does not match call %q kind", out.Line, id), out.Line, nil)
			}
		}
	}

	for _, e := range s.Entries {
		if e.SandboxPolicyModeAlias() {
			r.add(Info, CodeCodexSandboxPolicyAlias, fmt.Sprintf("line %d: sandbox_policy uses legacy 'mode' spelling", e.Line), e.Line, nil)
		}
	}

	return r
}
