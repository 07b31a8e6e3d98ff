package model

import (
	"fmt"

	"github.com/eversession/evs/internal/jsonl"
)

// CodexSession is the parsed, typed representation of an Agent-X
// transcript, in either on-disk format (spec.md §3.3).
type CodexSession struct {
	Legacy bool

	Entries []*CodexEntry
	Invalid []InvalidLine

	byLine map[int]*CodexEntry
}

// ParseCodexSession parses raw JSONL bytes as an Agent-X transcript. legacy
// selects which on-disk format to assume; callers determine this via
// internal/detect before calling in.
func ParseCodexSession(content []byte, legacy bool) (*CodexSession, error) {
	lines, err := jsonl.ParseBytes(content)
	if err != nil {
		return nil, fmt.Errorf("parsing jsonl: %w", err)
	}
	return buildCodexSession(lines, legacy)
}

// ParseCodexSessionFile parses a transcript file on disk.
func ParseCodexSessionFile(path string, legacy bool) (*CodexSession, error) {
	lines, err := jsonl.StreamLines(path)
	if err != nil {
		return nil, err
	}
	return buildCodexSession(lines, legacy)
}

func buildCodexSession(lines []jsonl.Line, legacy bool) (*CodexSession, error) {
	s := &CodexSession{Legacy: legacy, byLine: make(map[int]*CodexEntry)}
	for i, l := range lines {
		if !l.Valid() {
			s.Invalid = append(s.Invalid, InvalidLine{Line: l.Number, Raw: l.Raw, Err: l.Err})
			continue
		}

		var entry *CodexEntry
		var err error
		switch {
		case legacy && i == 0:
			entry, err = ParseCodexLegacyEntry(l.Number, l.Value, CodexLegacyMeta)
		case legacy:
			entry, err = ParseCodexLegacyEntry(l.Number, l.Value, CodexLegacyRecord)
		default:
			entry, err = ParseCodexWrappedEntry(l.Number, l.Value)
			if err == nil && (entry.Timestamp() == "" || entry.Type() == "" || entry.payload == nil) {
				entry.Kind = CodexUnknownJSON
			}
		}
		if err != nil {
			s.Invalid = append(s.Invalid, InvalidLine{Line: l.Number, Raw: l.Raw, Err: err})
			continue
		}
		s.Entries = append(s.Entries, entry)
		s.byLine[l.Number] = entry
	}
	return s, nil
}

// CallOutputKind groups call/output payload types by compatibility: a
// function_call or local_shell_call is matched by a function_call_output,
// a custom_tool_call only by a custom_tool_call_output (spec.md §3.3).
type CallOutputKind int

const (
	kindOther CallOutputKind = iota
	kindFunction
	kindCustom
)

func callKind(payloadType string) (kind CallOutputKind, isCall bool, isOutput bool) {
	switch payloadType {
	case PayloadFunctionCall, PayloadLocalShellCall:
		return kindFunction, true, false
	case PayloadFunctionCallOutput:
		return kindFunction, false, true
	case PayloadCustomToolCall:
		return kindCustom, true, false
	case PayloadCustomToolCallOutput:
		return kindCustom, false, true
	default:
		return kindOther, false, false
	}
}

// Calls returns every response_item entry that is a call (function_call,
// custom_tool_call, or local_shell_call), keyed by call id.
func (s *CodexSession) Calls() map[string][]*CodexEntry {
	out := make(map[string][]*CodexEntry)
	for _, e := range s.Entries {
		if e.Kind != CodexWrapped || e.PayloadType() == "" {
			continue
		}
		_, isCall, _ := callKind(e.PayloadType())
		if isCall && e.CallID() != "" {
			out[e.CallID()] = append(out[e.CallID()], e)
		}
	}
	return out
}

// Outputs returns every response_item entry that is an output, keyed by
// call id.
func (s *CodexSession) Outputs() map[string][]*CodexEntry {
	out := make(map[string][]*CodexEntry)
	for _, e := range s.Entries {
		if e.Kind != CodexWrapped || e.PayloadType() == "" {
			continue
		}
		_, _, isOutput := callKind(e.PayloadType())
		if isOutput && e.CallID() != "" {
			out[e.CallID()] = append(out[e.CallID()], e)
		}
	}
	return out
}

// CallKindOf exposes callKind for the validator and fixer, which need to
// confirm compatibility (function output can't satisfy a custom call).
func CallKindOf(payloadType string) (kind CallOutputKind, isCall bool, isOutput bool) {
	return callKind(payloadType)
}
