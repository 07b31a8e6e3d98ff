package model

import "encoding/json"

// Agent-X envelope "type" values, spec.md §3.3.
const (
	CodexTypeSessionMeta   = "session_meta"
	CodexTypeResponseItem  = "response_item"
	CodexTypeEventMsg      = "event_msg"
	CodexTypeTurnContext   = "turn_context"
	CodexTypeCompacted     = "compacted"
)

// Agent-X response_item payload "type" values, spec.md §3.3.
const (
	PayloadMessage              = "message"
	PayloadReasoning            = "reasoning"
	PayloadFunctionCall         = "function_call"
	PayloadFunctionCallOutput   = "function_call_output"
	PayloadCustomToolCall       = "custom_tool_call"
	PayloadCustomToolCallOutput = "custom_tool_call_output"
	PayloadLocalShellCall       = "local_shell_call"
)

// CodexKind classifies a parsed line within a wrapped-format transcript.
type CodexKind int

const (
	// CodexWrapped is a well-formed {timestamp,type,payload} envelope.
	CodexWrapped CodexKind = iota
	// CodexLegacyMeta is the first line of a legacy-format transcript.
	CodexLegacyMeta
	// CodexLegacyRecord is any subsequent line of a legacy-format
	// transcript.
	CodexLegacyRecord
	// CodexUnknownJSON is a decodable object matching neither shape.
	CodexUnknownJSON
)

// CodexEntry is one logical entry of an Agent-X transcript, in either
// on-disk format. Unknown fields are preserved through obj/payload for
// round-trip fidelity.
type CodexEntry struct {
	Line int
	Kind CodexKind

	obj     rawObject // the full envelope (wrapped) or record (legacy)
	payload rawObject // the decoded payload, when present
}

// ParseCodexWrappedEntry decodes a {timestamp,type,payload} line.
func ParseCodexWrappedEntry(line int, data []byte) (*CodexEntry, error) {
	obj, err := newRawObject(data)
	if err != nil {
		return nil, err
	}
	e := &CodexEntry{Line: line, Kind: CodexWrapped, obj: obj}
	if raw, ok := obj["payload"]; ok {
		p, perr := newRawObject(raw)
		if perr == nil {
			e.payload = p
		}
	}
	return e, nil
}

// ParseCodexLegacyEntry decodes a bare legacy-format record (meta or data).
func ParseCodexLegacyEntry(line int, data []byte, kind CodexKind) (*CodexEntry, error) {
	obj, err := newRawObject(data)
	if err != nil {
		return nil, err
	}
	return &CodexEntry{Line: line, Kind: kind, obj: obj}, nil
}

// MarshalJSON re-emits the entry with every original field.
func (e *CodexEntry) MarshalJSON() ([]byte, error) {
	if e.Kind == CodexWrapped && e.payload != nil {
		payloadRaw, err := e.payload.marshal()
		if err != nil {
			return nil, err
		}
		e.obj.setRaw("payload", payloadRaw)
	}
	return e.obj.marshal()
}

// Timestamp returns the wrapped envelope's timestamp field.
func (e *CodexEntry) Timestamp() string {
	t, _ := e.obj.getString("timestamp")
	return t
}

// Type returns the wrapped envelope's type field.
func (e *CodexEntry) Type() string {
	t, _ := e.obj.getString("type")
	return t
}

// PayloadType returns the payload's own "type" discriminator, for
// response_item payloads.
func (e *CodexEntry) PayloadType() string {
	if e.payload == nil {
		return ""
	}
	t, _ := e.payload.getString("type")
	return t
}

// CallID returns the call/output correlation id, present on
// function_call/function_call_output/custom_tool_call/
// custom_tool_call_output/local_shell_call payloads.
func (e *CodexEntry) CallID() string {
	if e.payload == nil {
		return ""
	}
	id, ok := e.payload.getString("call_id")
	if ok {
		return id
	}
	id, _ = e.payload.getString("id")
	return id
}

// SessionMetaID returns payload.id for a session_meta envelope.
func (e *CodexEntry) SessionMetaID() string {
	if e.payload == nil {
		return ""
	}
	id, _ := e.payload.getString("id")
	return id
}

// SessionMetaCwd returns payload.cwd for a session_meta envelope.
func (e *CodexEntry) SessionMetaCwd() string {
	if e.payload == nil {
		return ""
	}
	cwd, _ := e.payload.getString("cwd")
	return cwd
}

// LegacyMetaID returns the id field of a legacy meta record.
func (e *CodexEntry) LegacyMetaID() string {
	id, _ := e.obj.getString("id")
	return id
}

// SandboxPolicyModeAlias reports whether this entry carries the legacy
// sandbox_policy.mode spelling rather than sandbox_policy.type (spec.md
// §3.3).
func (e *CodexEntry) SandboxPolicyModeAlias() bool {
	src := e.obj
	if e.Kind == CodexWrapped {
		src = e.payload
	}
	if src == nil {
		return false
	}
	raw, ok := src["sandbox_policy"]
	if !ok {
		return false
	}
	var sp map[string]json.RawMessage
	if json.Unmarshal(raw, &sp) != nil {
		return false
	}
	_, hasMode := sp["mode"]
	_, hasType := sp["type"]
	return hasMode && !hasType
}

// Payload exposes the decoded payload's raw field map for callers that need
// a field this type doesn't surface directly (e.g. message content).
func (e *CodexEntry) Payload() map[string]json.RawMessage {
	return e.payload
}

// Clone returns an independent copy of the entry.
func (e *CodexEntry) Clone() *CodexEntry {
	c := &CodexEntry{Line: e.Line, Kind: e.Kind, obj: e.obj.clone()}
	if e.payload != nil {
		c.payload = e.payload.clone()
	}
	return c
}
