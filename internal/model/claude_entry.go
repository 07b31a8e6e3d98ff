package model

import "encoding/json"

// ParentRef models parentUuid's three possible states: the key absent, the
// key present and explicitly null (marks a root, spec.md §3.2), or the key
// present with a uuid string.
type ParentRef struct {
	Present bool
	Null    bool
	UUID    string
}

// IsRoot reports whether this ref marks a root entry (parentUuid explicitly
// null).
func (p ParentRef) IsRoot() bool { return p.Present && p.Null }

// Points reports whether this ref points at another entry.
func (p ParentRef) Points() bool { return p.Present && !p.Null && p.UUID != "" }

// ClaudeEntry is one logical entry in an Agent-C transcript (spec.md §3.2).
// It wraps the decoded JSON object; unknown keys are preserved through
// rewrites.
type ClaudeEntry struct {
	// Line is the 1-based physical line number this entry occupies. It is
	// stable for the duration of one operation (spec.md §3.1) but is
	// reassigned whenever a session is re-serialized.
	Line int

	obj rawObject
}

// ParseClaudeEntry decodes one transcript line's JSON object into a
// ClaudeEntry.
func ParseClaudeEntry(line int, data []byte) (*ClaudeEntry, error) {
	obj, err := newRawObject(data)
	if err != nil {
		return nil, err
	}
	return &ClaudeEntry{Line: line, obj: obj}, nil
}

// MarshalJSON re-emits the entry with every original field, known or not.
func (e *ClaudeEntry) MarshalJSON() ([]byte, error) {
	return e.obj.marshal()
}

// UUID returns the entry's uuid, or "" if absent.
func (e *ClaudeEntry) UUID() string {
	u, _ := e.obj.getString("uuid")
	return u
}

// SetUUID sets the entry's uuid.
func (e *ClaudeEntry) SetUUID(uuid string) {
	e.obj.setString("uuid", uuid)
}

// ParentUUID returns the entry's parentUuid in all three possible states.
func (e *ClaudeEntry) ParentUUID() ParentRef {
	if !e.obj.has("parentUuid") {
		return ParentRef{}
	}
	if e.obj.isNull("parentUuid") {
		return ParentRef{Present: true, Null: true}
	}
	u, ok := e.obj.getString("parentUuid")
	if !ok {
		return ParentRef{Present: true, Null: true}
	}
	return ParentRef{Present: true, UUID: u}
}

// SetParentUUID points parentUuid at the given uuid.
func (e *ClaudeEntry) SetParentUUID(uuid string) {
	e.obj.setString("parentUuid", uuid)
}

// SetParentNull marks the entry as a root (parentUuid: null).
func (e *ClaudeEntry) SetParentNull() {
	e.obj.setNull("parentUuid")
}

// Type returns the entry's "type" field.
func (e *ClaudeEntry) Type() string {
	t, _ := e.obj.getString("type")
	return t
}

// SetType sets the entry's "type" field.
func (e *ClaudeEntry) SetType(t string) {
	e.obj.setString("type", t)
}

// Message kinds, spec.md §3.2.
const (
	TypeUser                = "user"
	TypeAssistant           = "assistant"
	TypeSummary             = "summary"
	TypeFileHistorySnapshot = "file-history-snapshot"
	TypeSystem              = "system"
	TypeProgress            = "progress"
)

// Message returns the decoded "message" field, or nil if absent.
func (e *ClaudeEntry) Message() *Message {
	raw, ok := e.obj["message"]
	if !ok {
		return nil
	}
	msg, err := ParseMessage(raw)
	if err != nil {
		return nil
	}
	return msg
}

// SetMessage replaces the "message" field.
func (e *ClaudeEntry) SetMessage(m *Message) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	e.obj.setRaw("message", data)
}

// IsMeta reports whether isMeta is true.
func (e *ClaudeEntry) IsMeta() bool { return e.obj.getBool("isMeta") }

// IsSidechain reports whether isSidechain is true.
func (e *ClaudeEntry) IsSidechain() bool { return e.obj.getBool("isSidechain") }

// SetIsSidechain sets the isSidechain field.
func (e *ClaudeEntry) SetIsSidechain(v bool) {
	data, _ := json.Marshal(v)
	e.obj.setRaw("isSidechain", data)
}

// IsAPIError reports whether this entry is a synthetic API-error message
// (spec.md §3.2 "is not an API-error" in the visible-chain definition).
// Agent-C marks these with isApiErrorMessage:true.
func (e *ClaudeEntry) IsAPIError() bool { return e.obj.getBool("isApiErrorMessage") }

// Environment fields copied onto a synthetic summary entry (spec.md §4.5
// step 4).
func (e *ClaudeEntry) SessionID() string { v, _ := e.obj.getString("sessionId"); return v }
func (e *ClaudeEntry) Cwd() string       { v, _ := e.obj.getString("cwd"); return v }
func (e *ClaudeEntry) Version() string   { v, _ := e.obj.getString("version"); return v }
func (e *ClaudeEntry) GitBranch() string { v, _ := e.obj.getString("gitBranch"); return v }
func (e *ClaudeEntry) Slug() string      { v, _ := e.obj.getString("slug"); return v }
func (e *ClaudeEntry) UserType() string  { v, _ := e.obj.getString("userType"); return v }

// Timestamp returns the entry's top-level ISO8601 timestamp, or "" if absent.
func (e *ClaudeEntry) Timestamp() string { v, _ := e.obj.getString("timestamp"); return v }

// CopyEnvFrom copies the env fields (sessionId, cwd, version, gitBranch,
// slug, userType) from tmpl onto e, used when synthesizing a summary entry
// during compaction (spec.md §4.7 step 4).
func (e *ClaudeEntry) CopyEnvFrom(tmpl *ClaudeEntry) {
	if v := tmpl.SessionID(); v != "" {
		e.obj.setString("sessionId", v)
	}
	if v := tmpl.Cwd(); v != "" {
		e.obj.setString("cwd", v)
	}
	if v := tmpl.Version(); v != "" {
		e.obj.setString("version", v)
	}
	if v := tmpl.GitBranch(); v != "" {
		e.obj.setString("gitBranch", v)
	}
	if v := tmpl.Slug(); v != "" {
		e.obj.setString("slug", v)
	}
	if v := tmpl.UserType(); v != "" {
		e.obj.setString("userType", v)
	}
}

// RequestID returns the entry's requestId field, used as a fallback merge
// key (spec.md §9 Open Question).
func (e *ClaudeEntry) RequestID() string {
	v, _ := e.obj.getString("requestId")
	return v
}

// MergeKey returns the key used to decide whether two parent-linked
// assistant entries are streaming chunks of the same logical turn.
// Prefers message.id, falls back to requestId, and returns ("", false) if
// neither is present — callers must never merge entries whose keys
// disagree (spec.md §9 Open Question; decision recorded in SPEC_FULL.md).
func (e *ClaudeEntry) MergeKey() (string, bool) {
	if msg := e.Message(); msg != nil {
		if id := msg.ID(); id != "" {
			return "msg:" + id, true
		}
	}
	if rid := e.RequestID(); rid != "" {
		return "req:" + rid, true
	}
	return "", false
}

// Clone returns a deep-enough copy of the entry (independent underlying
// map) suitable for building a synthetic entry from a template.
func (e *ClaudeEntry) Clone() *ClaudeEntry {
	return &ClaudeEntry{Line: e.Line, obj: e.obj.clone()}
}
