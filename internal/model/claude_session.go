// Package model is the in-memory representation of a transcript: the typed
// session produced from a JSONL stream, and the derived structures
// (tool-id maps, parent-chain traversal, visible-message chain
// reconstruction, thinking-block predicates) every higher component builds
// on (spec.md §3, component D).
package model

import (
	"fmt"

	"github.com/eversession/evs/internal/jsonl"
)

// InvalidLine is a physical line that failed to decode as JSON. Its raw
// text and line number are preserved so a rewrite can emit it back
// unchanged (spec.md §3.1).
type InvalidLine struct {
	Line int
	Raw  []byte
	Err  error
}

// ClaudeSession is the parsed, typed representation of an Agent-C
// transcript.
type ClaudeSession struct {
	// Entries holds every successfully-parsed line, in file order.
	Entries []*ClaudeEntry
	// Invalid holds every line that failed to decode, in file order,
	// interleaved positionally with Entries via Line numbers.
	Invalid []InvalidLine
	// TotalLines is the number of physical lines in the source (len(Entries)
	// + len(Invalid)).
	TotalLines int

	byUUID map[string]*ClaudeEntry
	byLine map[int]*ClaudeEntry
}

// ParseClaudeSession parses raw JSONL bytes into a ClaudeSession.
func ParseClaudeSession(content []byte) (*ClaudeSession, error) {
	lines, err := jsonl.ParseBytes(content)
	if err != nil {
		return nil, fmt.Errorf("parsing jsonl: %w", err)
	}
	return buildClaudeSession(lines)
}

// ParseClaudeSessionFile parses a transcript file on disk.
func ParseClaudeSessionFile(path string) (*ClaudeSession, error) {
	lines, err := jsonl.StreamLines(path)
	if err != nil {
		return nil, err
	}
	return buildClaudeSession(lines)
}

func buildClaudeSession(lines []jsonl.Line) (*ClaudeSession, error) {
	s := &ClaudeSession{
		TotalLines: len(lines),
		byUUID:     make(map[string]*ClaudeEntry),
		byLine:     make(map[int]*ClaudeEntry),
	}
	for _, l := range lines {
		if !l.Valid() {
			s.Invalid = append(s.Invalid, InvalidLine{Line: l.Number, Raw: l.Raw, Err: l.Err})
			continue
		}
		entry, err := ParseClaudeEntry(l.Number, l.Value)
		if err != nil {
			s.Invalid = append(s.Invalid, InvalidLine{Line: l.Number, Raw: l.Raw, Err: err})
			continue
		}
		s.Entries = append(s.Entries, entry)
		s.byLine[l.Number] = entry
		if uuid := entry.UUID(); uuid != "" {
			// First entry with a given uuid wins the index; DuplicateUUID is
			// a validator finding (spec.md §4.3), not a parse failure.
			if _, exists := s.byUUID[uuid]; !exists {
				s.byUUID[uuid] = entry
			}
		}
	}
	return s, nil
}

// ByUUID looks up an entry by uuid.
func (s *ClaudeSession) ByUUID(uuid string) (*ClaudeEntry, bool) {
	e, ok := s.byUUID[uuid]
	return e, ok
}

// ByLine looks up an entry by its current line number.
func (s *ClaudeSession) ByLine(line int) (*ClaudeEntry, bool) {
	e, ok := s.byLine[line]
	return e, ok
}

// DuplicateUUIDs returns every uuid that appears on more than one entry,
// mapped to the line numbers that share it (spec.md §3.2 invariant 5).
func (s *ClaudeSession) DuplicateUUIDs() map[string][]int {
	counts := make(map[string][]int)
	for _, e := range s.Entries {
		if uuid := e.UUID(); uuid != "" {
			counts[uuid] = append(counts[uuid], e.Line)
		}
	}
	dups := make(map[string][]int)
	for uuid, lines := range counts {
		if len(lines) > 1 {
			dups[uuid] = lines
		}
	}
	return dups
}

// ToolUseLines maps a tool_use id to every line whose assistant content
// contributes a tool_use block with that id (spec.md §3.2 "Tool-id map").
func (s *ClaudeSession) ToolUseLines() map[string][]int {
	out := make(map[string][]int)
	for _, e := range s.Entries {
		msg := e.Message()
		if msg == nil {
			continue
		}
		for _, b := range msg.Blocks() {
			if b.Type() == BlockToolUse && b.ToolUseID() != "" {
				out[b.ToolUseID()] = append(out[b.ToolUseID()], e.Line)
			}
		}
	}
	return out
}

// ToolResultLines maps a tool_use id to every line whose content
// contributes a matching tool_result block.
func (s *ClaudeSession) ToolResultLines() map[string][]int {
	out := make(map[string][]int)
	for _, e := range s.Entries {
		msg := e.Message()
		if msg == nil {
			continue
		}
		for _, b := range msg.Blocks() {
			if b.Type() == BlockToolResult && b.ToolResultID() != "" {
				out[b.ToolResultID()] = append(out[b.ToolResultID()], e.Line)
			}
		}
	}
	return out
}

// Children returns every entry whose parentUuid points at uuid.
func (s *ClaudeSession) Children(uuid string) []*ClaudeEntry {
	var out []*ClaudeEntry
	for _, e := range s.Entries {
		ref := e.ParentUUID()
		if ref.Points() && ref.UUID == uuid {
			out = append(out, e)
		}
	}
	return out
}

// VisibleChain reconstructs the chronological chain of messages the agent
// will re-present at resume time (spec.md §3.2 "Visible chain"): start at
// the last user/assistant entry that is not an API-error, then walk
// parentUuid backward until null or an unknown uuid, then reverse to
// chronological order.
func (s *ClaudeSession) VisibleChain() []*ClaudeEntry {
	var tail *ClaudeEntry
	for i := len(s.Entries) - 1; i >= 0; i-- {
		e := s.Entries[i]
		t := e.Type()
		if (t == TypeUser || t == TypeAssistant) && !e.IsAPIError() {
			tail = e
			break
		}
	}
	if tail == nil {
		return nil
	}

	var chain []*ClaudeEntry
	seen := make(map[*ClaudeEntry]bool)
	cur := tail
	for {
		if seen[cur] {
			break // defensive: a cycle must never be walked forever
		}
		seen[cur] = true
		chain = append(chain, cur)

		ref := cur.ParentUUID()
		if !ref.Points() {
			break
		}
		next, ok := s.byUUID[ref.UUID]
		if !ok {
			break
		}
		cur = next
	}

	// reverse to chronological order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// AssistantTurn returns the equivalence class of an assistant entry: the
// entry itself plus the transitive closure of assistant descendants
// reachable through parentUuid (spec.md §3.2 "Assistant-turn equivalence
// class"). Returns nil if root is not an assistant entry.
func (s *ClaudeSession) AssistantTurn(root *ClaudeEntry) []*ClaudeEntry {
	if root.Type() != TypeAssistant {
		return nil
	}
	turn := []*ClaudeEntry{root}
	queue := []*ClaudeEntry{root}
	seen := map[string]bool{root.UUID(): true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range s.Children(cur.UUID()) {
			if child.Type() != TypeAssistant {
				continue
			}
			if u := child.UUID(); u != "" && seen[u] {
				continue
			}
			if u := child.UUID(); u != "" {
				seen[u] = true
			}
			turn = append(turn, child)
			queue = append(queue, child)
		}
	}
	return turn
}

// MergedAssistantChain walks backward from leaf through assistant parents
// that share a merge key, returning the chain in chronological order. Used
// by both the resume-chain validator (spec.md §4.3) and the streaming-chunk
// collapse fixer (spec.md §4.7).
func (s *ClaudeSession) MergedAssistantChain(leaf *ClaudeEntry) []*ClaudeEntry {
	if leaf.Type() != TypeAssistant {
		return []*ClaudeEntry{leaf}
	}
	key, hasKey := leaf.MergeKey()
	chain := []*ClaudeEntry{leaf}
	cur := leaf
	for {
		ref := cur.ParentUUID()
		if !ref.Points() {
			break
		}
		parent, ok := s.byUUID[ref.UUID]
		if !ok || parent.Type() != TypeAssistant {
			break
		}
		parentKey, parentHasKey := parent.MergeKey()
		if !hasKey || !parentHasKey || parentKey != key {
			break
		}
		chain = append(chain, parent)
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
