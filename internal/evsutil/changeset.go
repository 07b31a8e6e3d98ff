// Package evsutil holds the domain-agnostic utilities spec.md §2 groups
// under component M: change-set descriptions, amount-spec parsing, and a
// diff helper for human-readable reports.
package evsutil

import "fmt"

// ChangeKind identifies one kind of line-level edit in a ChangeSet
// (spec.md §4.4 "Emit a change set").
type ChangeKind int

const (
	DeleteLine ChangeKind = iota
	UpdateLine
	InsertAfter
)

func (k ChangeKind) String() string {
	switch k {
	case DeleteLine:
		return "delete_line"
	case UpdateLine:
		return "update_line"
	case InsertAfter:
		return "insert_after"
	default:
		return "unknown"
	}
}

// Change is one entry of a ChangeSet.
type Change struct {
	Kind ChangeKind
	// Line is the affected line for DeleteLine/UpdateLine.
	Line int
	// AfterLine is the anchor line for InsertAfter (0 means "at position
	// 0", i.e. before every existing line).
	AfterLine int
	Reason    string
	// NewValue is the replacement/inserted JSON, present for
	// UpdateLine/InsertAfter.
	NewValue []byte
}

// ChangeSet is the human-readable description of what an operation did (or,
// for a refused operation, what it would have done — spec.md §7).
type ChangeSet struct {
	Changes []Change
}

// Delete records a line removal with its reason.
func (c *ChangeSet) Delete(line int, reason string) {
	c.Changes = append(c.Changes, Change{Kind: DeleteLine, Line: line, Reason: reason})
}

// Update records a line rewrite with its reason.
func (c *ChangeSet) Update(line int, newValue []byte, reason string) {
	c.Changes = append(c.Changes, Change{Kind: UpdateLine, Line: line, NewValue: newValue, Reason: reason})
}

// Insert records a new line inserted after afterLine (0 = at the start).
func (c *ChangeSet) Insert(afterLine int, newValue []byte, reason string) {
	c.Changes = append(c.Changes, Change{Kind: InsertAfter, AfterLine: afterLine, NewValue: newValue, Reason: reason})
}

// DeletedLines returns the set of line numbers marked for deletion.
func (c *ChangeSet) DeletedLines() map[int]bool {
	out := make(map[int]bool)
	for _, ch := range c.Changes {
		if ch.Kind == DeleteLine {
			out[ch.Line] = true
		}
	}
	return out
}

// Summary renders a short human-readable description of the change set,
// one line per change, for dry-run/report output (spec.md §7).
func (c *ChangeSet) Summary() []string {
	out := make([]string, 0, len(c.Changes))
	for _, ch := range c.Changes {
		switch ch.Kind {
		case DeleteLine:
			out = append(out, fmt.Sprintf("delete line %d: %s", ch.Line, ch.Reason))
		case UpdateLine:
			out = append(out, fmt.Sprintf("update line %d: %s", ch.Line, ch.Reason))
		case InsertAfter:
			out = append(out, fmt.Sprintf("insert after line %d: %s", ch.AfterLine, ch.Reason))
		}
	}
	return out
}
