// Package ops implements the structural operation kernel shared by
// remove, trim, clean, and compact (spec.md §4.4): a selection-expansion
// pass that grows an initial set of "lines to remove" until it no longer
// violates the tool-pairing and thinking-order invariants, followed by a
// rewrite pass that relinks parent pointers around whatever got removed.
package ops

import "github.com/eversession/evs/internal/model"

// maxExpansionPasses bounds the selection-expansion fixpoint; any real
// transcript converges in a handful of passes, this is a defensive ceiling
// against a pathological or adversarial input.
const maxExpansionPasses = 100

// maxRelinkHops bounds the parent-relinking walk for the same reason.
const maxRelinkHops = 100

// Selection is the growing set of lines marked for removal, plus the
// reasons they were added (for report output).
type Selection struct {
	lines   map[int]bool
	reasons map[int]string
}

// NewSelection seeds a selection from an initial set of lines.
func NewSelection(initial map[int]string) *Selection {
	s := &Selection{lines: make(map[int]bool), reasons: make(map[int]string)}
	for line, reason := range initial {
		s.lines[line] = true
		s.reasons[line] = reason
	}
	return s
}

func (s *Selection) add(line int, reason string) bool {
	if s.lines[line] {
		return false
	}
	s.lines[line] = true
	s.reasons[line] = reason
	return true
}

// Has reports whether line is selected for removal.
func (s *Selection) Has(line int) bool { return s.lines[line] }

// Lines returns the selected line numbers in no particular order.
func (s *Selection) Lines() map[int]bool { return s.lines }

// Reason returns why a line was selected.
func (s *Selection) Reason(line int) string { return s.reasons[line] }

// ExpandClaude grows sel by fixpoint iteration until a pass adds nothing
// new, or maxExpansionPasses is hit: whenever one side of a tool_use/
// tool_result pair is selected, the other is pulled in too, so an operation
// never leaves a dangling call or result behind.
func ExpandClaude(s *model.ClaudeSession, sel *Selection) {
	toolUse := s.ToolUseLines()
	toolResult := s.ToolResultLines()

	for pass := 0; pass < maxExpansionPasses; pass++ {
		added := false

		for id, useLines := range toolUse {
			resultLines, hasResult := toolResult[id]
			useSelected := anySelected(sel, useLines)
			resultSelected := hasResult && anySelected(sel, resultLines)
			if useSelected && !resultSelected && hasResult {
				for _, l := range resultLines {
					if sel.add(l, "paired tool_use removed") {
						added = true
					}
				}
			}
			if resultSelected && !useSelected {
				for _, l := range useLines {
					if sel.add(l, "paired tool_result removed") {
						added = true
					}
				}
			}
		}

		if !added {
			return
		}
	}
}

// ExpandAssistantTurns applies spec.md §4.4 stage-1 rule 2: for every
// assistant turn (a root assistant entry plus its assistant descendants
// reached through parentUuid) with any member already selected, pulls in
// every other member, so an operation never splits one logical turn across
// the removed/surviving boundary.
func ExpandAssistantTurns(s *model.ClaudeSession, sel *Selection) {
	seen := make(map[int]bool)
	for _, e := range s.Entries {
		if e.Type() != model.TypeAssistant || seen[e.Line] {
			continue
		}
		turn := s.AssistantTurn(e)
		for _, m := range turn {
			seen[m.Line] = true
		}
		if !anyTurnSelected(sel, turn) {
			continue
		}
		for _, m := range turn {
			sel.add(m.Line, "member of assistant turn with a removed entry")
		}
	}
}

func anyTurnSelected(sel *Selection, turn []*model.ClaudeEntry) bool {
	for _, e := range turn {
		if sel.Has(e.Line) {
			return true
		}
	}
	return false
}

// ExpandClaudeForCompaction runs the full stage-1 expansion compact and trim
// use by default (spec.md §4.4: tool pairing plus assistant-turn closure,
// iterated to a joint fixpoint since pulling in a turn member can expose a
// new unpaired tool_use/tool_result, and vice versa).
func ExpandClaudeForCompaction(s *model.ClaudeSession, sel *Selection) {
	for pass := 0; pass < maxExpansionPasses; pass++ {
		before := len(sel.Lines())
		ExpandClaude(s, sel)
		ExpandAssistantTurns(s, sel)
		if len(sel.Lines()) == before {
			return
		}
	}
}

func anySelected(sel *Selection, lines []int) bool {
	for _, l := range lines {
		if sel.Has(l) {
			return true
		}
	}
	return false
}

// ExpandCodex is the Agent-X analogue of ExpandClaude: a selected call or
// output pulls its counterpart(s) in too.
func ExpandCodex(s *model.CodexSession, sel *Selection) {
	calls := s.Calls()
	outputs := s.Outputs()

	for pass := 0; pass < maxExpansionPasses; pass++ {
		added := false

		for id, callEntries := range calls {
			outEntries, hasOut := outputs[id]
			callLines := entryLines(callEntries)
			outLines := entryLines(outEntries)
			callSelected := anySelected(sel, callLines)
			outSelected := hasOut && anySelected(sel, outLines)

			if callSelected && !outSelected && hasOut {
				for _, l := range outLines {
					if sel.add(l, "paired call removed") {
						added = true
					}
				}
			}
			if outSelected && !callSelected {
				for _, l := range callLines {
					if sel.add(l, "paired output removed") {
						added = true
					}
				}
			}
		}

		if !added {
			return
		}
	}
}

func entryLines(entries []*model.CodexEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Line
	}
	return out
}
