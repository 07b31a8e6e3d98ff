package ops

import (
	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/model"
)

// ClaudeResult is the outcome of a structural operation: the rewritten
// entry list, the change set describing what happened, and the log of
// parent relinking decisions.
type ClaudeResult struct {
	Entries   []*model.ClaudeEntry
	Changes   evsutil.ChangeSet
	RelinkLog *ChangeLog
}

// RemoveClaude drops every entry whose line is in initial (plus whatever
// the pairing expansion pulls in), relinks survivors, and returns the
// rewritten entry list in original order (spec.md §4.4 "remove"). Unlike
// compact and trim, plain remove does not expand to whole assistant turns by
// default.
func RemoveClaude(s *model.ClaudeSession, initial map[int]string) ClaudeResult {
	return removeClaude(s, initial, false)
}

func removeClaude(s *model.ClaudeSession, initial map[int]string, expandTurns bool) ClaudeResult {
	sel := NewSelection(initial)
	if expandTurns {
		ExpandClaudeForCompaction(s, sel)
	} else {
		ExpandClaude(s, sel)
	}
	relinkLog := RelinkClaude(s, sel)

	var cs evsutil.ChangeSet
	var out []*model.ClaudeEntry
	for _, e := range s.Entries {
		if sel.Has(e.Line) {
			cs.Delete(e.Line, sel.Reason(e.Line))
			continue
		}
		out = append(out, e)
	}
	for _, rel := range relinkLog.Entries {
		cs.Update(rel.Line, nil, rel.Reason)
	}

	return ClaudeResult{Entries: out, Changes: cs, RelinkLog: relinkLog}
}

// CodexResult is the Agent-X analogue of ClaudeResult.
type CodexResult struct {
	Entries []*model.CodexEntry
	Changes evsutil.ChangeSet
}

// RemoveCodex drops every entry whose line is in initial (plus whatever the
// call/output pairing expansion pulls in). Agent-X entries carry no parent
// pointers, so there is no relink pass.
func RemoveCodex(s *model.CodexSession, initial map[int]string) CodexResult {
	sel := NewSelection(initial)
	ExpandCodex(s, sel)

	var cs evsutil.ChangeSet
	var out []*model.CodexEntry
	for _, e := range s.Entries {
		if sel.Has(e.Line) {
			cs.Delete(e.Line, sel.Reason(e.Line))
			continue
		}
		out = append(out, e)
	}

	return CodexResult{Entries: out, Changes: cs}
}
