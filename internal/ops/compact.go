package ops

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/model"
)

// CompactClaude replaces the oldest amount-worth of the visible chain with
// a single synthetic summary entry (spec.md §4.7 "compact"). The anchor the
// summary attaches at depends on what the selection expansion pulled in
// around the cut point:
//
//  1. the cut lands on a clean turn boundary: the summary becomes the new
//     root and the first surviving entry is relinked to it.
//  2. the cut splits a tool_use/tool_result pair: pairing expansion pulls
//     the result (or call) across the boundary so neither is orphaned.
//  3. the cut splits a merged streaming-chunk chain: expansion pulls the
//     rest of the chain across the boundary for the same reason.
//  4. amount resolves to zero messages: compact is a no-op and returns the
//     session unchanged.
func CompactClaude(s *model.ClaudeSession, amount evsutil.Amount, summaryText string, nowRFC3339 string) ClaudeResult {
	chain := s.VisibleChain()
	n := trimCount(amount, len(chain), 0)
	if n <= 0 {
		var cs evsutil.ChangeSet
		return ClaudeResult{Entries: s.Entries, Changes: cs}
	}
	if n > len(chain) {
		n = len(chain)
	}

	initial := make(map[int]string, n)
	for _, e := range chain[:n] {
		initial[e.Line] = "folded into compaction summary"
	}

	sel := NewSelection(initial)
	ExpandClaudeForCompaction(s, sel)

	template := firstSelectedInOrder(s, sel)
	summary := buildSummaryEntry(template, summaryText, nowRFC3339)

	relinkLog := relinkAroundSummary(s, sel, summary)

	var cs evsutil.ChangeSet
	var out []*model.ClaudeEntry
	inserted := false
	for _, e := range s.Entries {
		if sel.Has(e.Line) {
			if !inserted {
				out = append(out, summary)
				cs.Insert(e.Line-1, mustMarshal(summary), "compaction summary")
				inserted = true
			}
			cs.Delete(e.Line, sel.Reason(e.Line))
			continue
		}
		out = append(out, e)
	}
	if !inserted {
		out = append([]*model.ClaudeEntry{summary}, out...)
		cs.Insert(0, mustMarshal(summary), "compaction summary")
	}
	for _, rel := range relinkLog.Entries {
		cs.Update(rel.Line, nil, rel.Reason)
	}

	return ClaudeResult{Entries: out, Changes: cs, RelinkLog: relinkLog}
}

func firstSelectedInOrder(s *model.ClaudeSession, sel *Selection) *model.ClaudeEntry {
	for _, e := range s.Entries {
		if sel.Has(e.Line) {
			return e
		}
	}
	return nil
}

// buildSummaryEntry synthesizes a new entry of type "summary" carrying the
// env fields (cwd, gitBranch, version, sessionId, slug, userType) copied
// from template, per spec.md §4.7 step 4.
func buildSummaryEntry(template *model.ClaudeEntry, text string, nowRFC3339 string) *model.ClaudeEntry {
	msg, _ := model.ParseMessage([]byte(`{"role":"assistant","content":[]}`))
	msg.SetStringContent(text)

	raw := fmt.Sprintf(`{"type":%q,"uuid":%q,"parentUuid":null,"timestamp":%q}`,
		model.TypeSummary, uuid.NewString(), nowRFC3339)
	entry, err := model.ParseClaudeEntry(0, []byte(raw))
	if err != nil {
		// buildSummaryEntry only ever marshals a literal it constructed
		// itself; a failure here means the literal is malformed, a
		// programmer error rather than a runtime condition.
		panic(err)
	}
	entry.SetMessage(msg)
	if template != nil {
		entry.CopyEnvFrom(template)
	}
	return entry
}

// relinkAroundSummary repoints every surviving entry whose parent was
// removed at the summary, making the summary the parent anchor for
// whatever used to point into the removed range. It never relinks to a
// surviving ancestor of the removed range.
func relinkAroundSummary(s *model.ClaudeSession, sel *Selection, summary *model.ClaudeEntry) *ChangeLog {
	log := &ChangeLog{}
	for _, e := range s.Entries {
		if sel.Has(e.Line) {
			continue
		}
		ref := e.ParentUUID()
		if !ref.Points() {
			continue
		}
		parent, ok := s.ByUUID(ref.UUID)
		if !ok || !sel.Has(parent.Line) {
			continue
		}
		e.SetParentUUID(summary.UUID())
		log.Add(e.Line, "relinked to compaction summary")
	}
	return log
}

func mustMarshal(e *model.ClaudeEntry) []byte {
	data, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	return data
}
