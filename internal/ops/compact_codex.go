package ops

import (
	"fmt"

	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/model"
)

// CompactCodex replaces the oldest amount-worth of entries with a single
// synthetic "compacted" envelope (spec.md §4.7, Agent-X variant). The
// amount counts every parsed entry in file order, not only response_item
// entries. Unlike Agent-C, Agent-X has no parent pointers to relink: the
// envelope stream is strictly ordered, so compaction is just a prefix
// replacement.
func CompactCodex(s *model.CodexSession, amount evsutil.Amount, summaryText string, nowRFC3339 string) CodexResult {
	n := trimCount(amount, len(s.Entries), 0)
	if n <= 0 {
		var cs evsutil.ChangeSet
		return CodexResult{Entries: s.Entries, Changes: cs}
	}
	if n > len(s.Entries) {
		n = len(s.Entries)
	}

	initial := make(map[int]string, n)
	for _, e := range s.Entries[:n] {
		initial[e.Line] = "folded into compaction summary"
	}
	sel := NewSelection(initial)
	ExpandCodex(s, sel)

	summary := buildCompactedEnvelope(summaryText, nowRFC3339)

	var cs evsutil.ChangeSet
	var out []*model.CodexEntry
	inserted := false
	for _, e := range s.Entries {
		if sel.Has(e.Line) {
			if !inserted {
				out = append(out, summary)
				inserted = true
			}
			cs.Delete(e.Line, sel.Reason(e.Line))
			continue
		}
		out = append(out, e)
	}
	if !inserted {
		out = append([]*model.CodexEntry{summary}, out...)
	}

	return CodexResult{Entries: out, Changes: cs}
}

func buildCompactedEnvelope(text, nowRFC3339 string) *model.CodexEntry {
	raw := fmt.Sprintf(`{"timestamp":%q,"type":%q,"payload":{"type":"compacted","summary":%q}}`,
		nowRFC3339, model.CodexTypeCompacted, text)
	entry, err := model.ParseCodexWrappedEntry(0, []byte(raw))
	if err != nil {
		panic(err)
	}
	return entry
}
