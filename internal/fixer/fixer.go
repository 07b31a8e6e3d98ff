// Package fixer implements the repair operations of spec.md §4.6
// (component F): targeted rewrites that fix one invariant violation at a
// time, as opposed to internal/ops's structural remove/trim/compact which
// operate on whole lines. Every fix here is pure over a parsed session and
// returns a report of what it changed; callers decide whether to write the
// result back.
package fixer

import (
	"fmt"

	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/model"
)

// Report describes what a fix pass did.
type Report struct {
	Changes evsutil.ChangeSet
	Fixed   int
}

// RepairBrokenParentUUIDs walks every entry whose parentUuid points at a
// uuid absent from the session and repoints it to root (null), the
// simplest repair for a dangling reference spec.md §4.6 allows (as opposed
// to remove's relink-to-surviving-ancestor, which only applies when the
// ancestor was itself removed by the same operation).
func RepairBrokenParentUUIDs(s *model.ClaudeSession) Report {
	var r Report
	for _, e := range s.Entries {
		ref := e.ParentUUID()
		if !ref.Points() {
			continue
		}
		if _, ok := s.ByUUID(ref.UUID); ok {
			continue
		}
		e.SetParentNull()
		r.Changes.Update(e.Line, nil, fmt.Sprintf("parentUuid %q did not resolve, relinked to root", ref.UUID))
		r.Fixed++
	}
	return r
}

// FixThinkingBlockOrder fixes claude.thinking_block_order_resume_chain
// violations (spec.md §4.6 "fix_thinking_block_order"): it reconstructs the
// same merge-key-linked assistant chains the resume-chain validator checks
// (model.ClaudeSession.MergedAssistantChain), and where the chain's
// concatenated content has thinking but doesn't start with it, collapses the
// chain onto its leaf entry — concatenating every chunk's blocks
// thinking-first and deleting the now-redundant ancestor chunks, which is
// what "resolving the order" means once a message has been split across
// streaming chunks. A lone assistant entry (no chain) is just reordered in
// place, same as before collapse was wired in.
func FixThinkingBlockOrder(s *model.ClaudeSession) ([]*model.ClaudeEntry, Report) {
	var r Report
	seen := map[int]bool{}
	removed := map[int]bool{}

	for _, e := range s.Entries {
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
		if !hasThinkingBlock(blocks) || (len(blocks) > 0 && blocks[0].IsThinking()) {
			continue
		}

		leafMsg := e.Message()
		if leafMsg == nil {
			continue
		}
		leafMsg.SetBlocks(reorderThinkingFirst(blocks))
		e.SetMessage(leafMsg)

		if len(merged) > 1 {
			root := merged[0].ParentUUID()
			if root.Points() {
				e.SetParentUUID(root.UUID)
			} else {
				e.SetParentNull()
			}
			for _, m := range merged[:len(merged)-1] {
				removed[m.Line] = true
				r.Changes.Delete(m.Line, "collapsed into merged assistant chain, thinking blocks moved first")
			}
		}
		r.Changes.Update(e.Line, nil, "reordered content: thinking blocks moved first")
		r.Fixed++
	}

	if len(removed) == 0 {
		return s.Entries, r
	}
	out := make([]*model.ClaudeEntry, 0, len(s.Entries)-len(removed))
	for _, e := range s.Entries {
		if !removed[e.Line] {
			out = append(out, e)
		}
	}
	return out, r
}

func hasThinkingBlock(blocks []model.Block) bool {
	for _, b := range blocks {
		if b.IsThinking() {
			return true
		}
	}
	return false
}

func reorderThinkingFirst(blocks []model.Block) []model.Block {
	var thinking, rest []model.Block
	for _, b := range blocks {
		if b.IsThinking() {
			thinking = append(thinking, b)
		} else {
			rest = append(rest, b)
		}
	}
	return append(thinking, rest...)
}

// StripThinkingBlocks removes every thinking/redacted_thinking block from
// every assistant message (the "hard mode" repair, spec.md §4.7, used when
// reordering isn't acceptable because the thinking content itself is
// suspect). A message left with no blocks gets a single empty text block so
// it remains valid content.
func StripThinkingBlocks(s *model.ClaudeSession) Report {
	var r Report
	for _, e := range s.Entries {
		if e.Type() != model.TypeAssistant {
			continue
		}
		msg := e.Message()
		if msg == nil || msg.IsStringContent() || !msg.HasThinking() {
			continue
		}
		var kept []model.Block
		for _, b := range msg.Blocks() {
			if !b.IsThinking() && b.Type() != model.BlockRedactedThinking {
				kept = append(kept, b)
			}
		}
		if len(kept) == 0 {
			kept = []model.Block{model.NewTextBlock("")}
		}
		msg.SetBlocks(kept)
		e.SetMessage(msg)
		r.Changes.Update(e.Line, nil, "stripped thinking blocks")
		r.Fixed++
	}
	return r
}

// RemoveAPIErrorMessages deletes every synthetic API-error message entry
// (spec.md §4.6 "remove_api_error_messages"). Unlike ops.RemoveClaude this
// never pulls in paired tool entries, since an API-error message carries no
// tool_use/tool_result content of its own to orphan.
func RemoveAPIErrorMessages(s *model.ClaudeSession) ([]*model.ClaudeEntry, Report) {
	var r Report
	var out []*model.ClaudeEntry
	for _, e := range s.Entries {
		if e.IsAPIError() {
			r.Changes.Delete(e.Line, "synthetic API-error message")
			r.Fixed++
			continue
		}
		out = append(out, e)
	}
	return out, r
}
