// Package tokens implements the token-accounting rules of spec.md §4.8
// (component H): a per-message counting heuristic that differs by
// transcript format, and the deterministic prefix-removal planner that
// turns a token budget into a concrete line cutoff for trim/compact.
package tokens

import (
	"github.com/eversession/evs/internal/model"
)

// bytesPerToken approximates the encoder EVS does not link against: good
// enough for budget planning, not for exact accounting (spec.md §4.8 "an
// approximation is acceptable; EVS does not call a tokenizer"; the formula
// is ceil(bytes_utf8/4), counting UTF-8 bytes rather than runes since that
// is what the spec's Agent-X budget formula is defined over).
const bytesPerToken = 4

// estimate returns an approximate token count for a string.
func estimate(s string) int {
	n := len(s)
	if n == 0 {
		return 0
	}
	return (n + bytesPerToken - 1) / bytesPerToken
}

// CountClaudeMessage estimates the token cost of one Agent-C entry: its
// string content, or the concatenated text of its blocks plus a fixed
// per-block overhead for tool_use/tool_result payloads (their JSON
// arguments/output count toward the budget even though they're not prose).
func CountClaudeMessage(e *model.ClaudeEntry) int {
	msg := e.Message()
	if msg == nil {
		return 0
	}
	if msg.IsStringContent() {
		return estimate(msg.StringContent())
	}

	total := 0
	for _, b := range msg.Blocks() {
		switch b.Type() {
		case model.BlockText, model.BlockThinking:
			total += estimate(b.Text())
		case model.BlockToolUse:
			total += estimate(string(b.ToolInput())) + 4
		case model.BlockToolResult:
			total += estimate(string(b.ToolResultContent())) + 4
		case model.BlockRedactedThinking:
			total += 8
		}
	}
	return total
}

// CountClaudeChain sums CountClaudeMessage over a slice of entries, the
// shape VisibleChain() and AssistantTurn() return.
func CountClaudeChain(entries []*model.ClaudeEntry) int {
	total := 0
	for _, e := range entries {
		total += CountClaudeMessage(e)
	}
	return total
}

// CountCodexEntry estimates the token cost of one Agent-X response_item:
// the message text, or the function-call/output payload's raw arguments or
// output string.
func CountCodexEntry(e *model.CodexEntry) int {
	p := e.Payload()
	if p == nil {
		return 0
	}
	total := 0
	for _, key := range []string{"content", "text", "arguments", "output"} {
		if raw, ok := p[key]; ok {
			total += estimate(string(raw))
		}
	}
	if total == 0 {
		// Unrecognized payload shape: fall back to the whole payload's
		// serialized size rather than reporting zero cost.
		for _, raw := range p {
			total += estimate(string(raw))
		}
	}
	return total
}

// CountCodexSession sums CountCodexEntry over every response_item entry.
func CountCodexSession(entries []*model.CodexEntry) int {
	total := 0
	for _, e := range entries {
		if e.Type() == model.CodexTypeResponseItem || e.Kind != model.CodexWrapped {
			total += CountCodexEntry(e)
		}
	}
	return total
}

// PlanClaudePrefixRemoval walks the visible chain from the oldest entry
// forward, accumulating token cost, and returns the smallest prefix whose
// cumulative cost is >= targetTokens. This is the deterministic planner
// spec.md §4.8 requires: given the same chain and target twice, it always
// returns the same cutoff.
func PlanClaudePrefixRemoval(chain []*model.ClaudeEntry, targetTokens int) (cutoffCount int, tokensRemoved int) {
	if targetTokens <= 0 {
		return 0, 0
	}
	acc := 0
	for i, e := range chain {
		acc += CountClaudeMessage(e)
		if acc >= targetTokens {
			return i + 1, acc
		}
	}
	return len(chain), acc
}

// PlanCodexPrefixRemoval is the Agent-X analogue of
// PlanClaudePrefixRemoval.
func PlanCodexPrefixRemoval(entries []*model.CodexEntry, targetTokens int) (cutoffCount int, tokensRemoved int) {
	if targetTokens <= 0 {
		return 0, 0
	}
	acc := 0
	for i, e := range entries {
		acc += CountCodexEntry(e)
		if acc >= targetTokens {
			return i + 1, acc
		}
	}
	return len(entries), acc
}

// ResolveAmountToTokenTarget converts a percent-of-total amount into an
// absolute token target against a known total, used when the caller's
// Amount.Kind is AmountPercentTokens.
func ResolveAmountToTokenTarget(percent float64, totalTokens int) int {
	return int(percent / 100 * float64(totalTokens))
}
