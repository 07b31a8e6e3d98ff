package ops

import (
	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/model"
)

// TrimClaude removes cutoffLines, the oldest messages of the visible chain
// (spec.md §4.5 "trim") as ResolveTrimCutoff computes them from a count, a
// percentage of the visible chain's length, or a token budget resolved by
// the caller. That cutoff only ever selects from the front of the chain; it
// never reaches into sidechains or non-visible branches. Like compact, trim
// expands its selection to whole assistant turns by default so it never
// splits a streamed reply across the cutoff.
func TrimClaude(s *model.ClaudeSession, cutoffLines map[int]string) ClaudeResult {
	return removeClaude(s, cutoffLines, true)
}

// ResolveTrimCutoff turns an Amount into the set of leading visible-chain
// lines to remove, in terms of message count. Count and percent amounts are
// resolved here against the chain length; token amounts are expected to
// already have been converted to an equivalent message count (messageCount)
// by the caller (internal/tokens owns that conversion).
func ResolveTrimCutoff(s *model.ClaudeSession, amount evsutil.Amount, messageCount int) map[int]string {
	chain := s.VisibleChain()
	n := trimCount(amount, len(chain), messageCount)
	if n <= 0 {
		return nil
	}
	if n > len(chain) {
		n = len(chain)
	}

	out := make(map[int]string, n)
	for _, e := range chain[:n] {
		out[e.Line] = "trimmed: oldest visible message"
	}
	return out
}

func trimCount(amount evsutil.Amount, chainLen, resolvedCount int) int {
	var n int
	switch amount.Kind {
	case evsutil.AmountCount:
		n = int(amount.Value)
	case evsutil.AmountPercent:
		n = int(amount.Value / 100 * float64(chainLen))
	default:
		// Tokens/PercentTokens are pre-resolved by internal/tokens into an
		// equivalent message count before reaching here.
		n = resolvedCount
	}
	if amount.KeepLast {
		// "keep last n messages, remove the rest" (spec.md §4.5 keep_last):
		// n names how many survive, so the removal count is the complement.
		n = chainLen - n
	}
	if n < 0 {
		n = 0
	}
	return n
}
