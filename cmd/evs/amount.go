package main

import (
	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/model"
	"github.com/eversession/evs/internal/tokens"
)

// resolveClaudeMessageCount turns a token or percent-of-tokens amount into
// an equivalent message count against s's visible chain, per spec.md §4.8;
// count and percent amounts pass straight through to ops, which resolves
// them itself.
func resolveClaudeMessageCount(s *model.ClaudeSession, amount evsutil.Amount) int {
	chain := s.VisibleChain()
	switch amount.Kind {
	case evsutil.AmountTokens:
		cutoff, _ := tokens.PlanClaudePrefixRemoval(chain, int(amount.Value))
		return cutoff
	case evsutil.AmountPercentTokens:
		total := tokens.CountClaudeChain(chain)
		target := tokens.ResolveAmountToTokenTarget(amount.Value, total)
		cutoff, _ := tokens.PlanClaudePrefixRemoval(chain, target)
		return cutoff
	default:
		return 0
	}
}

// resolveCodexMessageCount is the Agent-X analogue of
// resolveClaudeMessageCount.
func resolveCodexMessageCount(s *model.CodexSession, amount evsutil.Amount) (cutoffCount int, tokensRemoved int) {
	switch amount.Kind {
	case evsutil.AmountTokens:
		return tokens.PlanCodexPrefixRemoval(s.Entries, int(amount.Value))
	case evsutil.AmountPercentTokens:
		total := tokens.CountCodexSession(s.Entries)
		target := tokens.ResolveAmountToTokenTarget(amount.Value, total)
		return tokens.PlanCodexPrefixRemoval(s.Entries, target)
	default:
		return 0, 0
	}
}
