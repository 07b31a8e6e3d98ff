package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eversession/evs/internal/model"
)

func mustEntry(t *testing.T, line int, json string) *model.ClaudeEntry {
	t.Helper()
	e, err := model.ParseClaudeEntry(line, []byte(json))
	require.NoError(t, err)
	return e
}

func TestCountClaudeMessageStringContent(t *testing.T) {
	e := mustEntry(t, 1, `{"type":"user","uuid":"u1","parentUuid":null,"message":{"role":"user","content":"twelve chars"}}`)
	assert.Equal(t, 3, CountClaudeMessage(e))
}

func TestCountClaudeMessageBlocksWithToolOverhead(t *testing.T) {
	e := mustEntry(t, 1, `{"type":"assistant","uuid":"a1","parentUuid":null,"message":{"role":"assistant","content":[{"type":"tool_use","id":"t1","name":"bash","input":{"cmd":"ls"}}]}}`)
	assert.Greater(t, CountClaudeMessage(e), 4)
}

func TestCountClaudeMessageNoMessageIsZero(t *testing.T) {
	e := mustEntry(t, 1, `{"type":"summary","uuid":"s1","parentUuid":null}`)
	assert.Equal(t, 0, CountClaudeMessage(e))
}

func TestPlanClaudePrefixRemovalIsDeterministicAndMonotonic(t *testing.T) {
	chain := []*model.ClaudeEntry{
		mustEntry(t, 1, `{"type":"user","uuid":"u1","parentUuid":null,"message":{"role":"user","content":"aaaaaaaa"}}`),
		mustEntry(t, 2, `{"type":"assistant","uuid":"a1","parentUuid":"u1","message":{"role":"assistant","content":[{"type":"text","text":"bbbbbbbb"}]}}`),
		mustEntry(t, 3, `{"type":"user","uuid":"u2","parentUuid":"a1","message":{"role":"user","content":"cccccccc"}}`),
	}

	cutoff1, tokens1 := PlanClaudePrefixRemoval(chain, 3)
	cutoff2, tokens2 := PlanClaudePrefixRemoval(chain, 3)
	assert.Equal(t, cutoff1, cutoff2)
	assert.Equal(t, tokens1, tokens2)
	assert.Equal(t, 2, cutoff1)

	cutoffAll, _ := PlanClaudePrefixRemoval(chain, 1000)
	assert.Equal(t, len(chain), cutoffAll)
}

func TestPlanClaudePrefixRemovalZeroTargetIsNoop(t *testing.T) {
	chain := []*model.ClaudeEntry{mustEntry(t, 1, `{"type":"user","uuid":"u1","parentUuid":null,"message":{"role":"user","content":"hi"}}`)}
	cutoff, removed := PlanClaudePrefixRemoval(chain, 0)
	assert.Equal(t, 0, cutoff)
	assert.Equal(t, 0, removed)
}

func TestResolveAmountToTokenTarget(t *testing.T) {
	assert.Equal(t, 40, ResolveAmountToTokenTarget(40, 100))
	assert.Equal(t, 0, ResolveAmountToTokenTarget(0, 1000))
}

func wrappedCodex(payload string) string {
	return `{"timestamp":"2026-01-01T00:00:00Z","type":"response_item","payload":` + payload + `}`
}

func TestCountCodexEntryUsesKnownPayloadKeys(t *testing.T) {
	s, err := model.ParseCodexSession([]byte(wrappedCodex(`{"type":"function_call","call_id":"c1","arguments":"abcdefgh"}`)), false)
	require.NoError(t, err)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, 2, CountCodexEntry(s.Entries[0]))
}

func TestPlanCodexPrefixRemovalDeterministic(t *testing.T) {
	s, err := model.ParseCodexSession([]byte(
		wrappedCodex(`{"type":"function_call","call_id":"c1","arguments":"aaaaaaaaaaaa"}`)+"\n"+
			wrappedCodex(`{"type":"function_call_output","call_id":"c1","output":"bbbbbbbbbbbb"}`)+"\n"), false)
	require.NoError(t, err)
	require.Len(t, s.Entries, 2)

	cutoff1, tokens1 := PlanCodexPrefixRemoval(s.Entries, 3)
	cutoff2, tokens2 := PlanCodexPrefixRemoval(s.Entries, 3)
	assert.Equal(t, cutoff1, cutoff2)
	assert.Equal(t, tokens1, tokens2)
	assert.Equal(t, 1, cutoff1)
}
