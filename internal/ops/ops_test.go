package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/model"
)

func claudeLine(typ, uuid, parent string, extra string) string {
	parentField := `"parentUuid":null`
	if parent != "" {
		parentField = `"parentUuid":"` + parent + `"`
	}
	return `{"type":"` + typ + `","uuid":"` + uuid + `",` + parentField + extra + `}`
}

func mustParseClaude(t *testing.T, content string) *model.ClaudeSession {
	t.Helper()
	s, err := model.ParseClaudeSession([]byte(content))
	require.NoError(t, err)
	return s
}

func TestExpandClaudePullsInPairedToolResult(t *testing.T) {
	content := claudeLine(model.TypeAssistant, "a1", "", `,"message":{"role":"assistant","content":[{"type":"tool_use","id":"tool-1","name":"bash","input":{}}]}`) + "\n" +
		claudeLine(model.TypeUser, "u1", "a1", `,"message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tool-1","content":"ok"}]}`) + "\n"
	s := mustParseClaude(t, content)

	sel := NewSelection(map[int]string{1: "removed"})
	ExpandClaude(s, sel)

	assert.True(t, sel.Has(1))
	assert.True(t, sel.Has(2))
}

func TestExpandAssistantTurnsPullsInMergedChunks(t *testing.T) {
	content := claudeLine(model.TypeUser, "u1", "", "") + "\n" +
		claudeLine(model.TypeAssistant, "a1", "u1", `,"message":{"role":"assistant","id":"msg1","content":[{"type":"text","text":"p1"}]}`) + "\n" +
		claudeLine(model.TypeAssistant, "a2", "a1", `,"message":{"role":"assistant","id":"msg1","content":[{"type":"text","text":"p2"}]}`) + "\n"
	s := mustParseClaude(t, content)

	sel := NewSelection(map[int]string{2: "removed"})
	ExpandAssistantTurns(s, sel)

	assert.True(t, sel.Has(2))
	assert.True(t, sel.Has(3))
	assert.False(t, sel.Has(1))
}

func TestRemoveClaudeDoesNotExpandToAssistantTurnsByDefault(t *testing.T) {
	content := claudeLine(model.TypeUser, "u1", "", "") + "\n" +
		claudeLine(model.TypeAssistant, "a1", "u1", `,"message":{"role":"assistant","id":"msg1","content":[{"type":"text","text":"p1"}]}`) + "\n" +
		claudeLine(model.TypeAssistant, "a2", "a1", `,"message":{"role":"assistant","id":"msg1","content":[{"type":"text","text":"p2"}]}`) + "\n"
	s := mustParseClaude(t, content)

	result := RemoveClaude(s, map[int]string{2: "removed"})

	var lines []int
	for _, e := range result.Entries {
		lines = append(lines, e.Line)
	}
	assert.Equal(t, []int{1, 3}, lines)
}

func TestTrimClaudeExpandsToAssistantTurn(t *testing.T) {
	content := claudeLine(model.TypeUser, "u1", "", "") + "\n" +
		claudeLine(model.TypeAssistant, "a1", "u1", `,"message":{"role":"assistant","id":"msg1","content":[{"type":"text","text":"p1"}]}`) + "\n" +
		claudeLine(model.TypeAssistant, "a2", "a1", `,"message":{"role":"assistant","id":"msg1","content":[{"type":"text","text":"p2"}]}`) + "\n"
	s := mustParseClaude(t, content)

	result := TrimClaude(s, map[int]string{2: "trimmed"})

	var lines []int
	for _, e := range result.Entries {
		lines = append(lines, e.Line)
	}
	assert.Equal(t, []int{1}, lines)
}

func TestResolveTrimCutoffKeepLastKeepsTrailingMessages(t *testing.T) {
	content := claudeLine(model.TypeUser, "u1", "", "") + "\n" +
		claudeLine(model.TypeUser, "u2", "u1", "") + "\n" +
		claudeLine(model.TypeUser, "u3", "u2", "") + "\n"
	s := mustParseClaude(t, content)

	amount, err := evsutil.Amount{Kind: evsutil.AmountCount, Value: 1}.ApplyKeepLast()
	require.NoError(t, err)

	cutoff := ResolveTrimCutoff(s, amount, 0)
	assert.Len(t, cutoff, 2)
	_, removedFirst := cutoff[1]
	_, removedSecond := cutoff[2]
	_, removedThird := cutoff[3]
	assert.True(t, removedFirst)
	assert.True(t, removedSecond)
	assert.False(t, removedThird)
}

func TestApplyKeepLastRejectsTokenAmounts(t *testing.T) {
	_, err := evsutil.Amount{Kind: evsutil.AmountTokens, Value: 100}.ApplyKeepLast()
	require.ErrorIs(t, err, evsutil.ErrInvalidAmountMode)
}

func TestRelinkClaudeRepointsToSurvivingAncestor(t *testing.T) {
	content := claudeLine(model.TypeUser, "u1", "", "") + "\n" +
		claudeLine(model.TypeAssistant, "a1", "u1", "") + "\n" +
		claudeLine(model.TypeUser, "u2", "a1", "") + "\n"
	s := mustParseClaude(t, content)

	sel := NewSelection(map[int]string{2: "removed"})
	log := RelinkClaude(s, sel)

	require.Len(t, log.Entries, 1)
	assert.Equal(t, 3, log.Entries[0].Line)

	u2, ok := s.ByUUID("u2")
	require.True(t, ok)
	assert.Equal(t, "u1", u2.ParentUUID().UUID)
}

func TestCleanClaudeRemovesOrphanToolResult(t *testing.T) {
	content := claudeLine(model.TypeUser, "u1", "", `,"message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"missing","content":"x"}]}`) + "\n" +
		claudeLine(model.TypeAssistant, "a1", "u1", "") + "\n"
	s := mustParseClaude(t, content)

	result := CleanClaude(s)

	var lines []int
	for _, e := range result.Entries {
		lines = append(lines, e.Line)
	}
	assert.Equal(t, []int{2}, lines)
}

func TestCompactClaudeInsertsSummaryAndFoldsPrefix(t *testing.T) {
	content := claudeLine(model.TypeUser, "u1", "", `,"message":{"role":"user","content":"hi"}`) + "\n" +
		claudeLine(model.TypeAssistant, "a1", "u1", `,"message":{"role":"assistant","content":[{"type":"text","text":"hello"}]}`) + "\n" +
		claudeLine(model.TypeUser, "u2", "a1", `,"message":{"role":"user","content":"more"}`) + "\n"
	s := mustParseClaude(t, content)

	result := CompactClaude(s, evsutil.Amount{Kind: evsutil.AmountCount, Value: 2}, "summary text", "2026-01-01T00:00:00Z")

	require.Len(t, result.Entries, 2)
	assert.Equal(t, model.TypeSummary, result.Entries[0].Type())
	assert.Equal(t, "u2", result.Entries[1].UUID())
	assert.True(t, result.Entries[1].ParentUUID().Points())
	assert.Equal(t, result.Entries[0].UUID(), result.Entries[1].ParentUUID().UUID)
}

func TestCompactClaudeZeroAmountIsNoop(t *testing.T) {
	content := claudeLine(model.TypeUser, "u1", "", "") + "\n"
	s := mustParseClaude(t, content)

	result := CompactClaude(s, evsutil.Amount{Kind: evsutil.AmountCount, Value: 0}, "summary", "2026-01-01T00:00:00Z")

	assert.Equal(t, s.Entries, result.Entries)
	assert.Empty(t, result.Changes.Changes)
}

func TestRemoveCodexExpandsToPairedOutput(t *testing.T) {
	content := wrappedLine("response_item", `{"type":"function_call","call_id":"call-1","name":"bash","arguments":"{}"}`) + "\n" +
		wrappedLine("response_item", `{"type":"function_call_output","call_id":"call-1","output":"ok"}`) + "\n"
	s, err := model.ParseCodexSession([]byte(content), false)
	require.NoError(t, err)

	result := RemoveCodex(s, map[int]string{1: "removed"})
	assert.Empty(t, result.Entries)
}

func wrappedLine(typ, payload string) string {
	return `{"timestamp":"2026-01-01T00:00:00Z","type":"` + typ + `","payload":` + payload + `}`
}
