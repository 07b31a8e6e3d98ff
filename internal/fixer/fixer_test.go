package fixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eversession/evs/internal/model"
)

func parseClaude(t *testing.T, content string) *model.ClaudeSession {
	t.Helper()
	s, err := model.ParseClaudeSession([]byte(content))
	require.NoError(t, err)
	return s
}

func TestRepairBrokenParentUUIDsRelinksToRoot(t *testing.T) {
	content := `{"type":"assistant","uuid":"a1","parentUuid":"missing"}` + "\n"
	s := parseClaude(t, content)

	r := RepairBrokenParentUUIDs(s)
	assert.Equal(t, 1, r.Fixed)

	e, ok := s.ByUUID("a1")
	require.True(t, ok)
	assert.True(t, e.ParentUUID().IsRoot())
}

func TestRepairBrokenParentUUIDsLeavesValidRefsAlone(t *testing.T) {
	content := `{"type":"user","uuid":"u1","parentUuid":null}` + "\n" +
		`{"type":"assistant","uuid":"a1","parentUuid":"u1"}` + "\n"
	s := parseClaude(t, content)

	r := RepairBrokenParentUUIDs(s)
	assert.Equal(t, 0, r.Fixed)
}

func TestFixThinkingBlockOrderMovesThinkingFirst(t *testing.T) {
	content := `{"type":"assistant","uuid":"a1","parentUuid":null,"message":{"role":"assistant","content":[{"type":"text","text":"hi"},{"type":"thinking","thinking":"late"}]}}` + "\n"
	s := parseClaude(t, content)

	out, r := FixThinkingBlockOrder(s)
	assert.Equal(t, 1, r.Fixed)
	require.Len(t, out, 1)

	e, ok := s.ByUUID("a1")
	require.True(t, ok)
	blocks := e.Message().Blocks()
	require.Len(t, blocks, 2)
	assert.True(t, blocks[0].IsThinking())
	assert.Equal(t, "text", blocks[1].Type())
}

func TestFixThinkingBlockOrderNoopWhenAlreadyFirst(t *testing.T) {
	content := `{"type":"assistant","uuid":"a1","parentUuid":null,"message":{"role":"assistant","content":[{"type":"thinking","thinking":"early"},{"type":"text","text":"hi"}]}}` + "\n"
	s := parseClaude(t, content)

	out, r := FixThinkingBlockOrder(s)
	assert.Equal(t, 0, r.Fixed)
	require.Len(t, out, 1)
}

func TestFixThinkingBlockOrderCollapsesStreamingChunks(t *testing.T) {
	content := `{"type":"user","uuid":"u1","parentUuid":null}` + "\n" +
		`{"type":"assistant","uuid":"a1","parentUuid":"u1","message":{"role":"assistant","id":"msg-1","content":[{"type":"text","text":"chunk one"}]}}` + "\n" +
		`{"type":"assistant","uuid":"a2","parentUuid":"a1","message":{"role":"assistant","id":"msg-1","content":[{"type":"thinking","thinking":"late thinking"}]}}` + "\n"
	s := parseClaude(t, content)

	out, r := FixThinkingBlockOrder(s)
	assert.Equal(t, 1, r.Fixed)
	require.Len(t, out, 2, "the earlier streaming chunk collapses into the leaf")

	leaf, ok := s.ByUUID("a2")
	require.True(t, ok)
	blocks := leaf.Message().Blocks()
	require.Len(t, blocks, 2)
	assert.True(t, blocks[0].IsThinking())
	assert.Equal(t, "text", blocks[1].Type())
	assert.True(t, leaf.ParentUUID().Points())
	assert.Equal(t, "u1", leaf.ParentUUID().UUID)

	var remainingUUIDs []string
	for _, e := range out {
		remainingUUIDs = append(remainingUUIDs, e.UUID())
	}
	assert.NotContains(t, remainingUUIDs, "a1")
}

func TestStripThinkingBlocksLeavesPlaceholderTextWhenEmptied(t *testing.T) {
	content := `{"type":"assistant","uuid":"a1","parentUuid":null,"message":{"role":"assistant","content":[{"type":"thinking","thinking":"secret"}]}}` + "\n"
	s := parseClaude(t, content)

	r := StripThinkingBlocks(s)
	assert.Equal(t, 1, r.Fixed)

	e, ok := s.ByUUID("a1")
	require.True(t, ok)
	blocks := e.Message().Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, model.BlockText, blocks[0].Type())
	assert.Equal(t, "", blocks[0].Text())
}

func TestRemoveAPIErrorMessagesDropsSyntheticEntries(t *testing.T) {
	content := `{"type":"user","uuid":"u1","parentUuid":null}` + "\n" +
		`{"type":"assistant","uuid":"a1","parentUuid":"u1","isApiErrorMessage":true}` + "\n"
	s := parseClaude(t, content)

	out, r := RemoveAPIErrorMessages(s)
	assert.Equal(t, 1, r.Fixed)
	require.Len(t, out, 1)
	assert.Equal(t, "u1", out[0].UUID())
}

func wrappedCodexLine(payload string) string {
	return `{"timestamp":"2026-01-01T00:00:00Z","type":"response_item","payload":` + payload + `}`
}

func TestInsertAbortedOutputsSynthesizesMissingOutput(t *testing.T) {
	content := wrappedCodexLine(`{"type":"function_call","call_id":"call-1","name":"bash","arguments":"{}"}`) + "\n"
	s, err := model.ParseCodexSession([]byte(content), false)
	require.NoError(t, err)

	out, r := InsertAbortedOutputs(s)
	assert.Equal(t, 1, r.Fixed)
	require.Len(t, out, 2)
	assert.Equal(t, model.PayloadFunctionCallOutput, out[1].PayloadType())
	assert.Equal(t, "call-1", out[1].CallID())
}

func TestInsertAbortedOutputsLeavesCompletePairsAlone(t *testing.T) {
	content := wrappedCodexLine(`{"type":"function_call","call_id":"call-1","name":"bash","arguments":"{}"}`) + "\n" +
		wrappedCodexLine(`{"type":"function_call_output","call_id":"call-1","output":"ok"}`) + "\n"
	s, err := model.ParseCodexSession([]byte(content), false)
	require.NoError(t, err)

	out, r := InsertAbortedOutputs(s)
	assert.Equal(t, 0, r.Fixed)
	assert.Len(t, out, 2)
}
