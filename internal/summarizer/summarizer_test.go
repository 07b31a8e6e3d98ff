package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eversession/evs/internal/model"
)

func TestRenderClaudeChainDropsThinkingBlocks(t *testing.T) {
	raw := `{"type":"assistant","uuid":"a1","parentUuid":null,"message":{"role":"assistant","content":[{"type":"thinking","thinking":"secret reasoning"},{"type":"text","text":"visible reply"}]}}`
	entry, err := model.ParseClaudeEntry(1, []byte(raw))
	require.NoError(t, err)

	text := renderClaudeChain([]*model.ClaudeEntry{entry})
	assert.Contains(t, text, "visible reply")
	assert.NotContains(t, text, "secret reasoning")
}

func TestRenderClaudeChainStringContent(t *testing.T) {
	raw := `{"type":"user","uuid":"u1","parentUuid":null,"message":{"role":"user","content":"plain text message"}}`
	entry, err := model.ParseClaudeEntry(1, []byte(raw))
	require.NoError(t, err)

	text := renderClaudeChain([]*model.ClaudeEntry{entry})
	assert.Contains(t, text, "plain text message")
	assert.Contains(t, text, "[user]")
}

func TestRenderCodexEntriesIncludesPayloadType(t *testing.T) {
	raw := `{"timestamp":"2024-01-01T00:00:00Z","type":"response_item","payload":{"type":"message","content":"hi"}}`
	entry, err := model.ParseCodexWrappedEntry(1, []byte(raw))
	require.NoError(t, err)

	text := renderCodexEntries([]*model.CodexEntry{entry})
	assert.Contains(t, text, "message")
}
