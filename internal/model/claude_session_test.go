package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(t *testing.T, typ, uuid, parent string, extra string) string {
	t.Helper()
	parentField := `"parentUuid":null`
	if parent != "" {
		parentField = `"parentUuid":"` + parent + `"`
	}
	return `{"type":"` + typ + `","uuid":"` + uuid + `",` + parentField + extra + `}`
}

func TestParseClaudeSessionBasicChain(t *testing.T) {
	content := line(t, TypeUser, "u1", "", `,"message":{"role":"user","content":"hi"}`) + "\n" +
		line(t, TypeAssistant, "a1", "u1", `,"message":{"role":"assistant","content":[{"type":"text","text":"hello"}]}`) + "\n"

	s, err := ParseClaudeSession([]byte(content))
	require.NoError(t, err)
	require.Len(t, s.Entries, 2)
	assert.Equal(t, 2, s.TotalLines)
	assert.Empty(t, s.Invalid)

	u, ok := s.ByUUID("u1")
	require.True(t, ok)
	assert.Equal(t, TypeUser, u.Type())

	a, ok := s.ByUUID("a1")
	require.True(t, ok)
	assert.True(t, a.ParentUUID().Points())
	assert.Equal(t, "u1", a.ParentUUID().UUID)
}

func TestParseClaudeSessionKeepsInvalidLines(t *testing.T) {
	content := line(t, TypeUser, "u1", "", "") + "\nnot json at all\n" + line(t, TypeAssistant, "a1", "u1", "") + "\n"
	s, err := ParseClaudeSession([]byte(content))
	require.NoError(t, err)
	assert.Len(t, s.Entries, 2)
	require.Len(t, s.Invalid, 1)
	assert.Equal(t, 2, s.Invalid[0].Line)
	assert.Equal(t, 3, s.TotalLines)
}

func TestToolUseAndResultLinesPair(t *testing.T) {
	content := line(t, TypeAssistant, "a1", "", `,"message":{"role":"assistant","content":[{"type":"tool_use","id":"tool-1","name":"bash","input":{}}]}`) + "\n" +
		line(t, TypeUser, "u1", "a1", `,"message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tool-1","content":"ok"}]}`) + "\n"

	s, err := ParseClaudeSession([]byte(content))
	require.NoError(t, err)

	useLines := s.ToolUseLines()
	resultLines := s.ToolResultLines()
	require.Contains(t, useLines, "tool-1")
	require.Contains(t, resultLines, "tool-1")
	assert.Equal(t, []int{1}, useLines["tool-1"])
	assert.Equal(t, []int{2}, resultLines["tool-1"])
}

func TestDuplicateUUIDs(t *testing.T) {
	content := line(t, TypeUser, "dup", "", "") + "\n" + line(t, TypeAssistant, "dup", "dup", "") + "\n"
	s, err := ParseClaudeSession([]byte(content))
	require.NoError(t, err)

	dupes := s.DuplicateUUIDs()
	require.Contains(t, dupes, "dup")
	assert.ElementsMatch(t, []int{1, 2}, dupes["dup"])
}

func TestAssistantTurnCollectsMergedChunks(t *testing.T) {
	content := line(t, TypeUser, "u1", "", "") + "\n" +
		line(t, TypeAssistant, "a1", "u1", `,"message":{"role":"assistant","id":"msg1","content":[{"type":"text","text":"part1"}]}`) + "\n" +
		line(t, TypeAssistant, "a2", "a1", `,"message":{"role":"assistant","id":"msg1","content":[{"type":"text","text":"part2"}]}`) + "\n" +
		line(t, TypeUser, "u2", "a2", "") + "\n"

	s, err := ParseClaudeSession([]byte(content))
	require.NoError(t, err)

	a1, ok := s.ByUUID("a1")
	require.True(t, ok)
	turn := s.AssistantTurn(a1)
	require.Len(t, turn, 2)
	assert.Equal(t, "a1", turn[0].UUID())
	assert.Equal(t, "a2", turn[1].UUID())
}

func TestMergedAssistantChainStopsAtDifferentKey(t *testing.T) {
	content := line(t, TypeAssistant, "a1", "", `,"message":{"role":"assistant","id":"msg1","content":[]}`) + "\n" +
		line(t, TypeAssistant, "a2", "a1", `,"message":{"role":"assistant","id":"msg2","content":[]}`) + "\n"

	s, err := ParseClaudeSession([]byte(content))
	require.NoError(t, err)

	a2, ok := s.ByUUID("a2")
	require.True(t, ok)
	chain := s.MergedAssistantChain(a2)
	require.Len(t, chain, 1)
	assert.Equal(t, "a2", chain[0].UUID())
}

func TestVisibleChainFollowsOnlyTheActiveParentChain(t *testing.T) {
	// a1 and a2 are siblings of a3 under the same parent (u1), not its
	// ancestors; VisibleChain walks backward from the last non-API-error
	// user/assistant entry, so only u1 and a3 end up in the chain.
	content := line(t, TypeUser, "u1", "", "") + "\n" +
		line(t, TypeAssistant, "a1", "u1", `,"isSidechain":true`) + "\n" +
		line(t, TypeAssistant, "a2", "u1", `,"isApiErrorMessage":true`) + "\n" +
		line(t, TypeAssistant, "a3", "u1", "") + "\n"

	s, err := ParseClaudeSession([]byte(content))
	require.NoError(t, err)

	chain := s.VisibleChain()
	var uuids []string
	for _, e := range chain {
		uuids = append(uuids, e.UUID())
	}
	assert.Equal(t, []string{"u1", "a3"}, uuids)
}

func TestVisibleChainSkipsTrailingAPIError(t *testing.T) {
	// The tail entry itself must not be an API-error message; VisibleChain
	// steps back to the nearest non-API-error user/assistant entry.
	content := line(t, TypeUser, "u1", "", "") + "\n" +
		line(t, TypeAssistant, "a1", "u1", "") + "\n" +
		line(t, TypeAssistant, "a2", "a1", `,"isApiErrorMessage":true`) + "\n"

	s, err := ParseClaudeSession([]byte(content))
	require.NoError(t, err)

	chain := s.VisibleChain()
	var uuids []string
	for _, e := range chain {
		uuids = append(uuids, e.UUID())
	}
	assert.Equal(t, []string{"u1", "a1"}, uuids)
}
