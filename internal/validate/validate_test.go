package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eversession/evs/internal/model"
)

func parse(t *testing.T, content string) *model.ClaudeSession {
	t.Helper()
	s, err := model.ParseClaudeSession([]byte(content))
	require.NoError(t, err)
	return s
}

func TestValidateClaudeCleanSessionHasNoErrors(t *testing.T) {
	content := `{"type":"user","uuid":"u1","parentUuid":null,"message":{"role":"user","content":"hi"}}` + "\n" +
		`{"type":"assistant","uuid":"a1","parentUuid":"u1","message":{"role":"assistant","content":[{"type":"text","text":"hello"}]}}` + "\n"
	r := ValidateClaude(parse(t, content))
	assert.Equal(t, 0, r.ErrorCount())
}

func TestValidateClaudeFlagsOrphanToolResult(t *testing.T) {
	content := `{"type":"user","uuid":"u1","parentUuid":null,"message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"missing","content":"ok"}]}}` + "\n"
	r := ValidateClaude(parse(t, content))
	require.NotEmpty(t, r.Issues)
	assert.Equal(t, CodeOrphanToolResult, r.Issues[0].Code)
	assert.Equal(t, Error, r.Issues[0].Severity)
}

func TestValidateClaudeFlagsOrphanToolUseAsWarning(t *testing.T) {
	content := `{"type":"assistant","uuid":"a1","parentUuid":null,"message":{"role":"assistant","content":[{"type":"tool_use","id":"tool-1","name":"bash","input":{}}]}}` + "\n"
	r := ValidateClaude(parse(t, content))
	require.NotEmpty(t, r.Issues)
	assert.Equal(t, CodeOrphanToolUse, r.Issues[0].Code)
	assert.Equal(t, Warning, r.Issues[0].Severity)
	assert.Equal(t, 0, r.ErrorCount())
}

func TestValidateClaudeFlagsBrokenParentChain(t *testing.T) {
	content := `{"type":"assistant","uuid":"a1","parentUuid":"does-not-exist"}` + "\n"
	r := ValidateClaude(parse(t, content))
	var codes []string
	for _, i := range r.Issues {
		codes = append(codes, i.Code)
	}
	assert.Contains(t, codes, CodeBrokenParentChain)
}

func TestValidateClaudeFlagsDuplicateUUID(t *testing.T) {
	content := `{"type":"user","uuid":"dup","parentUuid":null}` + "\n" +
		`{"type":"assistant","uuid":"dup","parentUuid":"dup"}` + "\n"
	r := ValidateClaude(parse(t, content))
	var found bool
	for _, i := range r.Issues {
		if i.Code == CodeDuplicateUUID {
			found = true
			assert.ElementsMatch(t, []int{1, 2}, i.Details["lines"])
		}
	}
	assert.True(t, found)
}

func TestValidateClaudeFlagsThinkingBlockOrder(t *testing.T) {
	content := `{"type":"assistant","uuid":"a1","parentUuid":null,"message":{"role":"assistant","content":[{"type":"text","text":"hi"},{"type":"thinking","thinking":"late"}]}}` + "\n"
	r := ValidateClaude(parse(t, content))
	var codes []string
	for _, i := range r.Issues {
		codes = append(codes, i.Code)
	}
	assert.Contains(t, codes, CodeThinkingBlockOrder)
}

func TestValidateClaudeFlagsAPIErrorAsInfo(t *testing.T) {
	content := `{"type":"assistant","uuid":"a1","parentUuid":null,"isApiErrorMessage":true}` + "\n"
	r := ValidateClaude(parse(t, content))
	require.NotEmpty(t, r.Issues)
	assert.Equal(t, CodeAPIErrorMessage, r.Issues[0].Code)
	assert.Equal(t, Info, r.Issues[0].Severity)
	assert.Equal(t, 0, r.ErrorCount())
}

func TestValidateClaudeFlagsInvalidJSONLine(t *testing.T) {
	content := `{"type":"user","uuid":"u1","parentUuid":null}` + "\nnot json\n"
	r := ValidateClaude(parse(t, content))
	var codes []string
	for _, i := range r.Issues {
		codes = append(codes, i.Code)
	}
	assert.Contains(t, codes, CodeInvalidJSONLine)
}

func TestValidateCodexFlagsOrphanOutput(t *testing.T) {
	content := `{"timestamp":"2026-01-01T00:00:00Z","type":"response_item","payload":{"type":"function_call_output","call_id":"missing","output":"x"}}` + "\n"
	s, err := model.ParseCodexSession([]byte(content), false)
	require.NoError(t, err)
	r := ValidateCodex(s)
	var codes []string
	for _, i := range r.Issues {
		codes = append(codes, i.Code)
	}
	assert.Contains(t, codes, CodeCodexOrphanOutput)
}
