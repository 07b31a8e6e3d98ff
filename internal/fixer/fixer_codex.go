package fixer

import (
	"fmt"

	"github.com/eversession/evs/internal/evsutil"
	"github.com/eversession/evs/internal/model"
)

// InsertAbortedOutputs synthesizes a function_call_output/
// custom_tool_call_output entry for every call that has none, so every
// call/output pair is complete (spec.md §4.6 Agent-X "insert_aborted_outputs"
// — the transcript records the call was made but the agent process ended
// before the result came back).
func InsertAbortedOutputs(s *model.CodexSession) ([]*model.CodexEntry, Report) {
	var r Report
	calls := s.Calls()
	outputs := s.Outputs()

	out := append([]*model.CodexEntry(nil), s.Entries...)
	for id, callEntries := range calls {
		if _, ok := outputs[id]; ok {
			continue
		}
		last := callEntries[len(callEntries)-1]
		synthetic, err := buildAbortedOutput(last, id)
		if err != nil {
			continue
		}
		out = insertAfter(out, last, synthetic)
		r.Changes.Insert(last.Line, nil, fmt.Sprintf("synthesized aborted output for call %q", id))
		r.Fixed++
	}
	return out, r
}

func buildAbortedOutput(call *model.CodexEntry, callID string) (*model.CodexEntry, error) {
	payloadType := model.PayloadFunctionCallOutput
	if call.PayloadType() == model.PayloadCustomToolCall {
		payloadType = model.PayloadCustomToolCallOutput
	}
	raw := fmt.Sprintf(`{"timestamp":%q,"type":%q,"payload":{"type":%q,"call_id":%q,"output":"aborted: agent process ended before a result was recorded"}}`,
		call.Timestamp(), model.CodexTypeResponseItem, payloadType, callID)
	return model.ParseCodexWrappedEntry(0, []byte(raw))
}

func insertAfter(entries []*model.CodexEntry, after *model.CodexEntry, insert *model.CodexEntry) []*model.CodexEntry {
	out := make([]*model.CodexEntry, 0, len(entries)+1)
	for _, e := range entries {
		out = append(out, e)
		if e == after {
			out = append(out, insert)
		}
	}
	return out
}

// ChangeSet is a convenience re-export so callers working purely with
// Agent-X fixes don't need to import internal/evsutil directly.
type ChangeSet = evsutil.ChangeSet
