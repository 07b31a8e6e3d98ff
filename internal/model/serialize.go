package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RenderedLine is one line of a serialized transcript, tagged with whether
// it came from an unchanged source line (preserved byte-for-byte) or was
// produced fresh by marshaling an entry (spec.md §8 property 5).
type RenderedLine struct {
	Raw     []byte
	Changed bool
}

// SerializeClaudeEntries marshals entries back to JSONL bytes, one compact
// JSON object per line, newline-terminated.
func SerializeClaudeEntries(entries []*ClaudeEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshaling entry (line %d): %w", e.Line, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// SerializeInvalidLines re-emits the raw bytes of lines that failed to
// parse, unchanged, so a rewrite never touches what it could not
// understand.
func SerializeInvalidLines(lines []InvalidLine) [][]byte {
	out := make([][]byte, len(lines))
	for i, l := range lines {
		out[i] = l.Raw
	}
	return out
}

// SerializeCodexEntries marshals Agent-X entries back to JSONL bytes.
func SerializeCodexEntries(entries []*CodexEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshaling entry (line %d): %w", e.Line, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// MergeClaudeOutput interleaves surviving entries with invalid lines by
// their original source-line number and serializes the result, so a
// rewrite never drops a line an operation had no business touching (spec.md
// §3.1 "invalid lines are re-emitted unchanged"). entries must already be
// in final output order; an entry with Line <= 0 is a freshly synthesized
// one (e.g. a compaction summary) with no original position, and is simply
// emitted where it falls without disturbing the invalid-line cursor.
func MergeClaudeOutput(entries []*ClaudeEntry, invalid []InvalidLine) ([]byte, error) {
	var buf bytes.Buffer
	j := 0
	for _, e := range entries {
		if e.Line > 0 {
			for j < len(invalid) && invalid[j].Line < e.Line {
				buf.Write(invalid[j].Raw)
				buf.WriteByte('\n')
				j++
			}
		}
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshaling entry (line %d): %w", e.Line, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	for ; j < len(invalid); j++ {
		buf.Write(invalid[j].Raw)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// MergeCodexOutput is the Agent-X analogue of MergeClaudeOutput.
func MergeCodexOutput(entries []*CodexEntry, invalid []InvalidLine) ([]byte, error) {
	var buf bytes.Buffer
	j := 0
	for _, e := range entries {
		if e.Line > 0 {
			for j < len(invalid) && invalid[j].Line < e.Line {
				buf.Write(invalid[j].Raw)
				buf.WriteByte('\n')
				j++
			}
		}
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshaling entry (line %d): %w", e.Line, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	for ; j < len(invalid); j++ {
		buf.Write(invalid[j].Raw)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
