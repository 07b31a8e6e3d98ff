// Package detect classifies a transcript's format from a head sample,
// implementing the ordered rule set in spec.md §4.2.
package detect

import (
	"encoding/json"

	"github.com/eversession/evs/internal/jsonl"
)

// Format identifies which agent (and which on-disk variant) produced a
// transcript.
type Format int

const (
	// Unknown means the sample matched none of the known shapes.
	Unknown Format = iota
	// ClaudeCode is Agent-C's single JSONL format.
	ClaudeCode
	// CodexWrapped is Agent-X's {timestamp,type,payload} envelope format.
	CodexWrapped
	// CodexLegacy is Agent-X's bare {id,timestamp,...} meta + raw records
	// format.
	CodexLegacy
)

func (f Format) String() string {
	switch f {
	case ClaudeCode:
		return "claude-code"
	case CodexWrapped:
		return "codex-wrapped"
	case CodexLegacy:
		return "codex-legacy"
	default:
		return "unknown"
	}
}

// Confidence grades how sure the detector is in its verdict.
type Confidence int

const (
	// Low confidence: matched only by a fallback rule.
	Low Confidence = iota
	// Medium confidence: matched a secondary rule, or a primary rule
	// downgraded by invalid JSON in the sample.
	Medium
	// High confidence: matched a primary, unambiguous rule cleanly.
	High
)

// Result is the outcome of classifying a transcript.
type Result struct {
	Format     Format
	Confidence Confidence
	// SampleSize is how many head objects were inspected.
	SampleSize int
	// Malformed is how many lines in the sample failed to decode as JSON.
	Malformed int
}

// MaxSampleObjects bounds how many head objects the detector inspects.
const MaxSampleObjects = 25

// DetectFile classifies the transcript at path.
func DetectFile(path string) (Result, error) {
	objects, malformed, err := jsonl.ReadHead(path, MaxSampleObjects)
	if err != nil {
		return Result{}, err
	}
	return detect(objects, malformed), nil
}

// DetectBytes classifies in-memory transcript content, used when operations
// re-check a proposed rewrite before committing it.
func DetectBytes(content []byte) (Result, error) {
	lines, err := jsonl.ParseBytes(content)
	if err != nil {
		return Result{}, err
	}
	var objects []json.RawMessage
	malformed := 0
	for _, l := range lines {
		if len(objects) >= MaxSampleObjects {
			break
		}
		if !l.Valid() {
			malformed++
			continue
		}
		objects = append(objects, l.Value)
	}
	return detect(objects, malformed), nil
}

func detect(objects []json.RawMessage, malformed int) Result {
	res := Result{SampleSize: len(objects), Malformed: malformed}
	if len(objects) == 0 {
		res.Format = Unknown
		return res
	}

	first := objects[0]
	var probe map[string]any
	if err := json.Unmarshal(first, &probe); err != nil {
		res.Format = Unknown
		return res
	}

	switch {
	case hasString(probe, "timestamp") && hasString(probe, "type") && hasKey(probe, "payload"):
		res.Format = CodexWrapped
		res.Confidence = High
	case hasString(probe, "id") && hasString(probe, "timestamp") && !hasKey(probe, "type"):
		res.Format = CodexLegacy
		res.Confidence = High
	case hasString(probe, "sessionId") && hasString(probe, "uuid"):
		res.Format = ClaudeCode
		res.Confidence = High
	case isClaudeEntryType(probe):
		res.Format = ClaudeCode
		res.Confidence = Medium
	default:
		res.Format = Unknown
		return res
	}

	if malformed > 0 && res.Confidence == High {
		res.Confidence = Medium
	}
	return res
}

var claudeEntryTypes = map[string]bool{
	"user":                  true,
	"assistant":             true,
	"system":                true,
	"summary":               true,
	"file-history-snapshot": true,
}

func isClaudeEntryType(probe map[string]any) bool {
	t, ok := probe["type"].(string)
	return ok && claudeEntryTypes[t]
}

func hasString(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	_, ok = v.(string)
	return ok
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}
