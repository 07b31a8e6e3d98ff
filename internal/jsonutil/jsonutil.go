// Package jsonutil provides small JSON helpers shared across the transcript
// engine. Transcript payloads are open-typed (agents add arbitrary extra
// keys), so most of the core works against json.RawMessage and raw maps
// rather than fully-typed structs.
package jsonutil

import (
	"bytes"
	"encoding/json"
)

// MarshalIndentWithNewline marshals v as indented JSON and appends a
// trailing newline, matching the shape of a hand-edited JSON file.
func MarshalIndentWithNewline(v any, prefix, indent string) ([]byte, error) {
	data, err := json.MarshalIndent(v, prefix, indent)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetString reads a string field from a raw JSON object map, returning ""
// if the key is absent or not a string.
func GetString(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// GetBool reads a bool field from a raw JSON object map, returning false
// if the key is absent or not a bool.
func GetBool(raw map[string]any, key string) bool {
	v, ok := raw[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// GetRaw reads a field as json.RawMessage by re-marshaling it. Used when a
// raw map has already been decoded via encoding/json and a sub-value needs
// to be carried on as JSON for an unknown-shape payload. The value is
// re-encoded, so the original bytes (key order, whitespace) are not kept.
func GetRaw(raw map[string]any, key string) (json.RawMessage, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return json.RawMessage(data), true
}

// Equal reports whether two JSON values are semantically equal (decoded and
// compared), independent of key order or insignificant whitespace.
func Equal(a, b []byte) bool {
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b))
	}
	na, errA := json.Marshal(va)
	nb, errB := json.Marshal(vb)
	if errA != nil || errB != nil {
		return bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b))
	}
	return bytes.Equal(na, nb)
}

// UnmarshalRaw decodes a json.RawMessage into v, the mirror of GetRaw: used
// when a CompactObject field needs to become a concrete Go value again.
func UnmarshalRaw(raw json.RawMessage, v any) error {
	return json.Unmarshal(raw, v)
}

// CompactObject decodes data into a map[string]json.RawMessage so unknown
// keys are preserved by field; callers edit the map and re-marshal it to
// rewrite a single field without disturbing any others.
func CompactObject(data []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
