package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalIndentWithNewlineAppendsTrailingNewline(t *testing.T) {
	data, err := MarshalIndentWithNewline(map[string]int{"a": 1}, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestGetStringAndGetBool(t *testing.T) {
	raw := map[string]any{"name": "evs", "enabled": true, "count": 5}
	assert.Equal(t, "evs", GetString(raw, "name"))
	assert.Equal(t, "", GetString(raw, "missing"))
	assert.Equal(t, "", GetString(raw, "count"))
	assert.True(t, GetBool(raw, "enabled"))
	assert.False(t, GetBool(raw, "missing"))
	assert.False(t, GetBool(raw, "name"))
}

func TestGetRawRoundTrips(t *testing.T) {
	raw := map[string]any{"payload": map[string]any{"a": 1.0}}
	data, ok := GetRaw(raw, "payload")
	require.True(t, ok)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1.0, decoded["a"])

	_, ok = GetRaw(raw, "missing")
	assert.False(t, ok)
}

func TestEqualIgnoresKeyOrderAndWhitespace(t *testing.T) {
	a := []byte(`{"a":1,"b":2}`)
	b := []byte(`{  "b": 2,   "a": 1 }`)
	assert.True(t, Equal(a, b))

	c := []byte(`{"a":1,"b":3}`)
	assert.False(t, Equal(a, c))
}

func TestEqualFallsBackToByteCompareOnInvalidJSON(t *testing.T) {
	assert.True(t, Equal([]byte("not json"), []byte("not json")))
	assert.False(t, Equal([]byte("not json"), []byte("also not json")))
}

func TestCompactObjectPreservesUnknownFieldsAsRaw(t *testing.T) {
	m, err := CompactObject([]byte(`{"known":"x","unknown":{"nested":true}}`))
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"x"`), m["known"])
	assert.Equal(t, json.RawMessage(`{"nested":true}`), m["unknown"])
}

func TestUnmarshalRaw(t *testing.T) {
	var s string
	require.NoError(t, UnmarshalRaw(json.RawMessage(`"hello"`), &s))
	assert.Equal(t, "hello", s)
}
