package model

import (
	"encoding/json"
	"fmt"
)

// rawObject is a JSON object decoded field-by-field into json.RawMessage so
// that unknown keys survive a parse/rewrite/reserialize round trip
// unchanged (spec.md §9 "Dynamic typing": agents add arbitrary extra keys
// to entries and blocks; EVS must never drop them).
type rawObject map[string]json.RawMessage

func newRawObject(data []byte) (rawObject, error) {
	if len(data) == 0 {
		return rawObject{}, nil
	}
	var m rawObject
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	if m == nil {
		m = rawObject{}
	}
	return m, nil
}

func (o rawObject) marshal() (json.RawMessage, error) {
	if o == nil {
		o = rawObject{}
	}
	return json.Marshal(map[string]json.RawMessage(o))
}

func (o rawObject) getString(key string) (string, bool) {
	raw, ok := o[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (o rawObject) getBool(key string) bool {
	raw, ok := o[key]
	if !ok {
		return false
	}
	var b bool
	_ = json.Unmarshal(raw, &b)
	return b
}

func (o rawObject) setString(key, value string) {
	data, _ := json.Marshal(value)
	o[key] = data
}

func (o rawObject) setRaw(key string, value json.RawMessage) {
	o[key] = value
}

func (o rawObject) setNull(key string) {
	o[key] = json.RawMessage("null")
}

func (o rawObject) delete(key string) {
	delete(o, key)
}

func (o rawObject) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o rawObject) isNull(key string) bool {
	raw, ok := o[key]
	if !ok {
		return false
	}
	return string(raw) == "null"
}

func (o rawObject) clone() rawObject {
	c := make(rawObject, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}
