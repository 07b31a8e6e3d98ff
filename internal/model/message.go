package model

import "encoding/json"

// Message is the "message" field of a Claude Code entry: a role plus
// content that is either a bare string or an array of Blocks (spec.md
// §3.2).
type Message struct {
	obj rawObject
}

// ParseMessage decodes an entry's "message" object.
func ParseMessage(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, nil
	}
	obj, err := newRawObject(data)
	if err != nil {
		return nil, err
	}
	return &Message{obj: obj}, nil
}

// MarshalJSON re-emits the message with every original field.
func (m *Message) MarshalJSON() ([]byte, error) {
	return m.obj.marshal()
}

// Role returns "user" or "assistant".
func (m *Message) Role() string {
	r, _ := m.obj.getString("role")
	return r
}

// ID returns the message's own id (used as one half of the assistant
// streaming-chunk merge key, spec.md §3.2 rule 3).
func (m *Message) ID() string {
	id, _ := m.obj.getString("id")
	return id
}

// IsStringContent reports whether content is a bare string rather than a
// block array.
func (m *Message) IsStringContent() bool {
	raw, ok := m.obj["content"]
	if !ok {
		return false
	}
	var s string
	return json.Unmarshal(raw, &s) == nil
}

// StringContent returns the content when it is a bare string.
func (m *Message) StringContent() string {
	s, _ := m.obj.getString("content")
	return s
}

// Blocks returns the content array as Blocks. If content is a bare string
// or absent, returns nil.
func (m *Message) Blocks() []Block {
	raw, ok := m.obj["content"]
	if !ok {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil
	}
	blocks := make([]Block, 0, len(arr))
	for _, item := range arr {
		b, err := ParseBlock(item)
		if err != nil {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// SetBlocks replaces content with the given block array.
func (m *Message) SetBlocks(blocks []Block) {
	raw, err := json.Marshal(blocks)
	if err != nil {
		return
	}
	m.obj.setRaw("content", raw)
}

// SetStringContent replaces content with a bare string.
func (m *Message) SetStringContent(text string) {
	m.obj.setString("content", text)
}

// FirstBlockIsThinking reports whether the content array begins with a
// thinking/redacted_thinking block (spec.md §3.2 invariant 2). Empty or
// absent content also reports true.
func (m *Message) FirstBlockIsThinking() bool {
	blocks := m.Blocks()
	if len(blocks) == 0 {
		return true // no blocks means nothing to violate the order invariant
	}
	return blocks[0].IsThinking()
}

// HasThinking reports whether any block in the content is a thinking block.
func (m *Message) HasThinking() bool {
	for _, b := range m.Blocks() {
		if b.IsThinking() {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the message.
func (m *Message) Clone() *Message {
	return &Message{obj: m.obj.clone()}
}
