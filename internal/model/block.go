package model

import "encoding/json"

// Block kinds, as enumerated in spec.md §3.2.
const (
	BlockText              = "text"
	BlockThinking          = "thinking"
	BlockRedactedThinking  = "redacted_thinking"
	BlockToolUse           = "tool_use"
	BlockToolResult        = "tool_result"
)

// Block is one element of an assistant or user message's content array. It
// preserves unrecognized fields through obj so a reorder/rewrite never
// loses agent-added metadata.
type Block struct {
	obj rawObject
}

// ParseBlock decodes a single content-array element.
func ParseBlock(data []byte) (Block, error) {
	obj, err := newRawObject(data)
	if err != nil {
		return Block{}, err
	}
	return Block{obj: obj}, nil
}

// MarshalJSON re-emits the block with every original field, known or not.
func (b Block) MarshalJSON() ([]byte, error) {
	raw, err := b.obj.marshal()
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Type returns the block's "type" discriminator.
func (b Block) Type() string {
	t, _ := b.obj.getString("type")
	return t
}

// IsThinking reports whether this is a thinking or redacted_thinking block.
func (b Block) IsThinking() bool {
	t := b.Type()
	return t == BlockThinking || t == BlockRedactedThinking
}

// Text returns the "text" field for a text block.
func (b Block) Text() string {
	t, _ := b.obj.getString("text")
	return t
}

// ToolUseID returns the "id" field of a tool_use block.
func (b Block) ToolUseID() string {
	id, _ := b.obj.getString("id")
	return id
}

// ToolName returns the "name" field of a tool_use block.
func (b Block) ToolName() string {
	n, _ := b.obj.getString("name")
	return n
}

// ToolInput returns the raw "input" field of a tool_use block.
func (b Block) ToolInput() json.RawMessage {
	return b.obj["input"]
}

// ToolResultID returns the "tool_use_id" field of a tool_result block.
func (b Block) ToolResultID() string {
	id, _ := b.obj.getString("tool_use_id")
	return id
}

// ToolResultContent returns the raw "content" field of a tool_result block,
// which may be a string or an array of blocks.
func (b Block) ToolResultContent() json.RawMessage {
	return b.obj["content"]
}

// Clone returns an independent copy of the block.
func (b Block) Clone() Block {
	return Block{obj: b.obj.clone()}
}

// NewTextBlock builds a fresh text block, used when the fixer must insert a
// placeholder after stripping every thinking block from a message
// (spec.md §4.7 "strip_thinking_blocks").
func NewTextBlock(text string) Block {
	obj := rawObject{}
	obj.setString("type", BlockText)
	obj.setString("text", text)
	return Block{obj: obj}
}
