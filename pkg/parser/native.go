package parser

import "encoding/json"

// NativeParser accepts JSON {"name": S, "arguments": V}. Priority 100 —
// the highest, since this is the shape a well-behaved backend emits
// directly in free text when it has no structured tool-call channel.
type NativeParser struct{}

func (NativeParser) Priority() uint32 { return 100 }

type nativePayload struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

func (NativeParser) TryParse(text string) (ToolCall, bool) {
	var p nativePayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return ToolCall{}, false
	}
	if p.Name == "" {
		return ToolCall{}, false
	}
	return ToolCall{Name: p.Name, Arguments: normalizeArgs(p.Arguments)}, true
}
