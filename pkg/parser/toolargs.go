package parser

import "encoding/json"

// ToolArgsParser accepts JSON {"tool": S, "args": V}. Priority 50, tied
// with FunctionParamsParser — registration order decides.
type ToolArgsParser struct{}

func (ToolArgsParser) Priority() uint32 { return 50 }

type toolArgsPayload struct {
	Tool string `json:"tool"`
	Args any    `json:"args"`
}

func (ToolArgsParser) TryParse(text string) (ToolCall, bool) {
	var p toolArgsPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return ToolCall{}, false
	}
	if p.Tool == "" {
		return ToolCall{}, false
	}
	return ToolCall{Name: p.Tool, Arguments: normalizeArgs(p.Args)}, true
}
