package parser

import "encoding/json"

// FunctionParamsParser accepts JSON {"function": S, "parameters": V}.
// Priority 50, tied with ToolArgsParser — registration order decides.
type FunctionParamsParser struct{}

func (FunctionParamsParser) Priority() uint32 { return 50 }

type functionParamsPayload struct {
	Function   string `json:"function"`
	Parameters any    `json:"parameters"`
}

func (FunctionParamsParser) TryParse(text string) (ToolCall, bool) {
	var p functionParamsPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return ToolCall{}, false
	}
	if p.Function == "" {
		return ToolCall{}, false
	}
	return ToolCall{Name: p.Function, Arguments: normalizeArgs(p.Parameters)}, true
}
