package parser

import "sort"

// entry pairs a Parser with its registration order, used to break ties
// between parsers declaring the same priority.
type entry struct {
	p     Parser
	order int
}

// Registry evaluates parsers in descending priority, stopping at the
// first match. Ties break by registration order (§4.2).
type Registry struct {
	entries []entry
	sorted  bool
}

// NewRegistry creates an empty registry. Use NewDefaultRegistry for the
// four built-in parsers already registered in priority order.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry returns a Registry with Native (100), XMLFunction
// (75), FunctionParams (50), and ToolArgs (50) registered in that order
// — FunctionParams wins ties against ToolArgs since it registers first.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NativeParser{})
	r.Register(XMLFunctionParser{})
	r.Register(FunctionParamsParser{})
	r.Register(ToolArgsParser{})
	return r
}

// Register adds a parser to the registry.
func (r *Registry) Register(p Parser) {
	r.entries = append(r.entries, entry{p: p, order: len(r.entries)})
	r.sorted = false
}

func (r *Registry) ensureSorted() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.entries, func(i, j int) bool {
		pi, pj := r.entries[i].p.Priority(), r.entries[j].p.Priority()
		if pi != pj {
			return pi > pj
		}
		return r.entries[i].order < r.entries[j].order
	})
	r.sorted = true
}

// Parse runs text through every registered parser in descending
// priority order, returning the first accepting parser's result.
// Lower-priority parsers are never consulted once one matches.
func (r *Registry) Parse(text string) (ToolCall, bool) {
	r.ensureSorted()
	for _, e := range r.entries {
		if call, ok := e.p.TryParse(text); ok {
			return call, true
		}
	}
	return ToolCall{}, false
}
