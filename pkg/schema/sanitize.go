// Package schema provides JSON Schema sanitisation, argument
// validation, and descriptor generation shared by the capability
// client pool and the embeddable capability surface.
package schema

// deniedKeys are JSON Schema keys the local LLM backend rejects when
// they appear in a tool's input schema.
var deniedKeys = map[string]bool{
	"$schema":             true,
	"title":               true,
	"additionalProperties": true,
}

// Sanitize recursively strips deniedKeys from every JSON object reachable
// from v (maps and slices), returning a new value and leaving v untouched.
// Sanitize is idempotent: Sanitize(Sanitize(v)) == Sanitize(v).
func Sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if deniedKeys[k] {
				continue
			}
			out[k] = Sanitize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Sanitize(val)
		}
		return out
	default:
		return v
	}
}
