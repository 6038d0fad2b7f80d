package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Describe generates a sanitised JSON Schema object for the given Go
// value's type, suitable for use as a ToolDescriptor.InputSchema. It is
// used by embedded capability servers (§4.9) whose tool parameters are
// expressed as plain Go structs rather than hand-written schema
// documents.
func Describe(argStruct any) map[string]any {
	reflector := &jsonschema.Reflector{
		DoNotReference:           true,
		ExpandedStruct:           true,
		AllowAdditionalProperties: false,
	}
	s := reflector.Reflect(argStruct)

	buf, err := json.Marshal(s)
	if err != nil {
		return map[string]any{}
	}

	var raw map[string]any
	if err := json.Unmarshal(buf, &raw); err != nil {
		return map[string]any{}
	}

	sanitised, _ := Sanitize(raw).(map[string]any)
	return sanitised
}
