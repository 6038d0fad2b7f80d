package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator validates tool-call arguments against a tool's (sanitised)
// input schema before the call reaches the transport.
type Validator struct {
	compiled *jsonschema.Schema
}

// Compile compiles a raw JSON Schema document (as decoded into a
// map[string]any) into a reusable Validator. A nil or empty schema
// compiles to a permissive Validator that accepts anything.
func Compile(rawSchema map[string]any) (*Validator, error) {
	if len(rawSchema) == 0 {
		return &Validator{}, nil
	}

	buf, err := json.Marshal(rawSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	const resourceName = "binks://tool-input-schema.json"
	if err := c.AddResource(resourceName, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{compiled: compiled}, nil
}

// Validate checks args (already normalised to an object per §3) against
// the compiled schema. A permissive Validator (no schema) always passes.
func (v *Validator) Validate(args map[string]any) error {
	if v == nil || v.compiled == nil {
		return nil
	}
	// jsonschema validates native Go values; round-trip through JSON so
	// numeric types match what a real caller's JSON payload would produce.
	buf, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal arguments: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	if err := v.compiled.Validate(inst); err != nil {
		return fmt.Errorf("arguments do not satisfy input schema: %w", err)
	}
	return nil
}
