package schema

import (
	"reflect"
	"testing"
)

func TestSanitizeStripsDeniedKeysAtEveryDepth(t *testing.T) {
	in := map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"title":   "root",
		"type":    "object",
		"properties": map[string]any{
			"nested": map[string]any{
				"title":                "nested title",
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"leaf": map[string]any{"type": "string", "title": "leaf title"},
				},
			},
		},
		"additionalProperties": false,
	}

	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"nested": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"leaf": map[string]any{"type": "string"},
				},
			},
		},
	}

	got := Sanitize(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sanitize() = %#v, want %#v", got, want)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	in := map[string]any{
		"$schema": "x",
		"nested":  []any{map[string]any{"title": "y", "type": "string"}},
	}
	once := Sanitize(in)
	twice := Sanitize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Sanitize not idempotent: once=%#v twice=%#v", once, twice)
	}
}

func TestSanitizePreservesOtherKeys(t *testing.T) {
	in := map[string]any{"type": "string", "enum": []any{"a", "b"}, "default": "a"}
	got := Sanitize(in)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("Sanitize() = %#v, want unchanged %#v", got, in)
	}
}
