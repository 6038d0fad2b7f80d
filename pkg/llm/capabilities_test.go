package llm

import "testing"

func TestModelCapabilitiesForThinkingFamilies(t *testing.T) {
	cases := []struct {
		model    string
		thinking bool
	}{
		{"deepseek-r1:7b", true},
		{"deepseek-v3:latest", true},
		{"qwen3:8b", true},
		{"gpt-oss:20b", true},
		{"qwen3-coder:30b", false},
		{"qwen2-coder:7b", false},
		{"llama3.1:8b", false},
	}
	for _, tc := range cases {
		got := ModelCapabilitiesFor(tc.model).SupportsThinking
		if got != tc.thinking {
			t.Errorf("ModelCapabilitiesFor(%q).SupportsThinking = %v, want %v", tc.model, got, tc.thinking)
		}
	}
}

func TestModelCapabilitiesForToolCallingAndFormat(t *testing.T) {
	caps := ModelCapabilitiesFor("llama3.1:8b")
	if !caps.SupportsToolCalling {
		t.Fatal("expected llama3.1 to support tool calling")
	}
	if caps.FunctionCallFormat != FormatNative {
		t.Fatalf("expected native format, got %v", caps.FunctionCallFormat)
	}

	unknown := ModelCapabilitiesFor("some-obscure-model:1b")
	if unknown.SupportsToolCalling {
		t.Fatal("expected unrecognised model to not support tool calling")
	}
	if unknown.FunctionCallFormat != FormatUnknown {
		t.Fatalf("expected unknown format, got %v", unknown.FunctionCallFormat)
	}
}

func TestModelCapabilitiesForIsCached(t *testing.T) {
	a := ModelCapabilitiesFor("cache-test-model")
	b := ModelCapabilitiesFor("cache-test-model")
	if a != b {
		t.Fatalf("expected identical cached capabilities, got %+v vs %+v", a, b)
	}
}
