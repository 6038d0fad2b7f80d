package llm

import (
	"strings"
	"sync"
)

// FunctionCallFormat is the shape a model's tool-call output is
// expected to take (§3).
type FunctionCallFormat string

const (
	FormatNative        FunctionCallFormat = "native"
	FormatJSONInContent FunctionCallFormat = "json_in_content"
	FormatXML           FunctionCallFormat = "xml"
	FormatUnknown       FunctionCallFormat = "unknown"
)

// ModelCapabilities describes what a model supports (§3). Derived from
// model-name heuristics and cached per process per model name.
type ModelCapabilities struct {
	SupportsToolCalling bool
	SupportsThinking    bool
	FunctionCallFormat  FunctionCallFormat
}

// thinkingModels mirrors the teacher's known thinking-capable family
// prefixes; thinkingExclusions are variants within those families that
// don't actually support it (e.g. qwen3-coder).
var thinkingModels = []string{"qwen3", "deepseek-r1", "deepseek-v3", "gpt-oss"}
var thinkingExclusions = []string{"qwen3-coder", "qwen2-coder"}

// nativeToolCallingModels lists family prefixes known to expose a
// structured tool_calls channel over Ollama's /api/chat.
var nativeToolCallingModels = []string{
	"llama3.1", "llama3.2", "llama3.3", "mistral", "mixtral",
	"qwen2.5", "qwen3", "command-r", "firefunction", "gpt-oss",
}

var (
	capabilitiesMu    sync.Mutex
	capabilitiesCache = map[string]ModelCapabilities{}
)

// ModelCapabilitiesFor derives and caches model's capabilities.
func ModelCapabilitiesFor(model string) ModelCapabilities {
	capabilitiesMu.Lock()
	if cached, ok := capabilitiesCache[model]; ok {
		capabilitiesMu.Unlock()
		return cached
	}
	capabilitiesMu.Unlock()

	caps := deriveCapabilities(model)

	capabilitiesMu.Lock()
	capabilitiesCache[model] = caps
	capabilitiesMu.Unlock()

	return caps
}

func deriveCapabilities(model string) ModelCapabilities {
	lower := strings.ToLower(model)

	supportsThinking := matchesAny(lower, thinkingModels) && !matchesAny(lower, thinkingExclusions)
	supportsToolCalling := matchesAny(lower, nativeToolCallingModels)

	format := FormatUnknown
	if supportsToolCalling {
		format = FormatNative
	}

	return ModelCapabilities{
		SupportsToolCalling: supportsToolCalling,
		SupportsThinking:    supportsThinking,
		FunctionCallFormat:  format,
	}
}

func matchesAny(lower string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
