package parser

import (
	"encoding/json"
	"regexp"
)

// XMLFunctionParser accepts <function=NAME>BODY</function>, where BODY
// may contain repeated <parameter=KEY>VALUE</parameter> tags. Priority
// 75: the fallback format for models fine-tuned on Llama-style function
// tags rather than raw JSON. The body match is non-greedy and the
// function tag may be followed by arbitrary trailing markup.
type XMLFunctionParser struct{}

func (XMLFunctionParser) Priority() uint32 { return 75 }

var (
	functionRe = regexp.MustCompile(`(?s)<function=([^>]+)>(.*?)</function>`)
	parameterRe = regexp.MustCompile(`(?s)<parameter=([^>]+)>(.*?)</parameter>`)
)

func (XMLFunctionParser) TryParse(text string) (ToolCall, bool) {
	m := functionRe.FindStringSubmatch(text)
	if m == nil {
		return ToolCall{}, false
	}
	name, body := m[1], m[2]
	if name == "" {
		return ToolCall{}, false
	}

	args := map[string]any{}
	for _, pm := range parameterRe.FindAllStringSubmatch(body, -1) {
		key, value := pm[1], pm[2]
		args[key] = parseValue(value)
	}
	return ToolCall{Name: name, Arguments: args}, true
}

// parseValue parses value as JSON when possible (so "true"/"42"/
// "[1,2]" become their native JSON types), falling back to the raw
// string otherwise.
func parseValue(value string) any {
	var decoded any
	if err := json.Unmarshal([]byte(value), &decoded); err == nil {
		return decoded
	}
	return value
}
