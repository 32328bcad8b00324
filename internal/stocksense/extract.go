package stocksense

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// Greedy: first '{' through last '}'.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSONObject pulls a JSON object out of free model output. The
// whole text is tried first; failing that, the widest brace-delimited span.
// The result must decode to an object, not an array or scalar.
func ExtractJSONObject(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	if raw, ok := asObject([]byte(trimmed)); ok {
		return raw, true
	}

	match := jsonObjectPattern.FindString(trimmed)
	if match == "" {
		return nil, false
	}
	return asObject([]byte(match))
}

func asObject(data []byte) (json.RawMessage, bool) {
	if !json.Valid(data) {
		return nil, false
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, false
	}
	return json.RawMessage(data), true
}
