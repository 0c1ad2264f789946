package groq

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrNoJSONObject = errors.New("no JSON object found in model output")
	ErrInvalidJSON  = errors.New("model output is not valid JSON")
)

// ExtractJSON returns the JSON object in raw. A strict parse is tried
// first, then the span from the first '{' to the last '}' once.
func ExtractJSON(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if isObject(trimmed) {
		return json.RawMessage(trimmed), nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSONObject
	}
	candidate := trimmed[start : end+1]
	if !isObject(candidate) {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(candidate), nil
}

func isObject(s string) bool {
	return gjson.Valid(s) && gjson.Parse(s).IsObject()
}
