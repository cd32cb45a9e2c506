// Package jsonx extracts structured JSON from noisy LLM output. Models
// routinely wrap their JSON in prose or markdown fences; salvage scans for
// the first parseable object or array instead of failing the whole stage.
package jsonx

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	objectPattern = regexp.MustCompile(`(?s)\{.*?\}`)
	arrayPattern  = regexp.MustCompile(`(?s)\[.*?\]`)
)

// First returns the first parseable JSON object or array found in text.
// It tries, in order: the first {...} match, the first [...] match, and the
// whole text. Returns false when nothing parses.
func First(text string) (json.RawMessage, bool) {
	if m := objectPattern.FindString(text); m != "" {
		if json.Valid([]byte(m)) {
			return json.RawMessage(m), true
		}
	}
	if m := arrayPattern.FindString(text); m != "" {
		if json.Valid([]byte(m)) {
			return json.RawMessage(m), true
		}
	}
	if json.Valid([]byte(text)) {
		return json.RawMessage(text), true
	}
	// Last resort for nested values the non-greedy patterns cannot span.
	if raw, ok := scanFrom(text, "{"); ok {
		return raw, true
	}
	return scanFrom(text, "[")
}

// FirstArray returns the first parseable JSON array found in text. Unlike
// First it never settles for an object, so a multi-element payload is not
// truncated to its first element.
func FirstArray(text string) (json.RawMessage, bool) {
	return scanFrom(text, "[")
}

// scanFrom decodes one complete JSON value starting at each occurrence of
// opener, tolerating nesting and trailing prose.
func scanFrom(text, opener string) (json.RawMessage, bool) {
	for idx := 0; idx < len(text); {
		i := strings.Index(text[idx:], opener)
		if i < 0 {
			return nil, false
		}
		start := idx + i
		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil && len(raw) > 0 && string(raw[:1]) == opener {
			return raw, true
		}
		idx = start + 1
	}
	return nil, false
}

// Decode salvages the first JSON value from text and unmarshals it into v.
// Returns false when no JSON could be salvaged or the salvaged value does
// not fit v.
func Decode(text string, v any) bool {
	raw, ok := First(text)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
