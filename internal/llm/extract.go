package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/newthinker/quorum/internal/core"
)

// maxScan bounds how far past an opening brace the recovery scan looks.
const maxScan = 64 * 1024

// fencePattern only matches a fence wrapping the whole reply.
var fencePattern = regexp.MustCompile("(?s)^```(?:json|JSON)?\\s*(.*?)\\s*```$")

// ExtractJSON pulls a JSON object out of model output. It unwraps a reply
// that is entirely one markdown fence, tries a strict parse, then falls back
// to the first balanced {...} substring of the full reply. Errors wrap
// core.ErrParse.
func ExtractJSON(text string) (map[string]any, error) {
	var out map[string]any
	if err := DecodeJSON(text, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeJSON is ExtractJSON decoding into v.
// The object is located and validated first so v is decoded exactly once.
func DecodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return core.WrapError(core.ErrParse, fmt.Errorf("empty response"))
	}

	obj, ok := locateObject(text)
	if !ok {
		return core.WrapError(core.ErrParse, fmt.Errorf("no JSON object in response"))
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return core.WrapError(core.ErrParse, err)
	}
	return nil
}

// locateObject prefers the body of a wrapping fence, then the whole reply
// as strict JSON, then the first balanced object anywhere in the reply.
func locateObject(text string) (string, bool) {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		if obj, ok := strictOrScan(strings.TrimSpace(m[1])); ok {
			return obj, true
		}
	}
	return strictOrScan(text)
}

func strictOrScan(s string) (string, bool) {
	if strings.HasPrefix(s, "{") && json.Valid([]byte(s)) {
		return s, true
	}
	return firstObject(s)
}

// firstObject finds the first brace-balanced substring, ignoring braces inside
// string literals. Each candidate start is scanned at most maxScan bytes.
func firstObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	limit := len(s)
	if start+maxScan < limit {
		limit = start + maxScan
	}
	for i := start; i < limit; i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// StringField returns m[key] as a trimmed string. Numbers are formatted.
func StringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}

// NumberField returns m[key] as a finite float. Numeric strings are accepted.
func NumberField(m map[string]any, key string) (float64, bool) {
	var f float64
	switch v := m[key].(type) {
	case float64:
		f = v
	case string:
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%g", &f); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
