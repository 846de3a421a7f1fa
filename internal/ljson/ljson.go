// Package ljson parses JSON out of free-form LLM replies. Completion
// services routinely wrap JSON in prose, markdown fences, or duplicate
// braces; callers need a best-effort value, never an error surface.
package ljson

import (
	"encoding/json"
	"strings"
)

// Extract locates the outermost balanced brace block in text and returns
// it, or "" when no balanced block exists.
func Extract(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return text[start : i+1]
			}
		}
	}
	return ""
}

// Unmarshal extracts the first balanced JSON object from text and decodes
// it into v. It returns false when no object is found or decoding fails;
// it never returns an error.
func Unmarshal(text string, v any) bool {
	block := Extract(text)
	if block == "" {
		return false
	}
	return json.Unmarshal([]byte(block), v) == nil
}

// Object is shorthand for Unmarshal into a generic map.
func Object(text string) (map[string]any, bool) {
	var m map[string]any
	if !Unmarshal(text, &m) {
		return nil, false
	}
	return m, true
}
