package providers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSONObject pulls the first complete JSON object out of model
// output. Models occasionally wrap JSON in markdown fences or prose even
// when instructed not to.
func extractJSONObject(text string) (json.RawMessage, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return nil, fmt.Errorf("invalid JSON object in response")
				}
				return json.RawMessage(candidate), nil
			}
		}
	}

	return nil, fmt.Errorf("unterminated JSON object in response")
}

// joinSystem combines the caller system prompt, the JSON output
// instruction, and an optional schema description into one instruction
// block.
func joinSystem(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}
