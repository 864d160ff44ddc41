package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	aerrors "github.com/TheAllen/Acadia/internal/errors"
)

// Decode parses model output as JSON into T. Surrounding markdown code fences
// and prose before the first bracket are tolerated.
func Decode[T any](text string) (T, error) {
	var out T
	body := extractJSON(text)
	if body == "" {
		return out, fmt.Errorf("%w: no JSON found in response", aerrors.ErrDecode)
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, fmt.Errorf("%w: %v", aerrors.ErrDecode, err)
	}
	return out, nil
}

// StripFences removes a surrounding markdown code block, if present.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func extractJSON(text string) string {
	s := StripFences(text)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return ""
	}
	return s[start : end+1]
}
