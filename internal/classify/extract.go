package classify

import (
	"fmt"
	"strings"

	"labeleval/internal/domain"

	jsoniter "github.com/json-iterator/go"
)

var (
	decodeJSON = jsoniter.ConfigCompatibleWithStandardLibrary
	encodeJSON = jsoniter.Config{EscapeHTML: false, SortMapKeys: true}.Froze()
)

// ExtractJSONObject pulls the first {...} object out of free text. A failed
// parse is retried once with single quotes turned into double quotes.
func ExtractJSONObject(text string) (map[string]any, error) {
	candidate, ok := firstObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", domain.ErrStructural)
	}
	var out map[string]any
	err := decodeJSON.UnmarshalFromString(candidate, &out)
	if err == nil && out != nil {
		return out, nil
	}
	if err := decodeJSON.UnmarshalFromString(strings.ReplaceAll(candidate, "'", `"`), &out); err != nil || out == nil {
		return nil, fmt.Errorf("%w: unparseable JSON object", domain.ErrStructural)
	}
	return out, nil
}

// decodeObject parses text that is expected to be a bare JSON object.
func decodeObject(text string) (map[string]any, error) {
	var out map[string]any
	if err := decodeJSON.UnmarshalFromString(strings.TrimSpace(text), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStructural, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: empty structured result", domain.ErrStructural)
	}
	return out, nil
}

// firstObject returns the first balanced brace span, honoring double-quoted
// strings. An unterminated object extends to the last closing brace.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	end := strings.LastIndexByte(text, '}')
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}
