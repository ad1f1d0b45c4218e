package feedback

import (
	"encoding/json"
	"regexp"
	"strings"
)

var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

// ExtractJSONObject pulls the outermost JSON object out of a model response
// that may be wrapped in prose or markdown code fences. It returns the object
// text and whether it parses as valid JSON after best-effort repair.
func ExtractJSONObject(response string) (string, bool) {
	s := strings.TrimSpace(response)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	s = braceSpan(s)
	if s == "" {
		return "", false
	}
	if isValidJSON(s) {
		return s, true
	}
	// One repair pass: models commonly emit trailing commas.
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	if isValidJSON(s) {
		return s, true
	}
	return "", false
}

// braceSpan returns the substring from the first '{' to its matching '}'.
func braceSpan(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func isValidJSON(s string) bool {
	var v any
	return json.Unmarshal([]byte(s), &v) == nil
}
