package interpreter

import "strings"

const fence = "```"

// CleanModelJSON strips Markdown code fences (``` or ```json) and any text
// outside the outermost JSON object.
func CleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
		s = strings.TrimSpace(s)
		if idx := strings.LastIndex(s, fence); idx != -1 {
			s = s[:idx]
		}
	}

	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}' if the model added prose.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
