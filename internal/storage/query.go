package storage

import (
	"strings"
	"unicode"
)

// SanitizeQuery turns free text into an FTS5 query that cannot fail to parse.
//
// Plain words pass through unchanged, optionally with a trailing '*' for
// prefix matching. Anything else (punctuation, quotes, the bare operator
// keywords AND/OR/NOT/NEAR) is wrapped in double quotes so it is matched as a
// phrase. Terms are joined with spaces, which FTS5 treats as implicit AND.
func SanitizeQuery(q string) string {
	terms := strings.Fields(q)
	if len(terms) == 0 {
		return ""
	}

	sanitized := make([]string, 0, len(terms))
	for _, term := range terms {
		if isPlainTerm(term) {
			sanitized = append(sanitized, term)
			continue
		}
		escaped := strings.ReplaceAll(term, "\"", "\"\"")
		sanitized = append(sanitized, "\""+escaped+"\"")
	}

	return strings.Join(sanitized, " ")
}

func isPlainTerm(term string) bool {
	switch term {
	case "AND", "OR", "NOT", "NEAR":
		return false
	}

	word := strings.TrimSuffix(term, "*")
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
