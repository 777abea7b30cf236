package query

import "strings"

// highlightRadius bounds how many characters of context surround a
// matched token in a highlight snippet.
const highlightRadius = 40

// highlight finds, for each queryToken, the first case-insensitive
// occurrence of that token in content and returns a bounded snippet
// around it. Tokens with no occurrence are omitted.
func highlight(content string, queryTokens []string) []string {
	lower := strings.ToLower(content)
	var snippets []string
	for _, tok := range queryTokens {
		if tok == "" {
			continue
		}
		idx := strings.Index(lower, strings.ToLower(tok))
		if idx < 0 {
			continue
		}
		start := idx - highlightRadius
		if start < 0 {
			start = 0
		}
		end := idx + len(tok) + highlightRadius
		if end > len(content) {
			end = len(content)
		}
		snippets = append(snippets, strings.TrimSpace(content[start:end]))
	}
	return snippets
}
