package markdown

import "strings"

const snippetMaxLength = 200

// Snippet pulls the first paragraph of prose out of a Markdown blob for use
// as a feed card preview, truncating at a word boundary.
func Snippet(markdown string) string {
	lines := strings.Split(markdown, "\n")
	var paragraphLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Skip headings before we find content
		if strings.HasPrefix(trimmed, "#") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		// Empty line handling
		if trimmed == "" {
			if len(paragraphLines) > 0 {
				break // End of first paragraph
			}
			continue
		}

		// Stop at code blocks, horizontal rules, lists, tables
		if strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, "|") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		// Collect paragraph content
		paragraphLines = append(paragraphLines, trimmed)
	}

	if len(paragraphLines) == 0 {
		return ""
	}

	snippet := strings.Join(paragraphLines, " ")

	// Truncate if too long
	if len(snippet) > snippetMaxLength {
		snippet = snippet[:snippetMaxLength]
		if lastSpace := strings.LastIndexAny(snippet, " \t"); lastSpace > 0 {
			snippet = snippet[:lastSpace]
		}
		snippet += "..."
	}

	return snippet
}
