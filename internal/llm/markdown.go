package llm

import "strings"

// cleanMarkdownWrapper strips ``` fences (with an optional language tag) and any text
// outside the outermost JSON object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if nl := strings.IndexByte(content, '\n'); nl >= 0 {
			content = content[nl+1:]
		} else {
			content = strings.TrimPrefix(content, "json")
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		content = content[start : end+1]
	}

	return content
}
