package utils

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// CleanMarkdown strips outer markdown code blocks so the output is pure
// Markdown ready for rendering.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	if strings.HasPrefix(cleaned, "```markdown") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```markdown")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	} else if strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned
}

// RenderMarkdown converts Markdown (with GFM tables) to HTML.
func RenderMarkdown(input string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(CleanMarkdown(input)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ValidateMarkdown checks if the string parses as Markdown. Goldmark is very
// permissive, so this is a basic sanity check.
func ValidateMarkdown(input string) bool {
	parser := goldmark.DefaultParser()
	reader := text.NewReader([]byte(input))
	doc := parser.Parse(reader)
	return doc != nil
}
